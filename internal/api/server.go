// Package api serves fund histories and the portfolio ledger to the web
// frontend over HTTP.
package api

import (
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/rustyeddy/fundtrader/ledger"
	"github.com/rustyeddy/fundtrader/store"
)

// Server holds what the handlers read from. Histories are loaded from the
// store on every request so fetched data shows up without a restart.
type Server struct {
	store  *store.Store
	ledger *ledger.Ledger
	names  map[string]string
	now    func() time.Time
	logger *log.Logger
	rps    float64

	// ledgerMu serializes ledger writes against reads.
	ledgerMu sync.RWMutex
}

type Option func(*Server)

// WithFundNames supplies display names for funds whose files carry none.
func WithFundNames(names map[string]string) Option {
	return func(s *Server) {
		s.names = names
	}
}

// WithClock overrides the clock used for period filters and summaries.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l == nil {
			l = log.New(io.Discard, "", 0)
		}
		s.logger = l
	}
}

// WithRateLimit sets the per-client request rate; zero disables it.
func WithRateLimit(perSecond float64) Option {
	return func(s *Server) {
		s.rps = perSecond
	}
}

func NewServer(st *store.Store, l *ledger.Ledger, opts ...Option) *Server {
	s := &Server{
		store:  st,
		ledger: l,
		names:  map[string]string{},
		now:    time.Now,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(ErrorHandler(s.logger))
	r.Use(RateLimit(s.rps, s.logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.GET("/funds", s.listFunds)
		api.GET("/funds/:symbol/history", s.fundHistory)
		api.GET("/funds/:symbol/price", s.fundPrice)
		api.GET("/funds/:symbol/rsi", s.fundRSI)
		api.GET("/prices", s.latestPrices)

		api.GET("/portfolio/transactions", s.listTransactions)
		api.POST("/portfolio/transactions", s.addTransaction)
		api.GET("/portfolio/summary", s.portfolioSummary)
	}

	r.NoRoute(func(c *gin.Context) {
		errorBody(c, http.StatusNotFound, "NOT_FOUND", "no route for "+c.Request.URL.Path)
	})
	return r
}

// Handler wraps the router with CORS for the given frontend origins.
// An empty list allows any origin.
func (s *Server) Handler(allowedOrigins []string) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Accept"},
	}).Handler(s.Router())
}

func symbolParam(c *gin.Context) string {
	return strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
}
