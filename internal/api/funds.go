package api

import (
	"errors"
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rustyeddy/fundtrader/indicators"
	"github.com/rustyeddy/fundtrader/market"
	"github.com/rustyeddy/fundtrader/store"
	"github.com/shopspring/decimal"
)

const defaultRSIPeriod = 14

type fundInfo struct {
	Symbol      string          `json:"symbol"`
	Name        string          `json:"name,omitempty"`
	Days        int             `json:"days"`
	LatestDate  string          `json:"latest_date,omitempty"`
	LatestPrice decimal.Decimal `json:"latest_price"`
}

type pricePoint struct {
	Date  string          `json:"date"`
	Price decimal.Decimal `json:"price"`
}

func toPoint(r market.PriceRecord) pricePoint {
	return pricePoint{Date: market.FormatDate(r.Date), Price: r.Price}
}

// fundName prefers the configured name and falls back to the name stored in
// the fund's own rows.
func (s *Server) fundName(symbol string) string {
	if n := s.names[symbol]; n != "" {
		return n
	}
	rows, err := s.store.ReadRows(symbol)
	if err != nil {
		return ""
	}
	for _, r := range rows {
		if r.Name != "" {
			return r.Name
		}
	}
	return ""
}

// loadFund answers 404 for unknown funds and 500 for unreadable files.
func (s *Server) loadFund(c *gin.Context) (*market.FundHistory, bool) {
	sym := symbolParam(c)
	h, err := s.store.Load(sym)
	switch {
	case errors.Is(err, store.ErrMissingHistory):
		errorBody(c, http.StatusNotFound, "FUND_NOT_FOUND", "no history for "+sym)
		return nil, false
	case err != nil:
		s.logger.Printf("api: load %s: %v", sym, err)
		errorBody(c, http.StatusInternalServerError, "HISTORY_UNREADABLE", err.Error())
		return nil, false
	}
	return h, true
}

func (s *Server) listFunds(c *gin.Context) {
	all, err := s.store.LoadAll()
	if err != nil {
		errorBody(c, http.StatusInternalServerError, "STORE_UNAVAILABLE", err.Error())
		return
	}
	syms := make([]string, 0, len(all))
	for sym := range all {
		syms = append(syms, sym)
	}
	sort.Strings(syms)

	out := make([]fundInfo, 0, len(syms))
	for _, sym := range syms {
		h := all[sym]
		info := fundInfo{Symbol: sym, Name: s.fundName(sym), Days: h.Len()}
		if latest, ok := h.Latest(); ok {
			info.LatestDate = market.FormatDate(latest.Date)
			info.LatestPrice = latest.Price
		}
		out = append(out, info)
	}
	c.JSON(http.StatusOK, out)
}

// fundHistory serves ?period= filtered prices, plus simple and exponential
// moving average series when ?ma= or ?ema= is given.
func (s *Server) fundHistory(c *gin.Context) {
	period := market.Period(c.DefaultQuery("period", string(market.PeriodAll)))
	if _, _, err := market.PeriodStart(period, s.now()); err != nil {
		errorBody(c, http.StatusBadRequest, "INVALID_PERIOD", err.Error())
		return
	}

	maPeriod, ok := positiveQuery(c, "ma", "INVALID_MA")
	if !ok {
		return
	}
	emaPeriod, ok := positiveQuery(c, "ema", "INVALID_EMA")
	if !ok {
		return
	}

	h, ok := s.loadFund(c)
	if !ok {
		return
	}
	recs, _ := h.Filter(period, s.now())

	prices := make([]pricePoint, 0, len(recs))
	for _, r := range recs {
		prices = append(prices, toPoint(r))
	}
	resp := gin.H{
		"symbol": h.Symbol(),
		"period": period,
		"prices": prices,
	}
	if maPeriod > 0 {
		sma, _ := indicators.SMASeries(recs, maPeriod)
		if sma == nil {
			sma = []indicators.Point{}
		}
		resp["sma"] = sma
	}
	if emaPeriod > 0 {
		ema, _ := indicators.EMASeries(recs, emaPeriod)
		if ema == nil {
			ema = []indicators.Point{}
		}
		resp["ema"] = ema
	}
	c.JSON(http.StatusOK, resp)
}

// positiveQuery reads an optional positive integer query parameter. It
// writes a 400 and returns false when the value is malformed.
func positiveQuery(c *gin.Context, key, code string) (int, bool) {
	v := c.Query(key)
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		errorBody(c, http.StatusBadRequest, code, key+" must be a positive integer")
		return 0, false
	}
	return n, true
}

func (s *Server) fundPrice(c *gin.Context) {
	h, ok := s.loadFund(c)
	if !ok {
		return
	}
	latest, ok := h.Latest()
	if !ok {
		errorBody(c, http.StatusNotFound, "NO_PRICES", "no prices for "+h.Symbol())
		return
	}
	p := toPoint(latest)
	c.JSON(http.StatusOK, gin.H{"symbol": h.Symbol(), "date": p.Date, "price": p.Price})
}

// fundRSI computes the RSI as of ?date= (default: the newest day on file).
func (s *Server) fundRSI(c *gin.Context) {
	period := defaultRSIPeriod
	if v := c.Query("period"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			errorBody(c, http.StatusBadRequest, "INVALID_PERIOD", "period must be a positive integer")
			return
		}
		period = n
	}

	h, ok := s.loadFund(c)
	if !ok {
		return
	}

	var asOf market.PriceRecord
	if v := c.Query("date"); v != "" {
		d, err := market.ParseDate(v)
		if err != nil {
			errorBody(c, http.StatusBadRequest, "INVALID_DATE", err.Error())
			return
		}
		asOf.Date = d
	} else if asOf, ok = h.Latest(); !ok {
		errorBody(c, http.StatusNotFound, "NO_PRICES", "no prices for "+h.Symbol())
		return
	}

	rsi, err := indicators.RSI(h, asOf.Date, period)
	if err != nil {
		errorBody(c, http.StatusUnprocessableEntity, "INSUFFICIENT_DATA", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"symbol": h.Symbol(),
		"date":   market.FormatDate(asOf.Date),
		"period": period,
		"rsi":    rsi,
	})
}

// latestPrices maps every fund with data to its newest price.
func (s *Server) latestPrices(c *gin.Context) {
	all, err := s.store.LoadAll()
	if err != nil {
		errorBody(c, http.StatusInternalServerError, "STORE_UNAVAILABLE", err.Error())
		return
	}
	out := make(map[string]pricePoint, len(all))
	for sym, h := range all {
		if latest, ok := h.Latest(); ok {
			out[sym] = toPoint(latest)
		}
	}
	c.JSON(http.StatusOK, out)
}
