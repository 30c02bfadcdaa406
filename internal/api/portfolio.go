package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rustyeddy/fundtrader/ledger"
	"github.com/rustyeddy/fundtrader/market"
)

type transactionRequest struct {
	Symbol   string        `json:"symbol" binding:"required"`
	Date     string        `json:"date" binding:"required"`
	Type     ledger.TxType `json:"type" binding:"required"`
	Quantity float64       `json:"quantity" binding:"required"`
}

func (s *Server) listTransactions(c *gin.Context) {
	s.ledgerMu.RLock()
	txs := s.ledger.Transactions()
	s.ledgerMu.RUnlock()

	c.JSON(http.StatusOK, txs)
}

func (s *Server) addTransaction(c *gin.Context) {
	var req transactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorBody(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	date, err := market.ParseDate(req.Date)
	if err != nil {
		errorBody(c, http.StatusBadRequest, "INVALID_DATE", err.Error())
		return
	}

	s.ledgerMu.Lock()
	tx, err := s.ledger.Add(req.Symbol, date, req.Type, req.Quantity)
	s.ledgerMu.Unlock()

	switch {
	case errors.Is(err, ledger.ErrInsufficientHoldings):
		errorBody(c, http.StatusConflict, "INSUFFICIENT_HOLDINGS", err.Error())
		return
	case err != nil:
		errorBody(c, http.StatusBadRequest, "INVALID_TRANSACTION", err.Error())
		return
	}
	c.JSON(http.StatusCreated, tx)
}

func (s *Server) portfolioSummary(c *gin.Context) {
	all, err := s.store.LoadAll()
	if err != nil {
		errorBody(c, http.StatusInternalServerError, "STORE_UNAVAILABLE", err.Error())
		return
	}

	s.ledgerMu.RLock()
	defer s.ledgerMu.RUnlock()

	names := make(map[string]string)
	for sym := range s.ledger.Holdings() {
		names[sym] = s.fundName(sym)
	}
	c.JSON(http.StatusOK, s.ledger.Summarize(all, names, s.now()))
}
