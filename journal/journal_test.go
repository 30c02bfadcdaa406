package journal

import (
	"time"

	"github.com/shopspring/decimal"
)

func sampleTrade() TradeRecord {
	return TradeRecord{
		TradeID:   "01HZX3T1ABCDEFGHJKMNPQRSTV",
		RunID:     "RUN1",
		Symbol:    "AFT",
		Side:      SideBuy,
		Date:      time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Shares:    10,
		Price:     decimal.RequireFromString("100.123456"),
		Amount:    decimal.RequireFromString("1001.23456"),
		CashAfter: decimal.RequireFromString("8998.76544"),
		Reason:    "predicted 101.50 > price",
	}
}

func sampleResult() ResultRecord {
	return ResultRecord{
		RunID:        "RUN1",
		Created:      time.Date(2024, 4, 1, 9, 30, 0, 0, time.UTC),
		Strategy:     "predictor",
		Symbol:       "AFT",
		Start:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:          time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		StartingCash: decimal.NewFromInt(1000),
		EndingCash:   decimal.NewFromInt(1500),
		GainLoss:     decimal.NewFromInt(500),
		GainLossPct:  decimal.NewFromInt(50),
		Trades:       2,
	}
}
