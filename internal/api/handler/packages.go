package handler

import (
	"github.com/shopspring/decimal"

	"github.com/microtask/taskhub/internal/core/domain"
)

// perCoin is the package price per coin with three decimals.
func perCoin(p domain.CoinPackage) string {
	price := decimal.NewFromFloat(p.Price)
	return price.Div(decimal.NewFromInt(int64(p.Coins))).StringFixed(3)
}
