package domain

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Economy holds the coin rules the client mirrors for early feedback. The
// backend enforces the same rules authoritatively.
type Economy struct {
	CoinsPerDollar     int
	MinWithdrawalCoins int
	SignupBonus        map[Role]int
}

// DefaultEconomy matches the production marketplace.
func DefaultEconomy() Economy {
	return Economy{
		CoinsPerDollar:     20,
		MinWithdrawalCoins: 200,
		SignupBonus: map[Role]int{
			RoleWorker: 10,
			RoleBuyer:  50,
		},
	}
}

// TaskCost is the coins a buyer commits when posting a task. Products that do
// not fit in an int saturate at math.MaxInt.
func (e Economy) TaskCost(requiredWorkers, payableAmount int) int {
	if requiredWorkers <= 0 || payableAmount <= 0 {
		return 0
	}
	if requiredWorkers > math.MaxInt/payableAmount {
		return math.MaxInt
	}
	return requiredWorkers * payableAmount
}

// affords reports whether balance covers requiredWorkers*payableAmount
// without computing the product.
func affords(requiredWorkers, payableAmount, balance int) bool {
	if requiredWorkers <= 0 || payableAmount <= 0 {
		return true
	}
	if balance < 0 {
		return false
	}
	return requiredWorkers <= balance/payableAmount
}

// CoinsToDollars converts coins at the fixed exchange rate.
func (e Economy) CoinsToDollars(coins int) decimal.Decimal {
	if e.CoinsPerDollar <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(coins)).Div(decimal.NewFromInt(int64(e.CoinsPerDollar))).Round(2)
}

// CanWithdraw reports whether balance is enough to make any withdrawal.
func (e Economy) CanWithdraw(balance int) bool {
	return balance >= e.MinWithdrawalCoins
}

// CheckWithdrawal validates a withdrawal of coins against the cached balance.
func (e Economy) CheckWithdrawal(coins, balance int) error {
	if coins < e.MinWithdrawalCoins {
		return ErrBelowMinimum
	}
	if coins > balance {
		return ErrInsufficientBalance
	}
	return nil
}

// CheckTaskDraft validates cost and deadline of a draft against the cached balance.
func (e Economy) CheckTaskDraft(d TaskDraft, balance int, now time.Time) error {
	if !d.CompletionDate.After(now) {
		return ErrDeadlinePassed
	}
	if !affords(d.RequiredWorkers, d.PayableAmount, balance) {
		return ErrInsufficientBalance
	}
	return nil
}

// BonusFor is the signup bonus granted for role; zero for roles without one.
func (e Economy) BonusFor(role Role) int {
	return e.SignupBonus[role]
}
