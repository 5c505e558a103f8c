package entity

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	errs "github.com/vendtrack/vending-core/internal/domain/error"
)

// DefaultCurrency is the currency assumed when a caller does not supply one
const DefaultCurrency = "UZS"

// MoneyScale is the number of decimal places amounts are stored with
const MoneyScale = 2

// ParseAmount validates and parses a string amount into a non-negative
// decimal with at most two fractional digits.
func ParseAmount(amount string) (decimal.Decimal, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return decimal.Zero, fmt.Errorf("%w: empty value", errs.ErrInvalidAmount)
	}

	d, err := decimal.NewFromString(amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s", errs.ErrInvalidAmount, amount)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: must not be negative", errs.ErrInvalidAmount)
	}
	if d.Exponent() < -MoneyScale {
		return decimal.Zero, fmt.Errorf("%w: maximum %d decimal places allowed", errs.ErrInvalidAmount, MoneyScale)
	}
	return d, nil
}

// FormatAmount renders a decimal with the fixed money scale, e.g. "13000.00"
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(MoneyScale)
}
