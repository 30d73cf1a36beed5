package utils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"xrpl-wallet-bot/internal/domain"
)

const xrpDecimals = 6

// maxXRP is the total XRP supply.
var maxXRP = decimal.New(100_000_000_000, 0)

// plainAmount admits digits with an optional fraction. Exponent notation is
// refused so the decimal never has to be rescaled by a user-chosen power.
var plainAmount = regexp.MustCompile(`^\d+(\.\d+)?$`)

const maxAmountLen = 32

// ParseXRP converts a major-unit amount typed by a user ("9.5") into drops.
// Digits beyond the sixth decimal are truncated; the result must be positive.
func ParseXRP(amountStr string) (domain.Drops, error) {
	amountStr = strings.TrimSpace(amountStr)
	if amountStr == "" {
		return 0, domain.ErrInvalidAmount
	}
	if len(amountStr) > maxAmountLen || !plainAmount.MatchString(amountStr) {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidAmount, amountStr)
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidAmount, amountStr)
	}

	amount = amount.Truncate(xrpDecimals)
	if !amount.IsPositive() || amount.GreaterThan(maxXRP) {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidAmount, amountStr)
	}

	return domain.Drops(amount.Shift(xrpDecimals).IntPart()), nil
}

// FormatXRP renders drops as a major-unit string without trailing zeros.
func FormatXRP(d domain.Drops) string {
	return decimal.New(int64(d), -xrpDecimals).String()
}

// FormatBalance formats drops with the currency code.
func FormatBalance(d domain.Drops) string {
	return FormatXRP(d) + " XRP"
}

// ShortAddress abbreviates an address for list output.
func ShortAddress(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}
