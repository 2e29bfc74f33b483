// Package payment builds UPI deep links the frontend renders as payment
// QR codes. No gateway is involved: the link opens the customer's UPI app
// with the shop's VPA and the amount prefilled.
package payment

import (
	"errors"
	"net/url"

	"github.com/shopspring/decimal"
)

var (
	ErrMissingVPA    = errors.New("payee VPA is required")
	ErrInvalidAmount = errors.New("amount must be positive")
)

// BuildUPILink constructs a upi://pay deep link. The amount is always
// formatted with exactly two decimal places, whether the caller supplied
// "150", "150.5" or "150.50".
func BuildUPILink(vpa, payeeName string, amount decimal.Decimal, note string) (string, error) {
	if vpa == "" {
		return "", ErrMissingVPA
	}
	if !amount.IsPositive() {
		return "", ErrInvalidAmount
	}

	params := url.Values{}
	params.Set("pa", vpa)
	params.Set("pn", payeeName)
	params.Set("am", amount.StringFixed(2))
	params.Set("cu", "INR")
	if note != "" {
		params.Set("tn", note)
	}

	return "upi://pay?" + params.Encode(), nil
}
