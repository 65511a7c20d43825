// Package payment builds UPI deep links for manual online payment.
package payment

import (
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

// UPI describes the payee that receives online payments.
type UPI struct {
	ID        string
	PayeeName string
}

// Link returns a upi://pay deep link requesting amount from the customer.
func (u UPI) Link(amount decimal.Decimal) string {
	q := []string{
		"pa=" + escape(u.ID),
		"pn=" + escape(u.PayeeName),
		"am=" + amount.StringFixed(2),
		"tn=" + escape("Order at "+u.PayeeName),
	}
	return "upi://pay?" + strings.Join(q, "&")
}

// escape percent-encodes s with %20 for spaces and a literal '@' in VPAs.
func escape(s string) string {
	s = strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
	return strings.ReplaceAll(s, "%40", "@")
}
