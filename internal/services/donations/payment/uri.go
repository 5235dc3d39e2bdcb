package payment

import (
	"net/url"
	"strings"
)

// BuildUPIURI renders the upi://pay deep link for amount, already formatted
// in currency units.
func BuildUPIURI(cfg Config, amount string) string {
	var b strings.Builder
	b.WriteString("upi://pay?pa=")
	b.WriteString(cfg.UPIID)
	b.WriteString("&pn=")
	b.WriteString(pathEscape(cfg.PayeeName))
	b.WriteString("&am=")
	b.WriteString(amount)
	b.WriteString("&cu=")
	b.WriteString(cfg.Currency)
	b.WriteString("&tn=Donation")
	return b.String()
}

// pathEscape query-escapes value with spaces as %20, the form UPI apps expect.
func pathEscape(value string) string {
	return strings.ReplaceAll(url.QueryEscape(value), "+", "%20")
}
