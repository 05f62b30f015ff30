package fields

import "regexp"

// currencyRule is one step of the currency cascade. Rules are evaluated in
// declaration order because symbols can co-occur (a CHF invoice quoting a EUR
// reference price); the first match wins.
type currencyRule struct {
	Keywords []string // matched verbatim (symbols) or uppercased (codes)
	Code     string
}

var currencyRules = []currencyRule{
	{Keywords: []string{"€", "EUR"}, Code: "EUR"},
	{Keywords: []string{"CHF", "SFr", "Fr."}, Code: "CHF"},
	{Keywords: []string{"USD", "$"}, Code: "USD"},
	{Keywords: []string{"GBP", "£"}, Code: "GBP"},
}

// amountLabels are the labeled-total keywords, in priority order.
var amountLabels = []string{
	"rechnungsbetrag",
	"gesamtbetrag",
	"gesamt",
	"brutto",
	"endbetrag",
	"summe",
}

// grossLineKeywords flag layout-reconstructed lines that carry a gross total.
var grossLineKeywords = []string{
	"brutto",
	"gesamtbetrag",
	"rechnungsbetrag",
	"endbetrag",
	"total",
	"summe",
}

// paidPhrases settle the payment status when present anywhere in the text.
var paidPhrases = []string{
	"bezahlt",
	"paid",
	"zahlung erhalten",
	"betrag erhalten",
	"zahlungseingang",
	"quittung",
}

var (
	reDate         = regexp.MustCompile(`\b(\d{2})\.(\d{2})\.(\d{4})\b`)
	reNumericToken = regexp.MustCompile(`\d+(?:[.,'\x{2019}]\d+)*`)
	reInvoiceTotal = regexp.MustCompile(`(?i)rechnungstotal(?:\s+inkl\.?\s*mw?st\.?)?(?:\s+(?:chf|eur))?`)
	reVATRate      = regexp.MustCompile(`(?i)(?:mwst|ust).{0,2}\s*(\d+(?:[.,]\d+)?)\s*%`)
	reZeroOpen     = regexp.MustCompile(`(?i)offener?\s+betrag\s*(?:chf|eur|usd|gbp)?\s*0[.,]00`)
	reInvoiceNo    = regexp.MustCompile(`(?i)(?:rechnung|invoice)\s*(?:s?-?nr\.?|no\.?|nummer|#)?\s*:?\s*([A-Za-z]*\d[A-Za-z0-9/_-]*)`)
)

// vatAmountPatterns is the labeled VAT-amount cascade, in priority order.
var vatAmountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:mwst|ust)\.?-?\s*betrag`),
	regexp.MustCompile(`(?i)(?:mwst|ust)`),
	regexp.MustCompile(`(?i)umsatzsteuer`),
}

// vatKeywords mark a line as VAT-related for the last-resort scan.
var vatKeywords = []string{"mwst", "ust", "umsatzsteuer", "mehrwertsteuer"}
