// Package fields runs the heuristic cascade that turns document text into a
// booking draft: date, amount with net/gross disambiguation, VAT rate and
// amount with cross-inference, currency, payment status, account suggestion.
package fields

import (
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/booking-drafts/constants"
	"github.com/joseph-ayodele/booking-drafts/internal/entity"
	"github.com/joseph-ayodele/booking-drafts/internal/layout"
	"github.com/joseph-ayodele/booking-drafts/internal/numfmt"
)

var hundred = decimal.NewFromInt(100)

type Config struct {
	DefaultCurrency string           // default "CHF"
	Now             func() time.Time // draft date fallback, default time.Now
}

type Engine struct {
	cfg    Config
	logger *slog.Logger
}

func NewEngine(cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = "CHF"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Engine{cfg: cfg, logger: logger}
}

// FromText is the plain-text entry point, used for OCR output and text-only
// mail bodies.
func (e *Engine) FromText(text, filename string) *entity.BookingDraft {
	return e.extract(text, filename, nil)
}

// FromFragments is the coordinate-aware entry point. Reconstructed lines are
// pre-scanned for layout-anchored net/gross totals, which are more reliable
// than undifferentiated text scraping; the plain-text cascade fills in the
// rest.
func (e *Engine) FromFragments(frags []layout.Fragment, filename string) *entity.BookingDraft {
	lines := layout.Lines(frags)
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		parts = append(parts, l.Text)
	}
	text := strings.Join(parts, "\n")
	hint := scanLayout(parts)
	return e.extract(text, filename, hint)
}

// layoutHint carries totals anchored to reconstructed lines.
type layoutHint struct {
	Gross *decimal.Decimal
	Net   *decimal.Decimal
}

// scanLayout picks the largest plausible gross figure and a distinct net
// figure from keyword-flagged lines.
func scanLayout(lines []string) *layoutHint {
	hint := &layoutHint{}
	for _, line := range lines {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "netto") {
			if v, ok := lastAmountToken(line); ok {
				if hint.Net == nil || v.GreaterThan(*hint.Net) {
					hint.Net = &v
				}
			}
			continue
		}
		for _, kw := range grossLineKeywords {
			if strings.Contains(lower, kw) {
				if v, ok := lastAmountToken(line); ok {
					if hint.Gross == nil || v.GreaterThan(*hint.Gross) {
						hint.Gross = &v
					}
				}
				break
			}
		}
	}
	if hint.Gross == nil && hint.Net == nil {
		return nil
	}
	return hint
}

func (e *Engine) extract(text, filename string, hint *layoutHint) *entity.BookingDraft {
	lower := strings.ToLower(text)
	lines := strings.Split(text, "\n")

	draft := &entity.BookingDraft{
		ID:            uuid.New(),
		Date:          e.detectDate(text),
		Currency:      e.detectCurrency(text),
		Amount:        decimal.Zero,
		PaymentStatus: detectPaymentStatus(lower),
	}

	amount := e.detectAmount(lines, lower)
	amountIsNet := false
	if hint != nil {
		// layout-anchored totals win over the text cascade
		switch {
		case hint.Gross != nil:
			amount = *hint.Gross
		case hint.Net != nil:
			amount, amountIsNet = *hint.Net, true
		}
	}
	draft.Amount = amount

	draft.VATRate = detectVATRate(text)
	draft.VATAmount = detectVATAmount(lines)

	e.resolveVAT(draft, hint, lower, amountIsNet)

	rule := constants.ClassifyAccount(text)
	draft.DebitAccount = rule.Debit
	draft.Category = rule.Category
	draft.CreditAccount = constants.AccountPayables
	if draft.PaymentStatus == constants.PaymentPaid {
		draft.CreditAccount = constants.AccountBank
	}

	draft.Description = detectDescription(text, filename)

	e.logger.Debug("fields.extract.ok",
		"amount", draft.Amount,
		"currency", draft.Currency,
		"vat_rate", draft.VATRate,
		"status", draft.PaymentStatus,
		"account", draft.DebitAccount,
	)
	return draft
}

// resolveVAT reconciles rate and amount. When the amount is absent but a rate
// is known, exactly one of the two is inferred from the other, keyed off the
// detected net/gross flag; never both independently.
func (e *Engine) resolveVAT(draft *entity.BookingDraft, hint *layoutHint, lower string, amountIsNet bool) {
	if draft.VATAmount == nil && hint != nil && hint.Gross != nil && hint.Net != nil {
		// both totals observed: the difference is the tax
		diff := hint.Gross.Sub(*hint.Net)
		if diff.IsPositive() {
			draft.VATAmount = &diff
			if draft.VATRate.IsZero() && hint.Net.IsPositive() {
				draft.VATRate = diff.Div(*hint.Net).Mul(hundred).Round(1)
			}
			return
		}
	}

	if draft.VATAmount != nil || !draft.VATRate.IsPositive() || !draft.Amount.IsPositive() {
		return
	}

	// a single "netto" token anywhere flips interpretation for the whole draft
	net := amountIsNet || strings.Contains(lower, "netto")
	var vat decimal.Decimal
	if net {
		vat = draft.Amount.Mul(draft.VATRate).Div(hundred).Round(2)
	} else {
		vat = draft.Amount.Mul(draft.VATRate).Div(hundred.Add(draft.VATRate)).Round(2)
	}
	draft.VATAmount = &vat
}

func (e *Engine) detectDate(text string) time.Time {
	for _, m := range reDate.FindAllString(text, -1) {
		if d, err := time.Parse("02.01.2006", m); err == nil {
			return d
		}
	}
	return e.cfg.Now()
}

func (e *Engine) detectCurrency(text string) string {
	upper := strings.ToUpper(text)
	for _, rule := range currencyRules {
		for _, kw := range rule.Keywords {
			if len(kw) == 3 && kw == strings.ToUpper(kw) {
				if strings.Contains(upper, kw) {
					return rule.Code
				}
				continue
			}
			if strings.Contains(text, kw) {
				return rule.Code
			}
		}
	}
	return e.cfg.DefaultCurrency
}

// detectAmount runs the labeled-total cascade, then falls back to the largest
// decimal-looking token in the whole text. The fallback assumes the invoice
// total is the largest monetary figure present; that is a documented
// heuristic, not a guarantee.
func (e *Engine) detectAmount(lines []string, lower string) decimal.Decimal {
	for _, label := range amountLabels {
		for _, line := range lines {
			ll := strings.ToLower(line)
			idx := strings.Index(ll, label)
			if idx < 0 {
				continue
			}
			if v, ok := amountTokenAfter(line, idx+len(label)); ok {
				return v
			}
		}
	}
	for _, line := range lines {
		if loc := reInvoiceTotal.FindStringIndex(line); loc != nil {
			if v, ok := amountTokenAfter(line, loc[1]); ok {
				return v
			}
		}
	}

	// fallback: max decimal token >= 1 anywhere
	max := decimal.Zero
	one := decimal.NewFromInt(1)
	for _, tok := range reNumericToken.FindAllString(lower, -1) {
		v := numfmt.ParseAmount(tok)
		if v.GreaterThanOrEqual(one) && v.GreaterThan(max) {
			max = v
		}
	}
	return max
}

func detectVATRate(text string) decimal.Decimal {
	if m := reVATRate.FindStringSubmatch(text); m != nil {
		return numfmt.ParseAmount(m[1])
	}
	return decimal.Zero
}

// detectVATAmount runs the labeled per-line cascade, then a last resort: a
// line carrying both a VAT keyword and a percent sign yields its last numeric
// token.
func detectVATAmount(lines []string) *decimal.Decimal {
	for _, re := range vatAmountPatterns {
		for _, line := range lines {
			// "inkl. MwSt" states inclusion next to a total, not a tax amount
			if strings.Contains(strings.ToLower(line), "inkl") {
				continue
			}
			loc := re.FindStringIndex(line)
			if loc == nil {
				continue
			}
			if v, ok := firstPlainAmountToken(line[loc[1]:]); ok {
				return &v
			}
		}
	}
	for _, line := range lines {
		lower := strings.ToLower(line)
		if !strings.Contains(line, "%") {
			continue
		}
		for _, kw := range vatKeywords {
			if strings.Contains(lower, kw) {
				if v, ok := lastPlainAmountToken(line); ok {
					return &v
				}
				break
			}
		}
	}
	return nil
}

func detectPaymentStatus(lower string) constants.PaymentStatus {
	for _, phrase := range paidPhrases {
		if strings.Contains(lower, phrase) {
			return constants.PaymentPaid
		}
	}
	if reZeroOpen.MatchString(lower) {
		return constants.PaymentPaid
	}
	return constants.PaymentOpen
}

func detectDescription(text, filename string) string {
	if m := reInvoiceNo.FindStringSubmatch(text); m != nil {
		return "Rechnung " + m[1]
	}
	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	if stem == "" || stem == "." {
		return "Rechnung"
	}
	return "Rechnung " + stem
}

// amountTokenAfter returns the first positive numeric token at or after pos,
// falling back to the last token on the line.
func amountTokenAfter(line string, pos int) (decimal.Decimal, bool) {
	if pos < len(line) {
		if loc := reNumericToken.FindStringIndex(line[pos:]); loc != nil {
			if v := numfmt.ParseAmount(line[pos:][loc[0]:loc[1]]); v.IsPositive() {
				return v, true
			}
		}
	}
	return lastAmountToken(line)
}

// lastAmountToken returns the last positive numeric token on the line.
func lastAmountToken(line string) (decimal.Decimal, bool) {
	toks := reNumericToken.FindAllString(line, -1)
	for i := len(toks) - 1; i >= 0; i-- {
		if v := numfmt.ParseAmount(toks[i]); v.IsPositive() {
			return v, true
		}
	}
	return decimal.Zero, false
}

// lastPlainAmountToken returns the last positive numeric token on the line
// that is not followed by a percent sign.
func lastPlainAmountToken(line string) (decimal.Decimal, bool) {
	locs := reNumericToken.FindAllStringIndex(line, -1)
	for i := len(locs) - 1; i >= 0; i-- {
		rest := strings.TrimLeft(line[locs[i][1]:], " ")
		if strings.HasPrefix(rest, "%") {
			continue
		}
		if v := numfmt.ParseAmount(line[locs[i][0]:locs[i][1]]); v.IsPositive() {
			return v, true
		}
	}
	return decimal.Zero, false
}

// firstPlainAmountToken returns the first positive numeric token in s that is
// not followed by a percent sign, so a labeled VAT line does not hand back
// its rate.
func firstPlainAmountToken(s string) (decimal.Decimal, bool) {
	for _, loc := range reNumericToken.FindAllStringIndex(s, -1) {
		rest := strings.TrimLeft(s[loc[1]:], " ")
		if strings.HasPrefix(rest, "%") {
			continue
		}
		if v := numfmt.ParseAmount(s[loc[0]:loc[1]]); v.IsPositive() {
			return v, true
		}
	}
	return decimal.Zero, false
}
