package constants

import "strings"

// Fixed counter-accounts for supplier documents.
const (
	AccountPayables = "2000" // Verbindlichkeiten aus Lieferungen und Leistungen
	AccountBank     = "1020" // Bankguthaben, credited when the document is already settled
)

// AccountRule maps document keywords to a suggested expense account.
// Rules are evaluated in declaration order; the first match wins.
type AccountRule struct {
	Keywords []string
	Debit    string
	Category string
}

// AccountRules is the closed classification table, ordered by priority.
// Keep this list short enough to audit by eye.
var AccountRules = []AccountRule{
	{Keywords: []string{"miete", "pacht", "leasing"}, Debit: "6000", Category: "Miete"},
	{Keywords: []string{"transport", "fracht", "versand", "spedition"}, Debit: "6200", Category: "Transport"},
	{Keywords: []string{"software", "lizenz", "saas", "hosting", "domain"}, Debit: "6570", Category: "Informatik"},
	{Keywords: []string{"marketing", "werbung", "inserat", "anzeige"}, Debit: "6600", Category: "Werbung"},
	{Keywords: []string{"versicherung", "prämie", "police"}, Debit: "6300", Category: "Versicherungen"},
	{Keywords: []string{"strom", "wasser", "energie", "heizung", "gas"}, Debit: "6040", Category: "Energie"},
	{Keywords: []string{"beratung", "consulting", "treuhand", "anwalt", "notar"}, Debit: "6530", Category: "Beratung"},
	{Keywords: []string{"waren", "material", "rohstoff"}, Debit: "4200", Category: "Warenaufwand"},
	{Keywords: []string{"lohn", "gehalt", "salär", "personal"}, Debit: "5000", Category: "Personalaufwand"},
	{Keywords: []string{"bankspesen", "kontoführung", "zins"}, Debit: "6940", Category: "Bankspesen"},
}

// DefaultAccountRule is applied when no table entry matches.
var DefaultAccountRule = AccountRule{Debit: "6500", Category: "Bezogene Leistungen"}

// ClassifyAccount walks the rule table against lowercased document text and
// returns the first matching rule, falling back to DefaultAccountRule.
func ClassifyAccount(text string) AccountRule {
	lower := strings.ToLower(text)
	for _, rule := range AccountRules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return rule
			}
		}
	}
	return DefaultAccountRule
}
