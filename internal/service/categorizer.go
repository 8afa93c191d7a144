package service

import (
	"fmt"
	"strings"

	"github.com/spec-kit/ticket-triage/internal/domain"
)

// Classification is the categorizer's verdict for a problem description.
type Classification struct {
	Category   string
	Confidence float64
	Reasoning  string
}

// Categorizer assigns a category to a problem description.
type Categorizer interface {
	Categorize(problem string) Classification
}

type keywordRule struct {
	category string
	keywords []string
}

// Rules are checked in order; the first category with a matching keyword wins.
var keywordRules = []keywordRule{
	{domain.CategoryBooking, []string{"booking", "reservation", "cancel", "modify"}},
	{domain.CategoryPayment, []string{"payment", "billing", "charge", "refund"}},
	{domain.CategoryProperty, []string{"property", "room", "clean", "amenity"}},
	{domain.CategoryHost, []string{"host", "owner", "communication"}},
}

// KeywordCategorizer classifies by keyword lookup and falls back to technical.
type KeywordCategorizer struct{}

// Categorize implements Categorizer.
func (KeywordCategorizer) Categorize(problem string) Classification {
	lower := strings.ToLower(problem)
	for _, rule := range keywordRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return Classification{
					Category:   rule.category,
					Confidence: 0.85,
					Reasoning:  fmt.Sprintf("Categorized as %s based on keyword %q", rule.category, kw),
				}
			}
		}
	}
	return Classification{
		Category:   domain.CategoryTechnical,
		Confidence: 0.5,
		Reasoning:  "No category keywords found; defaulted to technical",
	}
}

// SuggestedSolution is the acknowledgement sent with a freshly classified ticket.
func SuggestedSolution(category string) string {
	label, ok := domain.CategoryLabels[category]
	if !ok {
		label = domain.CategoryLabels[domain.CategoryTechnical]
	}
	return fmt.Sprintf("Thank you for contacting us about your %s. We will review your request and get back to you within 24 hours.", strings.ToLower(label))
}
