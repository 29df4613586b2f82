// File path: internal/llm/providers/local.go
package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/docflow-io/docflow/internal/common"
)

// LocalProvider is a deterministic keyword classifier used when no API key
// is configured. It answers in the same Category/Confidence/Reasoning
// format the real models are prompted for, so the rest of the pipeline is
// exercised unchanged.
type LocalProvider struct{}

func NewLocalProvider() *LocalProvider {
	common.Logger().Info("llm: local provider configured")
	return &LocalProvider{}
}

var localRules = []struct {
	keywords   []string
	category   string
	confidence float64
}{
	{[]string{"invoice", "bill", "receipt"}, "Invoices", 0.82},
	{[]string{"contract", "agreement", "nda"}, "Sales Contract", 0.78},
	{[]string{"tax", "w2", "w-2", "1099"}, "Tax", 0.8},
	{[]string{"report", "statement", "balance"}, "Financial Report", 0.72},
	{[]string{"offer", "employment", "salary"}, "Employment Contract", 0.74},
	{[]string{"passport", "ssn", "license"}, "PII", 0.76},
}

func (l *LocalProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("no messages provided")
	}
	last := strings.ToLower(messages[len(messages)-1].Content)
	for _, rule := range localRules {
		for _, kw := range rule.keywords {
			if strings.Contains(last, kw) {
				return fmt.Sprintf("Category: %s\nConfidence: %.2f\nReasoning: matched keyword %q",
					rule.category, rule.confidence, kw), nil
			}
		}
	}
	return "Category: Other\nConfidence: 0.40\nReasoning: no keyword matched", nil
}

func (l *LocalProvider) Name() string {
	return "local"
}
