// File path: internal/docai/classifier.go
package docai

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/docflow-io/docflow/internal/common"
	"github.com/docflow-io/docflow/internal/llm"
)

// Categories enumerated in the refinement prompt. "Other" is the catch-all
// the model is told to use when nothing fits.
var Categories = []string{
	"Sales Contract",
	"Invoices",
	"Tax",
	"Financial Report",
	"Employment Contract",
	"PII",
	"Other",
}

// Classification is a single model verdict about one document.
type Classification struct {
	Category   string
	Confidence float64
	Reasoning  string
}

// Classifier produces the two model verdicts the categorization engine
// consumes: a fast initial classification and a slower refinement that
// sees the initial verdict.
type Classifier interface {
	Classify(ctx context.Context, fileID, fileName string) (*Classification, error)
	Refine(ctx context.Context, fileID, fileName string, initial *Classification) (*Classification, error)
}

// LLMClassifier implements Classifier over a chat provider.
type LLMClassifier struct {
	provider llm.Provider
}

// NewLLMClassifier wraps provider as a document classifier.
func NewLLMClassifier(provider llm.Provider) *LLMClassifier {
	return &LLMClassifier{provider: provider}
}

const classifySystemPrompt = `You are a document classification assistant. ` +
	`Classify the document into exactly one category and estimate your confidence. ` +
	`Reply with three lines:
Category: <category>
Confidence: <0.0-1.0>
Reasoning: <one sentence>`

// Classify asks the model for an initial verdict based on document
// metadata.
func (c *LLMClassifier) Classify(ctx context.Context, fileID, fileName string) (*Classification, error) {
	user := fmt.Sprintf("Classify this document.\nFile name: %s\nFile id: %s\nCategories: %s",
		fileName, fileID, strings.Join(Categories, ", "))
	reply, err := c.provider.Chat(ctx, []llm.Message{
		{Role: "system", Content: classifySystemPrompt},
		{Role: "user", Content: user},
	})
	if err != nil {
		return nil, fmt.Errorf("docai: classify %s: %w", fileID, err)
	}
	result := ParseReply(reply, "Other")
	common.Logger().Debug("docai: initial classification",
		"file_id", fileID, "category", result.Category, "confidence", result.Confidence)
	return result, nil
}

// Refine asks the model to re-examine the document knowing the initial
// verdict. Used only when the first stage lands below the confidence
// threshold.
func (c *LLMClassifier) Refine(ctx context.Context, fileID, fileName string, initial *Classification) (*Classification, error) {
	user := fmt.Sprintf(
		"Re-examine this document classification.\nFile name: %s\nFile id: %s\nFile type: %s\n"+
			"Initial category: %s (confidence %.2f)\n"+
			"Valid categories: %s\n"+
			"Confirm or correct the category and justify your confidence.",
		fileName, fileID, strings.TrimPrefix(filepath.Ext(fileName), "."),
		initial.Category, initial.Confidence,
		strings.Join(Categories, ", "))
	reply, err := c.provider.Chat(ctx, []llm.Message{
		{Role: "system", Content: classifySystemPrompt},
		{Role: "user", Content: user},
	})
	if err != nil {
		return nil, fmt.Errorf("docai: refine %s: %w", fileID, err)
	}
	result := ParseReply(reply, initial.Category)
	common.Logger().Debug("docai: refined classification",
		"file_id", fileID, "category", result.Category, "confidence", result.Confidence)
	return result, nil
}
