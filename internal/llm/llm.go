// File path: internal/llm/llm.go
package llm

import (
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
	openai "github.com/openai/openai-go/v2"
	openaiopt "github.com/openai/openai-go/v2/option"

	"github.com/docflow-io/docflow/internal/common"
	"github.com/docflow-io/docflow/internal/llm/providers"
)

type Message = providers.Message

type Provider = providers.Provider

// NewProvider selects a chat backend from the environment. LLM_PROVIDER
// forces a choice; otherwise the first configured API key wins (Anthropic,
// then OpenAI), falling back to the deterministic local classifier.
func NewProvider() Provider {
	logger := common.Logger()
	anthropicKey := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	openaiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))

	switch strings.ToLower(strings.TrimSpace(os.Getenv("LLM_PROVIDER"))) {
	case "anthropic":
		if anthropicKey == "" {
			logger.Warn("llm: LLM_PROVIDER=anthropic but ANTHROPIC_API_KEY not set; using local provider")
			return providers.NewLocalProvider()
		}
		return newAnthropic(anthropicKey)
	case "openai":
		if openaiKey == "" {
			logger.Warn("llm: LLM_PROVIDER=openai but OPENAI_API_KEY not set; using local provider")
			return providers.NewLocalProvider()
		}
		return newOpenAI(openaiKey)
	case "local":
		return providers.NewLocalProvider()
	}

	if anthropicKey != "" {
		return newAnthropic(anthropicKey)
	}
	if openaiKey != "" {
		return newOpenAI(openaiKey)
	}
	logger.Warn("llm: no API key configured; falling back to local provider")
	return providers.NewLocalProvider()
}

func newAnthropic(key string) Provider {
	client := anthropic.NewClient(anthropicopt.WithAPIKey(key))
	common.Logger().Info("llm: Anthropic provider selected")
	return providers.NewAnthropicProvider(client)
}

func newOpenAI(key string) Provider {
	opts := []openaiopt.RequestOption{openaiopt.WithAPIKey(key)}
	if endpoint := strings.TrimSpace(os.Getenv("OPENAI_ENDPOINT")); endpoint != "" {
		common.Logger().Info("llm: configuring OpenAI client with custom endpoint", "endpoint", endpoint)
		opts = append(opts, openaiopt.WithBaseURL(endpoint))
	}
	client := openai.NewClient(opts...)
	common.Logger().Info("llm: OpenAI provider selected")
	return providers.NewOpenAIProvider(&client)
}
