// File path: internal/llm/providers/anthropic_client.go
package providers

import (
	"context"
	"fmt"
	"os"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/docflow-io/docflow/internal/common"
)

const anthropicMaxTokens = 1024

type AnthropicProvider struct {
	client anthropic.Client
	model  string
}

func NewAnthropicProvider(client anthropic.Client) *AnthropicProvider {
	model := os.Getenv("ANTHROPIC_MODEL")
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	common.Logger().Info("llm: Anthropic provider configured", "model", model)
	return &AnthropicProvider{client: client, model: model}
}

func (a *AnthropicProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("no messages provided")
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: anthropicMaxTokens,
	}
	for _, msg := range messages {
		switch msg.Role {
		case "system":
			params.System = append(params.System, anthropic.TextBlockParam{Text: msg.Content})
		case "assistant":
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	logger := common.Logger()
	logger.Debug("llm: sending message request", "model", a.model, "messages", len(params.Messages))
	message, err := a.client.Messages.New(ctx, params)
	if err != nil {
		logger.Error("llm: message request failed", "error", err)
		return "", err
	}
	for _, block := range message.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in response")
}

func (a *AnthropicProvider) Name() string {
	return "anthropic"
}
