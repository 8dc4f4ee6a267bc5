package ai

import (
	"context"
	"fmt"
	"log"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/Danish137/Digital-twin/internal/config"
	"github.com/Danish137/Digital-twin/internal/model/chat"
	"github.com/Danish137/Digital-twin/internal/model/persona"
)

// Service produces assistant replies for the digital twin. It wraps a single
// completion call; no retries, no streaming.
type Service struct {
	chain        compose.Runnable[map[string]any, *schema.Message]
	systemPrompt string
}

// NewService compiles the chat chain once against the configured model.
func NewService(ctx context.Context, personas persona.Store, cfg config.ChatConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{
		chain:        runnable,
		systemPrompt: BuildSystemPrompt(personas),
	}, nil
}

// SystemPrompt returns the persona prompt that seeds every session.
func (s *Service) SystemPrompt() string {
	return s.systemPrompt
}

// Reply generates the next assistant message for the given conversation.
// turns is the full session history in order; its last element must be the
// pending user turn.
func (s *Service) Reply(ctx context.Context, turns []chat.Turn) (string, error) {
	if len(turns) == 0 {
		return "", fmt.Errorf("conversation history is empty")
	}

	last := turns[len(turns)-1]
	if last.Role != chat.RoleUser {
		return "", fmt.Errorf("last turn must be a user turn, got %s", last.Role)
	}

	response, err := s.chain.Invoke(ctx, s.buildChainInput(turns, last.Text))
	if err != nil {
		return "", fmt.Errorf("failed to run chat chain: %w", err)
	}

	log.Printf("[ai] generated reply, length=%d", len(response.Content))
	return response.Content, nil
}

func (s *Service) buildChainInput(turns []chat.Turn, query string) map[string]any {
	system := s.systemPrompt
	history := turns[:len(turns)-1]

	if len(history) > 0 && history[0].Role == chat.RoleSystem {
		system = history[0].Text
		history = history[1:]
	}

	messages := make([]*schema.Message, 0, len(history))
	for _, turn := range history {
		switch turn.Role {
		case chat.RoleUser:
			messages = append(messages, schema.UserMessage(turn.Text))
		case chat.RoleAssistant:
			messages = append(messages, schema.AssistantMessage(turn.Text, nil))
		}
	}

	return map[string]any{
		"system":  system,
		"history": messages,
		"query":   query,
	}
}
