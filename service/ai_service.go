package service

import (
	"context"

	"github.com/pdfchat/pdfchat-be/types"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// AIService abstracts the chat LLM provider. Registered functions become
// tools the model may call during a conversation.
type AIService interface {
	Chat(ctx context.Context, messages []types.Message) (*types.Message, error)
	ChatStream(ctx context.Context, messages []types.Message, handler types.StreamHandler) error
	RegisterFunctionCall(name, description string, params jsonschema.Definition, handler types.FunctionHandler)
}
