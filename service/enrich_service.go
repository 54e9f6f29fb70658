package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdfchat/pdfchat-be/types"
	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// Enricher produces descriptive metadata for a chunk. Implementations may
// fail; the pipeline substitutes FallbackAnnotation and continues.
type Enricher interface {
	Annotate(ctx context.Context, chunk types.Chunk, filename string) (types.ChunkAnnotation, error)
}

var enrichTimeout = 30 * time.Second

var chunkMetadataSchema = jsonschema.Definition{
	Type: jsonschema.Object,
	Properties: map[string]jsonschema.Definition{
		"title": {
			Type:        jsonschema.String,
			Description: "Short descriptive title for this chunk",
		},
		"summary": {
			Type:        jsonschema.String,
			Description: "One to two sentence summary of the chunk content",
		},
		"keywords": {
			Type:        jsonschema.Array,
			Description: "Up to 8 salient keywords",
			Items:       &jsonschema.Definition{Type: jsonschema.String},
		},
		"entities": {
			Type:        jsonschema.Array,
			Description: "Named entities (people, organizations, places) mentioned",
			Items:       &jsonschema.Definition{Type: jsonschema.String},
		},
		"topic_tags": {
			Type:        jsonschema.Array,
			Description: "Broad topic tags",
			Items:       &jsonschema.Definition{Type: jsonschema.String},
		},
		"content_type": {
			Type:        jsonschema.String,
			Description: "One of: narrative, technical, reference, tabular, legal, other",
		},
		"language": {
			Type:        jsonschema.String,
			Description: "ISO 639-1 language code of the chunk",
		},
		"complexity_level": {
			Type:        jsonschema.String,
			Description: "One of: basic, intermediate, advanced",
		},
		"key_concepts": {
			Type:        jsonschema.Array,
			Description: "Core concepts a reader should take away",
			Items:       &jsonschema.Definition{Type: jsonschema.String},
		},
	},
	Required: []string{"title", "summary", "keywords", "topic_tags", "content_type", "language"},
}

// EnrichService asks an OpenAI-compatible model for structured chunk
// metadata via a forced function call.
type EnrichService struct {
	client *openai.Client
	model  string
	now    func() time.Time
}

func NewEnrichService(baseURL, apiKey, model string) *EnrichService {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &EnrichService{
		client: openai.NewClientWithConfig(config),
		model:  model,
		now:    time.Now,
	}
}

func (s *EnrichService) Annotate(ctx context.Context, chunk types.Chunk, filename string) (types.ChunkAnnotation, error) {
	ctx, cancel := context.WithTimeout(ctx, enrichTimeout)
	defer cancel()

	f := openai.FunctionDefinition{
		Name:        "create_chunk_metadata",
		Description: "Record structured metadata describing a document chunk",
		Parameters:  chunkMetadataSchema,
	}
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You analyze document excerpts and record structured metadata by calling the provided function.",
			},
			{
				Role: openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("Document: %s (chunk %d of %d)\n\n%s",
					filename, chunk.Index+1, chunk.Total, chunk.Content),
			},
		},
		Tools: []openai.Tool{{
			Type:     openai.ToolTypeFunction,
			Function: &f,
		}},
		ToolChoice: openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: f.Name},
		},
	})
	if err != nil {
		return types.ChunkAnnotation{}, err
	}
	if len(resp.Choices) == 0 || len(resp.Choices[0].Message.ToolCalls) == 0 {
		return types.ChunkAnnotation{}, errors.New("no metadata function call in response")
	}

	var annotation types.ChunkAnnotation
	args := resp.Choices[0].Message.ToolCalls[0].Function.Arguments
	if err := json.Unmarshal([]byte(args), &annotation); err != nil {
		return types.ChunkAnnotation{}, fmt.Errorf("decode metadata arguments: %w", err)
	}
	annotation.Enhanced = true
	annotation.CreatedAt = s.now().UTC().Format(time.RFC3339)
	return annotation, nil
}

// FallbackAnnotation builds deterministic metadata when enrichment fails or
// is disabled. Everything except CreatedAt depends only on the filename and
// the chunk's position.
func FallbackAnnotation(filename string, chunkIndex, totalChunks int, now time.Time) types.ChunkAnnotation {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	return types.ChunkAnnotation{
		Title:       fmt.Sprintf("%s - Part %d", base, chunkIndex+1),
		Summary:     fmt.Sprintf("Chunk %d of %d from %s", chunkIndex+1, totalChunks, filename),
		Keywords:    []string{base, "document", "pdf"},
		TopicTags:   []string{"document"},
		ContentType: "document",
		Language:    "en",
		Enhanced:    false,
		CreatedAt:   now.UTC().Format(time.RFC3339),
	}
}
