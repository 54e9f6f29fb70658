package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdfchat/pdfchat-be/config"
	"github.com/pdfchat/pdfchat-be/database"
	"github.com/pdfchat/pdfchat-be/repository"
	"github.com/pdfchat/pdfchat-be/types"
	"github.com/sashabaranov/go-openai/jsonschema"
	"github.com/sirupsen/logrus"
)

const (
	defaultChatSources   = 5
	summarySearchLimit   = 8
	sourcePreviewBytes   = 200
	searchMemoryToolName = "search_memory"
	searchMemoryToolDesc = "Search the user's uploaded documents for passages relevant to a query. Returns ranked excerpts with their source filenames."
)

// NewAIService picks the configured chat provider.
func NewAIService(cfg *config.Config) (AIService, error) {
	switch cfg.AIProvider {
	case "openai", "":
		return NewOpenAIService(cfg.AIEndpoint, cfg.OpenAIAPIKey, cfg.Model), nil
	case "gemini":
		return NewGeminiService(cfg.GeminiAPIKeys, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown ai provider: %s", cfg.AIProvider)
	}
}

// ChatService answers questions about uploaded documents by retrieving
// relevant chunks from the memory store and handing them to the AI provider.
type ChatService struct {
	ai        AIService
	store     database.MemoryStore
	documents repository.DocumentRepo
}

type searchMemoryArgs struct {
	Query      string `json:"query"`
	DocumentID string `json:"document_id,omitempty"`
	MaxResults int    `json:"max_results,omitempty"`
}

func NewChatService(ai AIService, store database.MemoryStore, documents repository.DocumentRepo) *ChatService {
	s := &ChatService{
		ai:        ai,
		store:     store,
		documents: documents,
	}
	s.registerSearchMemory()
	return s
}

// registerSearchMemory exposes the memory store to the model as a tool, so
// conversational flows (websocket chat in particular) can retrieve on demand.
func (s *ChatService) registerSearchMemory() {
	params := jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"query": {
				Type:        jsonschema.String,
				Description: "Natural-language search query",
			},
			"document_id": {
				Type:        jsonschema.String,
				Description: "Restrict the search to one document group id",
			},
			"max_results": {
				Type:        jsonschema.Integer,
				Description: "Maximum number of excerpts to return, default 5",
			},
		},
		Required: []string{"query"},
	}
	s.ai.RegisterFunctionCall(searchMemoryToolName, searchMemoryToolDesc, params,
		func(ctx context.Context, args []byte) (any, error) {
			var req searchMemoryArgs
			if err := json.Unmarshal(args, &req); err != nil {
				return nil, fmt.Errorf("decode search_memory args: %w", err)
			}
			limit := req.MaxResults
			if limit <= 0 {
				limit = defaultChatSources
			}
			memories, err := s.store.SearchMemories(ctx, req.Query, types.MemoryFilter{
				ExternalUserID: types.DemoUserID,
				DocumentID:     req.DocumentID,
			}, limit)
			if err != nil {
				return nil, err
			}
			out, err := json.Marshal(formatExcerpts(memories))
			if err != nil {
				return nil, err
			}
			return string(out), nil
		})
}

type excerpt struct {
	Filename string  `json:"filename"`
	Chunk    string  `json:"chunk"`
	Content  string  `json:"content"`
	Score    float64 `json:"score"`
}

func formatExcerpts(memories []types.Memory) []excerpt {
	excerpts := make([]excerpt, 0, len(memories))
	for _, m := range memories {
		excerpts = append(excerpts, excerpt{
			Filename: m.Filename,
			Chunk:    fmt.Sprintf("%d/%d", m.ChunkIndex+1, m.TotalChunks),
			Content:  m.Content,
			Score:    m.Score,
		})
	}
	return excerpts
}

// ChatWithDocuments retrieves the top matching chunks up front, feeds them to
// the model as context and returns the answer together with source previews.
func (s *ChatService) ChatWithDocuments(ctx context.Context, req *types.ChatRequest) (*types.ChatResponse, error) {
	limit := req.MaxSources
	if limit <= 0 {
		limit = defaultChatSources
	}
	memories, err := s.store.SearchMemories(ctx, req.Message, types.MemoryFilter{
		ExternalUserID: types.DemoUserID,
		DocumentID:     req.DocumentID,
	}, limit)
	if err != nil {
		return nil, fmt.Errorf("memory search failed: %w", err)
	}

	var prompt strings.Builder
	if len(memories) > 0 {
		prompt.WriteString("Relevant document excerpts:\n\n")
		for _, m := range memories {
			fmt.Fprintf(&prompt, "[%s, chunk %d/%d]\n%s\n\n",
				m.Filename, m.ChunkIndex+1, m.TotalChunks, m.Content)
		}
	} else {
		prompt.WriteString("No document excerpts matched the question. Say so if you cannot answer from the documents.\n\n")
	}
	prompt.WriteString("Question: ")
	prompt.WriteString(req.Message)

	answer, err := s.ai.Chat(ctx, []types.Message{{Role: "user", Content: prompt.String()}})
	if err != nil {
		return nil, err
	}

	sources := make([]types.Source, 0, len(memories))
	for _, m := range memories {
		sources = append(sources, types.Source{
			MemoryID:       m.ID,
			DocumentID:     m.DocumentID,
			Filename:       m.Filename,
			ChunkIndex:     m.ChunkIndex,
			ContentPreview: preview(m.Content),
			RelevanceScore: m.Score,
		})
	}

	return &types.ChatResponse{
		Response:   answer.Content,
		Sources:    sources,
		DocumentID: req.DocumentID,
	}, nil
}

// GetDocumentSummary summarizes one document from its top-ranked chunks.
func (s *ChatService) GetDocumentSummary(ctx context.Context, documentID string) (*types.SummaryResponse, error) {
	memories, err := s.store.SearchMemories(ctx, "summary overview main topics key points",
		types.MemoryFilter{
			ExternalUserID: types.DemoUserID,
			DocumentID:     documentID,
		}, summarySearchLimit)
	if err != nil {
		return nil, fmt.Errorf("memory search failed: %w", err)
	}
	if len(memories) == 0 {
		return nil, fmt.Errorf("no stored chunks for document %s", documentID)
	}

	filename := memories[0].Filename
	if s.documents != nil {
		if record, err := s.documents.GetDocument(ctx, documentID); err == nil {
			filename = record.Filename
		} else {
			logrus.WithError(err).WithField("document_id", documentID).Debug("registry lookup failed")
		}
	}

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Summarize the document %q from these excerpts. Cover the main topics and key points in a few short paragraphs.\n\n", filename)
	for _, m := range memories {
		fmt.Fprintf(&prompt, "[chunk %d/%d]\n%s\n\n", m.ChunkIndex+1, m.TotalChunks, m.Content)
	}

	answer, err := s.ai.Chat(ctx, []types.Message{{Role: "user", Content: prompt.String()}})
	if err != nil {
		return nil, err
	}

	return &types.SummaryResponse{
		DocumentID:    documentID,
		Filename:      filename,
		Summary:       answer.Content,
		SectionsFound: len(memories),
	}, nil
}

// Search exposes raw semantic search over the demo user's chunks.
func (s *ChatService) Search(ctx context.Context, req *types.SearchRequest) (*types.SearchResponse, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultChatSources
	}
	memories, err := s.store.SearchMemories(ctx, req.Query, types.MemoryFilter{
		ExternalUserID: types.DemoUserID,
		DocumentID:     req.DocumentID,
	}, limit)
	if err != nil {
		return nil, err
	}
	return &types.SearchResponse{
		Memories: memories,
		Count:    len(memories),
	}, nil
}

func preview(content string) string {
	if len(content) <= sourcePreviewBytes {
		return content
	}
	return content[:sourcePreviewBytes] + "..."
}
