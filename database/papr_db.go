package database

import (
	"context"
	"fmt"
	"os"

	"github.com/go-resty/resty/v2"
	"github.com/pdfchat/pdfchat-be/config"
	"github.com/pdfchat/pdfchat-be/types"
)

// PaprStore implements MemoryStore against the Papr memory REST API.
type PaprStore struct {
	client *resty.Client
}

type paprAddRequest struct {
	Content  string            `json:"content"`
	Type     string            `json:"type"`
	Metadata map[string]any    `json:"metadata,omitempty"`
	Context  []paprContextItem `json:"context,omitempty"`
}

type paprContextItem struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type paprAddResponse struct {
	Code  int    `json:"code"`
	Error string `json:"error,omitempty"`
	Data  []struct {
		MemoryID string `json:"memoryId"`
	} `json:"data"`
}

type paprSearchRequest struct {
	Query    string         `json:"query"`
	MaxNodes int            `json:"max_memories,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type paprSearchResponse struct {
	Code  int    `json:"code"`
	Error string `json:"error,omitempty"`
	Data  struct {
		Memories []struct {
			ID       string         `json:"memoryId"`
			Content  string         `json:"content"`
			Score    float64        `json:"score"`
			Metadata map[string]any `json:"metadata"`
		} `json:"memories"`
	} `json:"data"`
}

type paprDeleteResponse struct {
	Code  int    `json:"code"`
	Error string `json:"error,omitempty"`
}

func NewPaprStore(cfg config.PaprStoreConfig) *PaprStore {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("PAPR_API_KEY")
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-API-Key", apiKey).
		SetHeader("Accept-Encoding", "gzip")
	return &PaprStore{client: client}
}

func (s *PaprStore) AddMemory(ctx context.Context, item *types.MemoryItem) (string, error) {
	req := paprAddRequest{
		Content: item.Content,
		Type:    "text",
		Metadata: map[string]any{
			"external_user_id": item.ExternalUserID,
			"filename":         item.Filename,
			"document_id":      item.DocumentID,
			"chunk_index":      item.ChunkIndex,
			"total_chunks":     item.TotalChunks,
			"title":            item.Annotation.Title,
			"summary":          item.Annotation.Summary,
			"keywords":         item.Annotation.Keywords,
			"entities":         item.Annotation.Entities,
			"topics":           item.Annotation.TopicTags,
			"content_type":     item.Annotation.ContentType,
			"language":         item.Annotation.Language,
			"complexity":       item.Annotation.ComplexityLevel,
			"enhanced":         item.Annotation.Enhanced,
			"created_at":       item.Annotation.CreatedAt,
		},
	}

	var out paprAddResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/v1/memory")
	if err != nil {
		return "", fmt.Errorf("papr add memory: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("papr add memory: status %d: %s", resp.StatusCode(), resp.String())
	}
	if out.Error != "" {
		return "", fmt.Errorf("papr add memory: %s", out.Error)
	}
	if len(out.Data) == 0 {
		return "", fmt.Errorf("papr add memory: empty response")
	}
	return out.Data[0].MemoryID, nil
}

func (s *PaprStore) SearchMemories(ctx context.Context, query string, filter types.MemoryFilter, limit int) ([]types.Memory, error) {
	req := paprSearchRequest{
		Query:    query,
		MaxNodes: limit,
	}
	metadata := map[string]any{}
	if filter.ExternalUserID != "" {
		metadata["external_user_id"] = filter.ExternalUserID
	}
	if filter.DocumentID != "" {
		metadata["document_id"] = filter.DocumentID
	}
	if len(metadata) > 0 {
		req.Metadata = metadata
	}

	var out paprSearchResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/v1/memory/search")
	if err != nil {
		return nil, fmt.Errorf("papr search: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("papr search: status %d: %s", resp.StatusCode(), resp.String())
	}
	if out.Error != "" {
		return nil, fmt.Errorf("papr search: %s", out.Error)
	}

	var memories []types.Memory
	for _, m := range out.Data.Memories {
		memory := types.Memory{
			ID:      m.ID,
			Content: m.Content,
			Score:   m.Score,
		}
		if m.Metadata != nil {
			memory.Filename = asString(m.Metadata["filename"])
			memory.DocumentID = asString(m.Metadata["document_id"])
			memory.ChunkIndex = asInt(m.Metadata["chunk_index"])
			memory.TotalChunks = asInt(m.Metadata["total_chunks"])
			memory.Title = asString(m.Metadata["title"])
			memory.Summary = asString(m.Metadata["summary"])
		}
		memories = append(memories, memory)
	}
	return memories, nil
}

func (s *PaprStore) DeleteMemory(ctx context.Context, id string) error {
	var out paprDeleteResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetResult(&out).
		Delete("/v1/memory/" + id)
	if err != nil {
		return fmt.Errorf("papr delete memory: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("papr delete memory: status %d: %s", resp.StatusCode(), resp.String())
	}
	if out.Error != "" {
		return fmt.Errorf("papr delete memory: %s", out.Error)
	}
	return nil
}

func (s *PaprStore) Ready(ctx context.Context) error {
	resp, err := s.client.R().
		SetContext(ctx).
		Get("/v1/health")
	if err != nil {
		return fmt.Errorf("papr health: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("papr health: status %d", resp.StatusCode())
	}
	return nil
}
