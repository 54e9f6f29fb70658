package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdfchat/pdfchat-be/config"
	"github.com/pdfchat/pdfchat-be/types"
	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
)

var (
	CHUNK_CLASS        = "DocumentChunk"
	CHUNK_CLASS_OBJECT = &models.Class{
		Class: CHUNK_CLASS,
		Properties: []*models.Property{
			{Name: "content", DataType: []string{"text"}},
			{Name: "filename", DataType: []string{"text"}},
			{Name: "externalUserId", DataType: []string{"text"}},
			{Name: "documentId", DataType: []string{"text"}},
			{Name: "chunkIndex", DataType: []string{"int"}},
			{Name: "totalChunks", DataType: []string{"int"}},
			{Name: "title", DataType: []string{"text"}},
			{Name: "summary", DataType: []string{"text"}},
			{Name: "keywords", DataType: []string{"text[]"}},
			{Name: "entities", DataType: []string{"text[]"}},
			{Name: "topics", DataType: []string{"text[]"}},
			{Name: "contentType", DataType: []string{"text"}},
			{Name: "language", DataType: []string{"text"}},
			{Name: "complexity", DataType: []string{"text"}},
			{Name: "enhanced", DataType: []string{"boolean"}},
			{Name: "createdAt", DataType: []string{"text"}},
		},
		VectorIndexType: "hnsw",
	}
)

// WeaviateStore implements MemoryStore on a Weaviate cluster.
type WeaviateStore struct {
	client *weaviate.Client
}

func NewWeaviateStore(config config.WeaviateStoreConfig) (*WeaviateStore, error) {
	var scheme string
	if strings.Contains(config.Host, "https") {
		scheme = "https"
	} else {
		scheme = "http"
	}
	host := strings.TrimPrefix(config.Host, scheme+"://")
	cfg := weaviate.Config{
		Host:   host,
		Scheme: scheme,
	}
	if config.APIKey != "" {
		cfg.AuthConfig = auth.ApiKey{
			Value: config.APIKey,
		}
		cfg.Headers = map[string]string{
			"X-Weaviate-Api-Key":     config.APIKey,
			"X-Weaviate-Cluster-Url": fmt.Sprintf("%s://%s", scheme, host),
		}
	}
	CHUNK_CLASS_OBJECT.Vectorizer = config.Text2Vec
	CHUNK_CLASS_OBJECT.ModuleConfig = config.ModuleConfig
	client, err := weaviate.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create weaviate client: %v", err)
	}

	schema, err := client.Schema().Getter().Do(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to get schema: %v", err)
	}

	hasChunkClass := false
	for _, class := range schema.Classes {
		if class.Class == CHUNK_CLASS {
			hasChunkClass = true
			break
		}
	}
	if !hasChunkClass {
		err = client.Schema().ClassCreator().WithClass(CHUNK_CLASS_OBJECT).Do(context.Background())
		if err != nil {
			return nil, fmt.Errorf("failed to create DocumentChunk class: %v", err)
		}
	}
	return &WeaviateStore{
		client: client,
	}, nil
}

// ReInit drops and recreates the chunk class, wiping all stored chunks.
func (s *WeaviateStore) ReInit() error {
	err := s.client.Schema().ClassDeleter().WithClassName(CHUNK_CLASS).Do(context.Background())
	if err != nil {
		return fmt.Errorf("failed to delete DocumentChunk class: %v", err)
	}

	err = s.client.Schema().ClassCreator().WithClass(CHUNK_CLASS_OBJECT).Do(context.Background())
	if err != nil {
		return fmt.Errorf("failed to create DocumentChunk class: %v", err)
	}
	return nil
}

func (s *WeaviateStore) AddMemory(ctx context.Context, item *types.MemoryItem) (string, error) {
	properties := map[string]interface{}{
		"content":        item.Content,
		"filename":       item.Filename,
		"externalUserId": item.ExternalUserID,
		"documentId":     item.DocumentID,
		"chunkIndex":     item.ChunkIndex,
		"totalChunks":    item.TotalChunks,
		"title":          item.Annotation.Title,
		"summary":        item.Annotation.Summary,
		"keywords":       item.Annotation.Keywords,
		"entities":       item.Annotation.Entities,
		"topics":         item.Annotation.TopicTags,
		"contentType":    item.Annotation.ContentType,
		"language":       item.Annotation.Language,
		"complexity":     item.Annotation.ComplexityLevel,
		"enhanced":       item.Annotation.Enhanced,
		"createdAt":      item.Annotation.CreatedAt,
	}

	result, err := s.client.Data().Creator().
		WithClassName(CHUNK_CLASS).
		WithProperties(properties).
		Do(ctx)
	if err != nil {
		return "", err
	}
	return string(result.Object.ID), nil
}

func (s *WeaviateStore) SearchMemories(ctx context.Context, query string, filter types.MemoryFilter, limit int) ([]types.Memory, error) {
	fields := []graphql.Field{
		{Name: "content"},
		{Name: "filename"},
		{Name: "documentId"},
		{Name: "chunkIndex"},
		{Name: "totalChunks"},
		{Name: "title"},
		{Name: "summary"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "distance"}, {Name: "id"}}},
	}

	nearText := s.client.GraphQL().NearTextArgBuilder().
		WithConcepts([]string{query})

	getBuilder := s.client.GraphQL().Get().
		WithClassName(CHUNK_CLASS).
		WithFields(fields...).
		WithNearText(nearText)
	if limit > 0 {
		getBuilder = getBuilder.WithLimit(limit)
	}
	if where := buildChunkFilter(filter); where != nil {
		getBuilder = getBuilder.WithWhere(where)
	}

	result, err := getBuilder.Do(ctx)
	if err != nil {
		return nil, err
	}
	if result.Errors != nil {
		return nil, fmt.Errorf("search failed: %v", result.Errors[0].Message)
	}

	var memories []types.Memory
	if data, ok := result.Data["Get"].(map[string]interface{})[CHUNK_CLASS].([]interface{}); ok {
		for _, item := range data {
			if doc, ok := item.(map[string]interface{}); ok {
				memory := types.Memory{
					Content:     asString(doc["content"]),
					Filename:    asString(doc["filename"]),
					DocumentID:  asString(doc["documentId"]),
					ChunkIndex:  asInt(doc["chunkIndex"]),
					TotalChunks: asInt(doc["totalChunks"]),
					Title:       asString(doc["title"]),
					Summary:     asString(doc["summary"]),
				}
				if additional, ok := doc["_additional"].(map[string]interface{}); ok {
					memory.ID = asString(additional["id"])
					if distance, ok := additional["distance"].(float64); ok {
						memory.Score = 1 - distance
					}
				}
				memories = append(memories, memory)
			}
		}
	}

	return memories, nil
}

func (s *WeaviateStore) DeleteMemory(ctx context.Context, id string) error {
	return s.client.Data().Deleter().
		WithClassName(CHUNK_CLASS).
		WithID(id).
		Do(ctx)
}

func (s *WeaviateStore) Ready(ctx context.Context) error {
	_, err := s.client.Schema().Getter().Do(ctx)
	return err
}

// Helper functions
func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asInt(v interface{}) int {
	f, _ := v.(float64)
	return int(f)
}

func buildChunkFilter(filter types.MemoryFilter) *filters.WhereBuilder {
	var whereFilter *filters.WhereBuilder

	if filter.ExternalUserID != "" {
		whereFilter = filters.Where().
			WithPath([]string{"externalUserId"}).
			WithOperator(filters.Equal).
			WithValueString(filter.ExternalUserID)
	}

	if filter.DocumentID != "" {
		documentFilter := filters.Where().
			WithPath([]string{"documentId"}).
			WithOperator(filters.Equal).
			WithValueString(filter.DocumentID)
		if whereFilter == nil {
			whereFilter = documentFilter
		} else {
			whereFilter = filters.Where().
				WithOperator(filters.And).
				WithOperands([]*filters.WhereBuilder{whereFilter, documentFilter})
		}
	}

	return whereFilter
}
