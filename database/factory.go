package database

import (
	"fmt"

	"github.com/pdfchat/pdfchat-be/config"
)

// NewMemoryStore picks the configured memory backend.
func NewMemoryStore(cfg *config.Config) (MemoryStore, error) {
	switch cfg.MemoryStore {
	case "weaviate", "":
		return NewWeaviateStore(cfg.WeaviateStoreConfig)
	case "papr":
		return NewPaprStore(cfg.PaprStoreConfig), nil
	default:
		return nil, fmt.Errorf("unknown memory store: %s", cfg.MemoryStore)
	}
}
