package database

import (
	"context"

	"github.com/pdfchat/pdfchat-be/types"
)

// MemoryStore is the contract of the remote long-term memory service. Each
// stored item is one document chunk plus its metadata, keyed by an external
// user identifier. The service enforces a maximum content size per item;
// chunking exists specifically to respect that bound.
type MemoryStore interface {
	// AddMemory stores one chunk and returns the durable item identifier.
	AddMemory(ctx context.Context, item *types.MemoryItem) (string, error)

	// SearchMemories runs a metadata-filtered semantic search and returns
	// ranked items, best first.
	SearchMemories(ctx context.Context, query string, filter types.MemoryFilter, limit int) ([]types.Memory, error)

	// DeleteMemory removes one stored item by its identifier.
	DeleteMemory(ctx context.Context, id string) error

	// Ready reports whether the store is reachable.
	Ready(ctx context.Context) error
}
