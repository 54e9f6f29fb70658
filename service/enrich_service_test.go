package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallbackAnnotationDeterministic(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	first := FallbackAnnotation("handbook.pdf", 2, 7, now)
	second := FallbackAnnotation("handbook.pdf", 2, 7, now)
	assert.Equal(t, first, second)
}

func TestFallbackAnnotationIgnoresChunkContent(t *testing.T) {
	// only position and filename matter; repeated runs over different content
	// for the same slot are identical except the timestamp
	a := FallbackAnnotation("handbook.pdf", 0, 3, time.Unix(100, 0))
	b := FallbackAnnotation("handbook.pdf", 0, 3, time.Unix(900, 0))
	a.CreatedAt = ""
	b.CreatedAt = ""
	assert.Equal(t, a, b)
}

func TestFallbackAnnotationFields(t *testing.T) {
	annotation := FallbackAnnotation("handbook.pdf", 2, 7, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	assert.Equal(t, "handbook - Part 3", annotation.Title)
	assert.Equal(t, "Chunk 3 of 7 from handbook.pdf", annotation.Summary)
	assert.Contains(t, annotation.Keywords, "handbook")
	assert.False(t, annotation.Enhanced)
	assert.Equal(t, "2025-06-01T12:00:00Z", annotation.CreatedAt)
}

func TestFallbackAnnotationVariesByPosition(t *testing.T) {
	now := time.Now()
	first := FallbackAnnotation("handbook.pdf", 0, 3, now)
	second := FallbackAnnotation("handbook.pdf", 1, 3, now)
	require.NotEqual(t, first.Title, second.Title)
	require.NotEqual(t, first.Summary, second.Summary)
}
