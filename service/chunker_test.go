package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkerEmptyText(t *testing.T) {
	c := NewChunker(100)
	assert.Nil(t, c.Chunk(""))
	assert.Nil(t, c.Chunk("   \n\n  "))
}

func TestChunkerSmallTextSingleChunk(t *testing.T) {
	c := NewChunker(100)
	chunks := c.Chunk("hello world")
	require.Len(t, chunks, 1)
	assert.Equal(t, "hello world", chunks[0])
}

func TestChunkerRespectsByteBound(t *testing.T) {
	bounds := []int{10, 50, 100, 1000}
	text := strings.Repeat("alpha beta gamma delta epsilon.\n\nzeta eta theta iota kappa lambda mu. ", 20)
	for _, m := range bounds {
		c := NewChunker(m)
		for i, chunk := range c.Chunk(text) {
			assert.LessOrEqualf(t, len(chunk), m, "bound %d, chunk %d", m, i)
		}
	}
}

func TestChunkerPrefersParagraphBoundaries(t *testing.T) {
	c := NewChunker(30)
	chunks := c.Chunk("first paragraph here\n\nsecond paragraph here\n\nthird one")
	require.Len(t, chunks, 3)
	assert.Equal(t, "first paragraph here", chunks[0])
	assert.Equal(t, "second paragraph here", chunks[1])
	assert.Equal(t, "third one", chunks[2])
}

func TestChunkerPacksParagraphsUpToBound(t *testing.T) {
	c := NewChunker(50)
	chunks := c.Chunk("short one\n\nshort two\n\nshort three")
	require.Len(t, chunks, 1)
	assert.Equal(t, "short one\n\nshort two\n\nshort three", chunks[0])
}

func TestChunkerSplitsOversizedParagraphAtWords(t *testing.T) {
	c := NewChunker(20)
	chunks := c.Chunk("one two three four five six seven eight nine ten")
	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 20)
		assert.False(t, strings.HasPrefix(chunk, " "))
		assert.False(t, strings.HasSuffix(chunk, " "))
	}
	rejoined := strings.Join(chunks, " ")
	assert.Equal(t, "one two three four five six seven eight nine ten", rejoined)
}

func TestChunkerTruncatesOversizedToken(t *testing.T) {
	c := NewChunker(10)
	long := strings.Repeat("x", 35)
	chunks := c.Chunk("aa " + long + " bb")
	found := false
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 10)
		if strings.HasPrefix(chunk, "xxx") {
			assert.Len(t, chunk, 10)
			found = true
		}
	}
	assert.True(t, found, "truncated token chunk missing")
}

func TestChunkerDeterministic(t *testing.T) {
	c := NewChunker(64)
	text := strings.Repeat("some repeated sentence with words.\n\n", 50)
	first := c.Chunk(text)
	second := c.Chunk(text)
	assert.Equal(t, first, second)
}

func TestChunkerPreservesContentOrder(t *testing.T) {
	c := NewChunker(25)
	text := "aaa bbb\n\nccc ddd\n\neee fff ggg hhh iii jjj kkk"
	joined := strings.Join(c.Chunk(text), " ")
	normalized := strings.Join(strings.Fields(joined), " ")
	assert.Equal(t, "aaa bbb ccc ddd eee fff ggg hhh iii jjj kkk", normalized)
}
