package service

import "strings"

// Chunker splits extracted document text into pieces no larger than
// maxBytes. Splits prefer paragraph boundaries, then word boundaries.
// A single word longer than the bound is truncated to exactly the bound.
type Chunker struct {
	maxBytes int
}

func NewChunker(maxBytes int) *Chunker {
	return &Chunker{maxBytes: maxBytes}
}

// Chunk is a pure function of (text, maxBytes): identical input always
// produces the identical chunk sequence.
func (c *Chunker) Chunk(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= c.maxBytes {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}

	for _, paragraph := range strings.Split(text, "\n\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}
		if len(paragraph) > c.maxBytes {
			flush()
			chunks = append(chunks, c.splitWords(paragraph)...)
			continue
		}
		if current.Len() > 0 && current.Len()+2+len(paragraph) > c.maxBytes {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(paragraph)
	}
	flush()

	return chunks
}

func (c *Chunker) splitWords(paragraph string) []string {
	var chunks []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}

	for _, word := range strings.Fields(paragraph) {
		if len(word) > c.maxBytes {
			flush()
			chunks = append(chunks, word[:c.maxBytes])
			continue
		}
		if current.Len() > 0 && current.Len()+1+len(word) > c.maxBytes {
			flush()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(word)
	}
	flush()

	return chunks
}
