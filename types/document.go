package types

// DemoUserID identifies the single hard-coded user all documents belong to.
// Real authentication is out of scope for this service.
const DemoUserID = "demo_user"

// Chunk is one bounded-size, zero-indexed slice of a document's extracted
// text. Chunks of one document share a DocumentID and are ordered by Index.
type Chunk struct {
	Content    string
	Index      int
	Total      int
	DocumentID string
}

// ChunkAnnotation is descriptive metadata for a chunk, either generated by
// the LLM enrichment step or built deterministically as a fallback.
type ChunkAnnotation struct {
	Title           string   `json:"title"`
	Summary         string   `json:"summary"`
	Keywords        []string `json:"keywords"`
	Entities        []string `json:"entities,omitempty"`
	TopicTags       []string `json:"topic_tags"`
	ContentType     string   `json:"content_type"`
	Language        string   `json:"language"`
	ComplexityLevel string   `json:"complexity_level,omitempty"`
	KeyConcepts     []string `json:"key_concepts,omitempty"`
	Enhanced        bool     `json:"enhanced"`
	CreatedAt       string   `json:"created_at"`
}

// MemoryItem is the payload stored in the remote memory store for one chunk.
type MemoryItem struct {
	Content        string
	ExternalUserID string
	Filename       string
	DocumentID     string
	ChunkIndex     int
	TotalChunks    int
	Annotation     ChunkAnnotation
}

// Memory is one ranked item returned from a memory search.
type Memory struct {
	ID          string  `json:"id"`
	Content     string  `json:"content"`
	Filename    string  `json:"filename"`
	DocumentID  string  `json:"document_id"`
	ChunkIndex  int     `json:"chunk_index"`
	TotalChunks int     `json:"total_chunks"`
	Title       string  `json:"title,omitempty"`
	Summary     string  `json:"summary,omitempty"`
	Score       float64 `json:"score"`
}

// MemoryFilter narrows a search to one user and optionally one document.
type MemoryFilter struct {
	ExternalUserID string
	DocumentID     string
}

// DocumentRecord is the registry entry for one uploaded document.
type DocumentRecord struct {
	ID             string `bson:"_id" json:"id"`
	Filename       string `bson:"filename" json:"filename"`
	ExternalUserID string `bson:"external_user_id" json:"external_user_id"`
	ChunksCreated  int    `bson:"chunks_created" json:"chunks_created"`
	TotalChunks    int    `bson:"total_chunks" json:"total_chunks"`
	FileSize       int64  `bson:"file_size" json:"file_size"`
	FilePath       string `bson:"file_path" json:"file_path"`
	Enhanced       bool   `bson:"enhanced" json:"enhanced"`
	UploadedAt     int64  `bson:"uploaded_at" json:"uploaded_at"`
}
