package types

type DataResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// UploadAccepted is returned when an ingestion job has been started.
type UploadAccepted struct {
	Status   string `json:"status"`
	UploadID string `json:"upload_id"`
	Filename string `json:"filename"`
}

type ChatResponse struct {
	Response   string   `json:"response"`
	Sources    []Source `json:"sources,omitempty"`
	DocumentID string   `json:"document_id,omitempty"`
}

// Source is a preview of one retrieved chunk backing a chat answer.
type Source struct {
	MemoryID       string  `json:"memory_id"`
	DocumentID     string  `json:"document_id"`
	Filename       string  `json:"filename"`
	ChunkIndex     int     `json:"chunk_index"`
	ContentPreview string  `json:"content_preview"`
	RelevanceScore float64 `json:"relevance_score"`
}

type SummaryResponse struct {
	DocumentID    string `json:"document_id"`
	Filename      string `json:"filename,omitempty"`
	Summary       string `json:"summary"`
	SectionsFound int    `json:"sections_found"`
}

type SearchResponse struct {
	Memories []Memory `json:"memories"`
	Count    int      `json:"count"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
	Version   string `json:"version"`
}
