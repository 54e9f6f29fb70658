package types

// IngestRequest describes one ingestion job handed to the pipeline.
type IngestRequest struct {
	FilePath       string
	Filename       string
	FileSize       int64
	ExternalUserID string
	Enhanced       bool
}

type ChatRequest struct {
	Message    string `json:"message"`
	DocumentID string `json:"document_id,omitempty"`
	MaxSources int    `json:"max_sources,omitempty"`
}

type SearchRequest struct {
	Query      string `json:"query"`
	DocumentID string `json:"document_id,omitempty"`
	Limit      int    `json:"limit,omitempty"`
}
