package types

type ProgressStatus string

const (
	ProgressStatusProcessing ProgressStatus = "processing"
	ProgressStatusComplete   ProgressStatus = "complete"
	ProgressStatusError      ProgressStatus = "error"
)

// Terminal reports whether no further updates are expected for this status.
func (s ProgressStatus) Terminal() bool {
	return s == ProgressStatusComplete || s == ProgressStatusError
}

// UploadProgress is the live record for one ingestion job, keyed by the
// caller-assigned upload id.
type UploadProgress struct {
	JobID   string         `json:"job_id"`
	Current int            `json:"current"`
	Total   int            `json:"total"`
	Percent float64        `json:"percent"`
	Message string         `json:"message"`
	Status  ProgressStatus `json:"status"`
	Result  *IngestResult  `json:"result,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// IngestResult is attached to a progress record when an ingestion job
// finishes successfully.
type IngestResult struct {
	DocumentID    string   `json:"document_id"`
	Filename      string   `json:"filename"`
	ChunksCreated int      `json:"chunks_created"`
	TotalChunks   int      `json:"total_chunks"`
	MemoryIDs     []string `json:"memory_ids,omitempty"`
	Enhanced      bool     `json:"enhanced"`
}
