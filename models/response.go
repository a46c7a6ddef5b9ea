package models

type UploadResponse struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	WordCount  int    `json:"word_count"`
	ChunkCount int    `json:"chunk_count"`
	Message    string `json:"message"`
}

type AskResponse struct {
	Answer     string              `json:"answer"`
	Confidence float64             `json:"confidence"`
	Breakdown  ConfidenceBreakdown `json:"breakdown"`
	Sources    []string            `json:"sources,omitempty"`
	Abstained  bool                `json:"abstained"`
	Reason     GateReason          `json:"reason"`
}

type ListDocumentsResponse struct {
	Count     int            `json:"count"`
	Documents []DocumentInfo `json:"documents"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Documents int    `json:"documents"`
	Embedder  string `json:"embedder"`
	Generator string `json:"generator"`
}
