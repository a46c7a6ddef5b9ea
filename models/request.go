package models

type AskRequest struct {
	DocumentID string `json:"document_id"`
	Question   string `json:"question"`
}

type ExtractRequest struct {
	DocumentID string `json:"document_id"`
}
