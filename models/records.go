package models

// Record summarizes one uploaded medical document.
type Record struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Chunks   int    `json:"chunks"`
}

type ListRecordsResponse struct {
	Count   int      `json:"count"`
	Records []Record `json:"records"`
}

// SourceDocument is a retrieved chunk of a record and where it came from.
type SourceDocument struct {
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

type AskRecordsResponse struct {
	Answer     string           `json:"answer"`
	SourceDocs []SourceDocument `json:"source_docs,omitempty"`
}
