package dto

// IngestRequest carries the non-file fields of the multipart ingest form.
// Exactly one of file (handled by the controller), Url, or Text must be set.
type IngestRequest struct {
	Url   string `form:"url" json:"url"`
	Text  string `form:"text" json:"text"`
	Title string `form:"title" json:"title"`
}

type IngestedSource struct {
	Id               string `json:"id"`
	Name             string `json:"name"`
	Type             string `json:"type"`
	DocumentsIndexed int    `json:"documentsIndexed"`
	ExtractedWords   int    `json:"extractedWords"`
	ExtractedPages   int    `json:"extractedPages,omitempty"`
}

type IngestResponse struct {
	Success bool           `json:"success"`
	Source  IngestedSource `json:"source"`
}

type DeleteSourceResponse struct {
	Success bool `json:"success"`
	Deleted int  `json:"deleted"`
}
