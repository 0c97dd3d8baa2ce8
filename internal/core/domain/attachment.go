package domain

// Attachment describes an upload candidate after local preflight inspection.
// Pages is only meaningful for PDFs and stays 0 for images.
type Attachment struct {
	Filename    string
	ContentType string
	Size        int64
	Pages       int
}
