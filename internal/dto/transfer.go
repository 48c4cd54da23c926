package dto

// ImportSummary reports the outcome of one CSV import.
type ImportSummary struct {
	Kind     string   `json:"kind"`
	Rows     int      `json:"rows"`
	Created  int      `json:"created"`
	Skipped  int      `json:"skipped"`
	Problems []string `json:"problems,omitempty"`
}

// ExportRequest asks for an export of the published schedule.
type ExportRequest struct {
	Format string `json:"format" validate:"required,oneof=csv pdf"`
}

// ExportJobResponse tracks an asynchronous export.
type ExportJobResponse struct {
	JobID       string `json:"jobId"`
	Status      string `json:"status"`
	DownloadURL string `json:"downloadUrl,omitempty"`
	Error       string `json:"error,omitempty"`
}
