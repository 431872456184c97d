package types

// StatusResponse is the generic success envelope.
type StatusResponse struct {
	Status string `json:"status"`
}

// SignupResponse is returned by the waitlist endpoint.
type SignupResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ErrorResponse is the error envelope rendered by the error-handler middleware.
type ErrorResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Code    string `json:"code,omitempty"`
}

// ExportArchiveResponse is returned when an admin export is archived to object
// storage instead of streamed back directly.
type ExportArchiveResponse struct {
	Key         string `json:"key"`
	DownloadURL string `json:"download_url"`
	Rows        int    `json:"rows"`
}
