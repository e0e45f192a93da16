// Package web provides HTTP handlers for the run history API.
package web

// ListRunsRequest represents the parsed query parameters for listing runs.
type ListRunsRequest struct {
	Job    string `json:"job"`
	Limit  int    `json:"limit"  validate:"omitempty,min=1,max=100"`
	Offset int    `json:"offset" validate:"omitempty,min=0"`
}
