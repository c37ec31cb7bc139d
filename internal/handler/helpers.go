package handler

import (
	"github.com/gin-gonic/gin"
)

// ErrorResponse is the failure payload of every endpoint
type ErrorResponse struct {
	Code    string  `json:"code"`
	Message string  `json:"message"`
	Details *string `json:"details,omitempty"`
}

// errorResponse builds a failure payload. The underlying error detail is
// included only outside release mode.
func errorResponse(code, message string, err error) ErrorResponse {
	resp := ErrorResponse{Code: code, Message: message}
	if err != nil && gin.Mode() != gin.ReleaseMode {
		resp.Details = stringPtr(err.Error())
	}
	return resp
}

// stringPtr creates a pointer to a string
func stringPtr(s string) *string {
	return &s
}
