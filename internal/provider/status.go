package provider

import (
	"errors"

	"github.com/anthropics/anthropic-sdk-go"
	"google.golang.org/genai"
)

// statusOf extracts the HTTP status code from SDK errors that carry one.
func statusOf(err error) int {
	var anthErr *anthropic.Error
	if errors.As(err, &anthErr) {
		return anthErr.StatusCode
	}
	var genaiErr genai.APIError
	if errors.As(err, &genaiErr) {
		return genaiErr.Code
	}
	return 0
}
