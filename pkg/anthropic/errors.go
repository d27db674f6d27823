package anthropic

import (
	"errors"
	"net/http"

	sdk "github.com/anthropics/anthropic-sdk-go"
)

// IsRateLimited reports whether the error chain contains an HTTP 429 from
// the Anthropic API. Rate limits are the only provider error the extraction
// retry loop waits out; everything else degrades to the empty result.
func IsRateLimited(err error) bool {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests
	}
	return false
}
