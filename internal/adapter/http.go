package adapter

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/amishk599/pitchdesk/internal/model"
)

const userAgent = "pitchdesk/1.0 (+https://github.com/amishk599/pitchdesk)"

// parseRetryAfter parses the Retry-After header value into a duration.
// Supports seconds format (e.g. "120"). Returns zero if absent or unparseable.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// statusError turns a non-200 response into a *model.HTTPError carrying a
// short excerpt of the body.
func statusError(resp *http.Response, what string) error {
	excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &model.HTTPError{
		StatusCode: resp.StatusCode,
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		Err:        fmt.Errorf("%s: %s", what, strings.TrimSpace(string(excerpt))),
	}
}
