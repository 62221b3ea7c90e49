package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// maxDocumentSize bounds a single registry document. Records are small
// descriptive JSON; anything near this limit is a publishing defect.
const maxDocumentSize = 4 * 1024 * 1024

// transport performs one network fetch of one key with a fixed per-attempt
// timeout. It never retries and never touches the cache; that is the retry
// controller's and resolver's job respectively.
type transport struct {
	baseURL   string
	client    *http.Client
	timeout   time.Duration
	userAgent string
}

func newTransport(baseURL string, client *http.Client, timeout time.Duration, userAgent string) *transport {
	return &transport{
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    client,
		timeout:   timeout,
		userAgent: userAgent,
	}
}

// fetch performs a single GET of the given key and validates the document
// structurally before returning it. Error kinds:
//   - 404/410 -> not-found (permanent)
//   - other 4xx -> data (upstream publishing/config defect, not retryable)
//   - 5xx, timeout, connect failure -> connection (transient)
//   - invalid JSON or unsupported schema major -> data
func (t *transport) fetch(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	url := t.baseURL + "/" + key
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, NewDataError(key, "creating request", err)
	}
	req.Header.Set("Accept", "application/json")
	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, NewConnectionError(key, "fetch timed out", 1, err)
		}
		return nil, NewConnectionError(key, "fetch failed", 1, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to body read
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, NewNotFoundError(key)
	case resp.StatusCode >= 500:
		return nil, NewConnectionError(key, fmt.Sprintf("upstream returned status %d", resp.StatusCode), 1, nil)
	default:
		return nil, NewDataError(key, fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	limited := io.LimitReader(resp.Body, maxDocumentSize+1)
	raw, err := io.ReadAll(limited)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, NewConnectionError(key, "reading response timed out", 1, err)
		}
		return nil, NewConnectionError(key, "reading response body", 1, err)
	}
	if len(raw) > maxDocumentSize {
		return nil, NewDataError(key, fmt.Sprintf("document exceeds %d bytes", maxDocumentSize), nil)
	}

	if err := validateDocument(key, raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// validateDocument checks that raw is well-formed JSON carrying a
// schema_version this client understands, without committing to a full
// decode. Unknown fields pass through untouched (forward compatibility).
func validateDocument(key string, raw []byte) error {
	if !gjson.ValidBytes(raw) {
		return NewDataError(key, "document is not valid JSON", nil)
	}
	version := gjson.GetBytes(raw, "schema_version")
	if !version.Exists() {
		return NewDataError(key, "document is missing schema_version", nil)
	}
	return checkSchemaVersion(key, version.String())
}
