// Package crates looks up crate metadata on a crates.io-compatible registry.
package crates

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jacoelho/crator/internal/dotpath"
	"github.com/jacoelho/crator/internal/executor"
	"github.com/jacoelho/crator/internal/query"
	"github.com/jacoelho/crator/internal/ratelimit"
)

// DefaultRegistry is the public crates.io registry.
const DefaultRegistry = "https://crates.io"

// maxBodySize caps how much of a response is read.
const maxBodySize = 16 << 20

var (
	ErrNotFound         = errors.New("crate not found")
	ErrUnexpectedStatus = errors.New("unexpected status")
	ErrInvalidName      = errors.New("invalid crate name")
)

// Client fetches crate metadata.
type Client struct {
	http     *http.Client
	limiter  *ratelimit.Limiter
	registry string
	queries  []query.Query
}

// NewClient returns a Client for registry. A nil limiter disables pacing.
func NewClient(httpClient *http.Client, limiter *ratelimit.Limiter, registry string, queries []query.Query) *Client {
	if limiter == nil {
		limiter = ratelimit.New(0)
	}

	return &Client{
		http:     httpClient,
		limiter:  limiter,
		registry: strings.TrimRight(registry, "/"),
		queries:  queries,
	}
}

// Lookup wraps Get as a Future for the executor. The request runs on
// the first poll.
func (c *Client) Lookup(ctx context.Context, name string) executor.Future[executor.Result[Info]] {
	return executor.Try(func() (Info, error) {
		return c.Get(ctx, name)
	})
}

// Get fetches and parses the metadata of the named crate.
func (c *Client) Get(ctx context.Context, name string) (Info, error) {
	if err := ValidateName(name); err != nil {
		return Info{}, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return Info{}, err
	}

	start := time.Now()
	requestID := uuid.NewString()

	endpoint := c.registry + "/api/v1/crates/" + url.PathEscape(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Info{}, fmt.Errorf("create request for %s: %w", name, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		return Info{}, fmt.Errorf("fetch %s: %w", name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return Info{}, fmt.Errorf("read response for %s: %w", name, err)
	}

	if err := statusError(name, resp.StatusCode, body); err != nil {
		return Info{}, err
	}

	info := parseInfo(name, body, c.queries)
	info.RequestID = requestID
	info.StatusCode = resp.StatusCode
	info.Elapsed = time.Since(start)

	return info, nil
}

func statusError(name string, status int, body []byte) error {
	if status == http.StatusOK {
		return nil
	}

	detail := dotpath.Extract(string(body), pathErrorDetail)
	if detail == dotpath.NotFound {
		detail = http.StatusText(status)
	}

	if status == http.StatusNotFound {
		return fmt.Errorf("%w: %s: %s", ErrNotFound, name, detail)
	}
	return fmt.Errorf("%w %d for %s: %s", ErrUnexpectedStatus, status, name, detail)
}

// ValidateName checks name against the registry's naming rules: ASCII
// alphanumerics, '-' and '_', starting with a letter, at most 64 chars.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	}
	if len(name) > 64 {
		return fmt.Errorf("%w: %s is longer than 64 characters", ErrInvalidName, name)
	}
	if !isLetter(name[0]) {
		return fmt.Errorf("%w: %s must start with a letter", ErrInvalidName, name)
	}

	for i := 1; i < len(name); i++ {
		c := name[i]
		if !isLetter(c) && !(c >= '0' && c <= '9') && c != '-' && c != '_' {
			return fmt.Errorf("%w: %s contains %q", ErrInvalidName, name, c)
		}
	}

	return nil
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
