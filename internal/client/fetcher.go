package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/simp-lee/advocates/internal/domain"
)

// maxResponseBytes caps the size of a listing response body.
const maxResponseBytes = 8 << 20

// Fetcher loads advocates for a search.
type Fetcher interface {
	Fetch(ctx context.Context, q domain.SearchQuery) ([]domain.Advocate, error)
}

// listEnvelope is the body of GET /api/advocates.
type listEnvelope struct {
	Success bool `json:"success"`
	Data    *struct {
		Data []domain.Advocate `json:"data"`
	} `json:"data"`
	Error string `json:"error"`
}

// StatusError is returned when the server answers with a failure.
type StatusError struct {
	StatusCode int
	Message    string
	RequestID  string
}

func (e *StatusError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("list advocates: status %d: %s (request %s)", e.StatusCode, msg, e.RequestID)
}

// HTTPFetcher queries the listing endpoint of an advocates server.
type HTTPFetcher struct {
	endpoint string
	client   *http.Client
}

// NewHTTPFetcher returns a fetcher for the server at baseURL. A nil client
// uses a client with a 10s timeout.
func NewHTTPFetcher(baseURL string, client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPFetcher{
		endpoint: strings.TrimRight(baseURL, "/") + "/api/advocates",
		client:   client,
	}
}

// Fetch issues GET /api/advocates with keyword, sortBy and sortDir.
func (f *HTTPFetcher) Fetch(ctx context.Context, q domain.SearchQuery) ([]domain.Advocate, error) {
	params := url.Values{}
	if q.Keyword != "" {
		params.Set("keyword", q.Keyword)
	}
	if q.Sort.Key != "" {
		params.Set("sortBy", q.Sort.Key)
	}
	if q.Sort.Direction != "" {
		params.Set("sortDir", string(q.Sort.Direction))
	}

	target := f.endpoint
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list advocates: %w", err)
	}
	defer resp.Body.Close()

	var env listEnvelope
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if id := resp.Header.Get("X-Request-ID"); id != "" {
			requestID = id
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Message: env.Error, RequestID: requestID}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode advocates: %w", decodeErr)
	}
	if !env.Success || env.Data == nil {
		return nil, &StatusError{StatusCode: resp.StatusCode, Message: env.Error, RequestID: requestID}
	}
	if env.Data.Data == nil {
		return []domain.Advocate{}, nil
	}
	return env.Data.Data, nil
}
