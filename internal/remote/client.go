package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"
)

// Default endpoints and limits.
const (
	DefaultAPIURL     = "https://api.github.com"
	DefaultGraphURL   = "https://api.github.com/graphql"
	DefaultTimeout    = 30 * time.Second
	PageSize          = 100
	restAcceptHeader  = "application/vnd.github+json"
	restAPIVersion    = "2022-11-28"
	maxErrorBodyBytes = 512
)

// Client talks to both GitHub project models. It caches owner kind, owner
// node ids and the authenticated login for its lifetime.
type Client struct {
	token      string
	apiURL     string
	graphURL   string
	httpClient *http.Client
	logger     *log.Logger

	mu          sync.Mutex
	ownerKinds  map[string]OwnerKind
	ownerNodeID map[string]string
	viewer      string
}

// Option configures a Client.
type Option func(*Client)

// WithAPIURL overrides the REST base URL.
func WithAPIURL(u string) Option {
	return func(c *Client) {
		c.apiURL = strings.TrimRight(u, "/")
	}
}

// WithGraphURL overrides the GraphQL endpoint.
func WithGraphURL(u string) Option {
	return func(c *Client) {
		c.graphURL = u
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a client authenticating with token.
func New(token string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrNoToken
	}
	c := &Client{
		token:       token,
		apiURL:      DefaultAPIURL,
		graphURL:    DefaultGraphURL,
		httpClient:  &http.Client{Timeout: DefaultTimeout},
		logger:      log.New(os.Stderr, "[remote] ", log.LstdFlags),
		ownerKinds:  make(map[string]OwnerKind),
		ownerNodeID: make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// rest performs one REST request. A non-nil in is sent as JSON; a non-nil
// out receives the decoded response. The returned string is the URL of the
// next page taken from the Link header, or "".
func (c *Client) rest(ctx context.Context, op, method, path string, in, out any) (string, error) {
	url := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		url = c.apiURL + path
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return "", fmt.Errorf("failed to marshal %s request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", restAcceptHeader)
	req.Header.Set("X-GitHub-Api-Version", restAPIVersion)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Printf("%s %s", method, url)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &Error{Kind: KindTransport, Model: ModelREST, Op: op, Cause: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{Kind: KindTransport, Model: ModelREST, Op: op, Status: resp.StatusCode, Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &Error{
			Kind:    kindForStatus(resp.StatusCode),
			Model:   ModelREST,
			Op:      op,
			Status:  resp.StatusCode,
			Message: restErrorMessage(data),
		}
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return "", &Error{Kind: KindMalformed, Model: ModelREST, Op: op, Status: resp.StatusCode, Cause: err}
		}
	}
	return nextLink(resp.Header.Get("Link")), nil
}

// restErrorMessage extracts GitHub's "message" field, falling back to a
// truncated body.
func restErrorMessage(data []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &payload) == nil && payload.Message != "" {
		return payload.Message
	}
	s := strings.TrimSpace(string(data))
	if len(s) > maxErrorBodyBytes {
		s = s[:maxErrorBodyBytes]
	}
	return s
}

var linkNextRe = regexp.MustCompile(`<([^>]+)>\s*;\s*rel="next"`)

// nextLink returns the rel="next" URL from a Link header.
func nextLink(header string) string {
	for _, part := range strings.Split(header, ",") {
		if m := linkNextRe.FindStringSubmatch(part); m != nil {
			return m[1]
		}
	}
	return ""
}

type graphRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type graphResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphError    `json:"errors"`
}

// graph performs one GraphQL request and decodes data into out. A non-empty
// errors array is a failure classified by the first error's type.
func (c *Client) graph(ctx context.Context, op, query string, vars map[string]any, out any) error {
	data, err := json.Marshal(graphRequest{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("failed to marshal %s query: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.logger.Printf("POST %s (%s)", c.graphURL, op)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Kind: KindTransport, Model: ModelGraph, Op: op, Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindTransport, Model: ModelGraph, Op: op, Status: resp.StatusCode, Cause: err}
	}
	if resp.StatusCode != http.StatusOK {
		return &Error{
			Kind:    kindForStatus(resp.StatusCode),
			Model:   ModelGraph,
			Op:      op,
			Status:  resp.StatusCode,
			Message: restErrorMessage(body),
		}
	}

	var gr graphResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return &Error{Kind: KindMalformed, Model: ModelGraph, Op: op, Cause: err}
	}
	if len(gr.Errors) > 0 {
		msgs := make([]string, 0, len(gr.Errors))
		for _, e := range gr.Errors {
			msgs = append(msgs, e.Message)
		}
		return &Error{
			Kind:    kindForGraphType(gr.Errors[0].Type),
			Model:   ModelGraph,
			Op:      op,
			Message: strings.Join(msgs, "; "),
		}
	}
	if out == nil {
		return nil
	}
	if len(gr.Data) == 0 || string(gr.Data) == "null" {
		return &Error{Kind: KindMalformed, Model: ModelGraph, Op: op, Message: "response has no data"}
	}
	if err := json.Unmarshal(gr.Data, out); err != nil {
		return &Error{Kind: KindMalformed, Model: ModelGraph, Op: op, Cause: err}
	}
	return nil
}

// isCanceled reports whether err came from a cancelled or expired context.
func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
