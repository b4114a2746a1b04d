// Package github stores and reads files in a GitHub repository through the
// REST contents API and the raw content host.
//
// Authenticated calls take a token from the caller, usually obtained from a
// TokenSource. Reads of published files go through Raw and need no token.
package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/JonMunkholm/linkboard/internal/logging"
)

var (
	// ErrNotFound is returned when the requested file does not exist.
	ErrNotFound = errors.New("github: not found")

	// ErrUnauthorized is returned when GitHub rejects the token.
	ErrUnauthorized = errors.New("github: unauthorized")
)

// maxResponseBytes caps every response body read from GitHub.
const maxResponseBytes = 32 << 20

// StatusError reports an unexpected HTTP status from GitHub.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("github: %s %s: status %d", e.Method, e.Path, e.Code)
	}
	return fmt.Sprintf("github: %s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// File is a repository file read through the contents API.
type File struct {
	Path    string
	SHA     string
	Content []byte
}

// Options configures a Client.
type Options struct {
	APIBase string // default https://api.github.com
	RawBase string // default https://raw.githubusercontent.com
	Owner   string
	Repo    string
	Branch  string // default main

	Timeout           time.Duration
	RequestsPerSecond float64 // outbound budget; <= 0 disables limiting
	Burst             int

	HTTPClient *http.Client
}

// Client talks to one repository on one branch.
type Client struct {
	apiBase string
	rawBase string
	owner   string
	repo    string
	branch  string

	http    *http.Client
	limiter *rate.Limiter
}

// New creates a Client from opts, filling in defaults.
func New(opts Options) *Client {
	if opts.APIBase == "" {
		opts.APIBase = "https://api.github.com"
	}
	if opts.RawBase == "" {
		opts.RawBase = "https://raw.githubusercontent.com"
	}
	if opts.Branch == "" {
		opts.Branch = "main"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Burst <= 0 {
		opts.Burst = 5
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	return &Client{
		apiBase: strings.TrimRight(opts.APIBase, "/"),
		rawBase: strings.TrimRight(opts.RawBase, "/"),
		owner:   opts.Owner,
		repo:    opts.Repo,
		branch:  opts.Branch,
		http:    hc,
		limiter: rate.NewLimiter(limit, opts.Burst),
	}
}

type contentsResponse struct {
	Path     string `json:"path"`
	SHA      string `json:"sha"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// GetFile fetches path with its blob SHA. A missing file yields ErrNotFound.
func (c *Client) GetFile(ctx context.Context, token, path string) (*File, error) {
	u := c.contentsURL(path) + "?ref=" + url.QueryEscape(c.branch)

	body, err := c.do(ctx, http.MethodGet, u, token, nil)
	if err != nil {
		return nil, err
	}

	var resp contentsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("github: decode %s: %w", path, err)
	}

	content, err := decodeContent(resp.Content, resp.Encoding)
	if err != nil {
		return nil, fmt.Errorf("github: decode %s: %w", path, err)
	}

	return &File{Path: resp.Path, SHA: resp.SHA, Content: content}, nil
}

type putRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	SHA     string `json:"sha,omitempty"`
	Branch  string `json:"branch,omitempty"`
}

type putResponse struct {
	Content struct {
		SHA string `json:"sha"`
	} `json:"content"`
}

// PutFile creates or replaces path. sha must be the current blob SHA when
// the file exists and empty when it does not. It returns the new blob SHA.
func (c *Client) PutFile(ctx context.Context, token, path string, content []byte, message, sha string) (string, error) {
	payload, err := json.Marshal(putRequest{
		Message: message,
		Content: base64.StdEncoding.EncodeToString(content),
		SHA:     sha,
		Branch:  c.branch,
	})
	if err != nil {
		return "", fmt.Errorf("github: encode %s: %w", path, err)
	}

	body, err := c.do(ctx, http.MethodPut, c.contentsURL(path), token, payload)
	if err != nil {
		return "", err
	}

	var resp putResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("github: decode %s: %w", path, err)
	}
	return resp.Content.SHA, nil
}

type deleteRequest struct {
	Message string `json:"message"`
	SHA     string `json:"sha"`
	Branch  string `json:"branch,omitempty"`
}

// DeleteFile removes path at blob sha.
func (c *Client) DeleteFile(ctx context.Context, token, path, message, sha string) error {
	payload, err := json.Marshal(deleteRequest{Message: message, SHA: sha, Branch: c.branch})
	if err != nil {
		return fmt.Errorf("github: encode %s: %w", path, err)
	}

	_, err = c.do(ctx, http.MethodDelete, c.contentsURL(path), token, payload)
	return err
}

// Raw reads the published bytes of path from the raw content host.
func (c *Client) Raw(ctx context.Context, path string) ([]byte, error) {
	u := fmt.Sprintf("%s/%s/%s/%s/%s", c.rawBase,
		url.PathEscape(c.owner), url.PathEscape(c.repo), url.PathEscape(c.branch), escapePath(path))
	return c.do(ctx, http.MethodGet, u, "", nil)
}

func (c *Client) contentsURL(path string) string {
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s", c.apiBase,
		url.PathEscape(c.owner), url.PathEscape(c.repo), escapePath(path))
}

// do sends one request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, method, rawURL, token string, payload []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("github: create request: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "token "+token)
		req.Header.Set("Accept", "application/vnd.github.v3+json")
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("github: %s %s: %w", method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("github: read response: %w", err)
	}

	logging.FromContext(ctx).Debug("github request",
		"method", method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, &StatusError{
			Method: method,
			Path:   req.URL.Path,
			Code:   resp.StatusCode,
			Body:   summarize(body),
		}
	}
	return body, nil
}

// decodeContent decodes a contents API payload. GitHub wraps base64 content
// at 60 columns.
func decodeContent(content, encoding string) ([]byte, error) {
	switch encoding {
	case "base64":
		clean := strings.NewReplacer("\n", "", "\r", "").Replace(content)
		return base64.StdEncoding.DecodeString(clean)
	case "", "utf-8":
		return []byte(content), nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", encoding)
	}
}

func escapePath(path string) string {
	parts := strings.Split(strings.TrimLeft(path, "/"), "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

// summarize pulls the message out of a GitHub error body when present.
func summarize(body []byte) string {
	var msg struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &msg) == nil && msg.Message != "" {
		return msg.Message
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
