// Package api is the HTTP client the CLI uses to push and pull projects to
// and from a running server.
package api

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tmcoach/board/internal/document"
	"github.com/tmcoach/board/internal/storage"
)

// Client handles communication with the board server.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a new API client.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Healthcheck checks if the server is reachable.
func (c *Client) Healthcheck() error {
	resp, err := c.httpClient.Get(c.baseURL + "/healthcheck")
	if err != nil {
		return fmt.Errorf("healthcheck request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("healthcheck returned status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) projectURL(name string) string {
	return c.baseURL + "/api/projects/" + url.PathEscape(name)
}

// do sends a request with the API key and returns the body of a 2xx reply
func (c *Client) do(ctx context.Context, method, target string, body []byte) ([]byte, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rd)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(method, resp.StatusCode, data)
	}
	return data, nil
}

func statusError(method string, status int, body []byte) error {
	var reply struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &reply) == nil && reply.Error != "" {
		msg = reply.Error
	}
	if status == http.StatusNotFound {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, msg)
	}
	return fmt.Errorf("%s returned status %d: %s", method, status, msg)
}

// List returns the projects stored on the server
func (c *Client) List(ctx context.Context) ([]storage.ProjectInfo, error) {
	data, err := c.do(ctx, http.MethodGet, c.baseURL+"/api/projects", nil)
	if err != nil {
		return nil, err
	}
	var infos []storage.ProjectInfo
	if err := json.Unmarshal(data, &infos); err != nil {
		return nil, fmt.Errorf("failed to decode project list: %w", err)
	}
	return infos, nil
}

// Push uploads a serialized document as project name
func (c *Client) Push(ctx context.Context, name string, doc []byte) error {
	_, err := c.do(ctx, http.MethodPut, c.projectURL(name), doc)
	return err
}

// PushFile uploads a project file, plain or gzip-compressed. The project
// name is taken from the file name.
func (c *Client) PushFile(ctx context.Context, path string) (string, error) {
	base := filepath.Base(path)
	compressed := strings.HasSuffix(base, ".gz")
	name, ok := document.ProjectName(strings.TrimSuffix(base, ".gz"))
	if !ok {
		return "", fmt.Errorf("%s is not a project file (want *%s)", base, document.FileExtension)
	}

	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var rd io.Reader = file
	if compressed {
		gz, err := gzip.NewReader(file)
		if err != nil {
			return "", fmt.Errorf("failed to open gzip stream: %w", err)
		}
		defer gz.Close()
		rd = gz
	}
	data, err := io.ReadAll(rd)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return name, c.Push(ctx, name, data)
}

// Pull downloads project name at the current document version
func (c *Client) Pull(ctx context.Context, name string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, c.projectURL(name), nil)
}
