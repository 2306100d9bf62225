package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	api "github.com/kubev2v/inventory-advisor/api/v1alpha1"
)

const apiPrefix = "/api/v1"

// Client talks to a running inventory advisor.
type Client struct {
	server string
	http   *http.Client
}

func NewClient(server string, httpClient *http.Client) *Client {
	return &Client{server: strings.TrimSuffix(server, "/"), http: httpClient}
}

// StatusError is returned for every non 2xx reply.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server replied %d", e.Code)
	}
	return fmt.Sprintf("server replied %d: %s", e.Code, e.Message)
}

func (c *Client) ListSources(ctx context.Context) (api.SourceList, error) {
	var list api.SourceList
	return list, c.do(ctx, http.MethodGet, "/sources", nil, "", &list)
}

func (c *Client) GetSource(ctx context.Context, name string) (*api.Source, error) {
	var source api.Source
	if err := c.do(ctx, http.MethodGet, "/sources/"+url.PathEscape(name), nil, "", &source); err != nil {
		return nil, err
	}
	return &source, nil
}

func (c *Client) DeleteSource(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodDelete, "/sources/"+url.PathEscape(name), nil, "", nil)
}

func (c *Client) ListFindings(ctx context.Context, query url.Values) (*api.FindingList, error) {
	var list api.FindingList
	path := "/findings"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	if err := c.do(ctx, http.MethodGet, path, nil, "", &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// UploadWorkbook sends the workbook at path as a multipart form.
func (c *Client) UploadWorkbook(ctx context.Context, path string) (*api.IngestResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("copying workbook into multipart: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart writer: %w", err)
	}

	var result api.IngestResult
	if err := c.do(ctx, http.MethodPost, "/sources", &buf, mw.FormDataContentType(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, into any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.server+apiPrefix+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr api.Error
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return &StatusError{Code: resp.StatusCode, Message: apiErr.Message}
	}
	if into == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(into)
}
