// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/docsync/internal/httputil"
	"github.com/pdiddy/docsync/pkg/types"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Entry status values reported by the index.
const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusCancelled  = "cancelled"
)

// Client implements Service against an OpenAI-compatible index API.
type Client struct {
	baseURL      string
	apiKey       string
	userAgent    string
	http         *http.Client
	pollInterval time.Duration
	pollTimeout  time.Duration
}

// NewClient builds a Client from config, applying defaults for anything
// unset.
func NewClient(cfg types.IndexConfig) *Client {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	pollTimeout := cfg.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = 5 * time.Minute
	}
	return &Client{
		baseURL:      baseURL,
		apiKey:       cfg.APIKey,
		userAgent:    cfg.UserAgent,
		http:         &http.Client{Timeout: timeout},
		pollInterval: pollInterval,
		pollTimeout:  pollTimeout,
	}
}

// RetrieveCollection fetches a collection by id.
func (c *Client) RetrieveCollection(ctx context.Context, id string) (Collection, error) {
	var cr collectionResponse
	if err := c.doJSON(ctx, http.MethodGet, "/vector_stores/"+url.PathEscape(id), nil, &cr); err != nil {
		return Collection{}, fmt.Errorf("retrieving collection %s: %w", id, err)
	}
	return Collection{ID: cr.ID, Name: cr.Name, Status: cr.Status}, nil
}

// CreateCollection creates an empty collection with the given name.
func (c *Client) CreateCollection(ctx context.Context, name string) (Collection, error) {
	payload := struct {
		Name string `json:"name"`
	}{Name: name}

	var cr collectionResponse
	if err := c.doJSON(ctx, http.MethodPost, "/vector_stores", payload, &cr); err != nil {
		return Collection{}, fmt.Errorf("creating collection %q: %w", name, err)
	}
	return Collection{ID: cr.ID, Name: cr.Name, Status: cr.Status}, nil
}

// Ingest uploads content as a named entry, attaches it to the collection,
// and polls until the index reports a terminal status.
func (c *Client) Ingest(ctx context.Context, collectionID, name string, content []byte) (Entry, error) {
	entryID, err := c.uploadFile(ctx, name, content)
	if err != nil {
		return Entry{}, fmt.Errorf("uploading %s: %w", name, err)
	}
	if err := c.attachFile(ctx, collectionID, entryID); err != nil {
		return Entry{}, fmt.Errorf("attaching %s: %w", name, err)
	}
	entry, err := c.awaitIndexed(ctx, collectionID, entryID)
	if err != nil {
		return Entry{}, fmt.Errorf("indexing %s: %w", name, err)
	}
	return entry, nil
}

// DeleteEntry removes an entry from the collection.
func (c *Client) DeleteEntry(ctx context.Context, collectionID, entryID string) error {
	path := "/vector_stores/" + url.PathEscape(collectionID) + "/files/" + url.PathEscape(entryID)
	if err := c.doJSON(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("deleting entry %s: %w", entryID, err)
	}
	return nil
}

// ListEntries pages through every entry in the collection.
func (c *Client) ListEntries(ctx context.Context, collectionID string) ([]Entry, error) {
	var entries []Entry
	after := ""
	for {
		path := "/vector_stores/" + url.PathEscape(collectionID) + "/files?limit=100"
		if after != "" {
			path += "&after=" + url.QueryEscape(after)
		}

		var lr listResponse
		if err := c.doJSON(ctx, http.MethodGet, path, nil, &lr); err != nil {
			return nil, fmt.Errorf("listing collection %s: %w", collectionID, err)
		}
		for _, er := range lr.Data {
			entries = append(entries, Entry{
				ID:        er.ID,
				Status:    er.Status,
				CreatedAt: time.Unix(er.CreatedAt, 0).UTC(),
			})
		}
		if !lr.HasMore || len(lr.Data) == 0 {
			return entries, nil
		}
		after = lr.LastID
	}
}

// uploadFile stores content in the file store and returns its id. The id
// doubles as the entry id once attached to a collection.
func (c *Client) uploadFile(ctx context.Context, name string, content []byte) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("purpose", "assistants"); err != nil {
		return "", fmt.Errorf("building upload: %w", err)
	}
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return "", fmt.Errorf("building upload: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return "", fmt.Errorf("building upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("building upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/files", bytes.NewReader(buf.Bytes()))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := httputil.DoWithRetry(ctx, c.http, req, 0)
	if err != nil {
		return "", fmt.Errorf("index API request: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return "", err
	}

	var fr fileResponse
	if err := json.NewDecoder(resp.Body).Decode(&fr); err != nil {
		return "", fmt.Errorf("parsing upload response: %w", err)
	}
	if fr.ID == "" {
		return "", fmt.Errorf("upload response carried no file id")
	}
	return fr.ID, nil
}

func (c *Client) attachFile(ctx context.Context, collectionID, fileID string) error {
	payload := struct {
		FileID string `json:"file_id"`
	}{FileID: fileID}
	path := "/vector_stores/" + url.PathEscape(collectionID) + "/files"
	return c.doJSON(ctx, http.MethodPost, path, payload, nil)
}

// awaitIndexed polls entry status until it reaches a terminal value or
// the poll timeout elapses.
func (c *Client) awaitIndexed(ctx context.Context, collectionID, fileID string) (Entry, error) {
	path := "/vector_stores/" + url.PathEscape(collectionID) + "/files/" + url.PathEscape(fileID)
	deadline := time.Now().Add(c.pollTimeout)

	for {
		var er entryResponse
		if err := c.doJSON(ctx, http.MethodGet, path, nil, &er); err != nil {
			return Entry{}, err
		}

		switch er.Status {
		case StatusCompleted:
			return Entry{ID: er.ID, Status: er.Status, CreatedAt: time.Unix(er.CreatedAt, 0).UTC()}, nil
		case StatusFailed, StatusCancelled:
			detail := "no detail given"
			if er.LastError != nil && er.LastError.Message != "" {
				detail = er.LastError.Message
			}
			return Entry{}, fmt.Errorf("entry %s ended %s: %s", fileID, er.Status, detail)
		}

		if time.Now().After(deadline) {
			return Entry{}, fmt.Errorf("entry %s still %s after %v", fileID, er.Status, c.pollTimeout)
		}

		select {
		case <-ctx.Done():
			return Entry{}, ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

// doJSON sends one JSON request and decodes the response into out when
// out is non-nil.
func (c *Client) doJSON(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := httputil.DoWithRetry(ctx, c.http, req, 0)
	if err != nil {
		return fmt.Errorf("index API request: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing index API response: %w", err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("OpenAI-Beta", "assistants=v2")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
}

// checkStatus maps non-2xx responses to errors, folding the API's error
// message in when one is present.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var apiErr apiErrorResponse
	message := ""
	if data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)); err == nil {
		if json.Unmarshal(data, &apiErr) == nil {
			message = apiErr.Error.Message
		}
	}

	if resp.StatusCode == http.StatusNotFound {
		if message != "" {
			return fmt.Errorf("%s: %w", message, ErrNotFound)
		}
		return ErrNotFound
	}
	if message != "" {
		return fmt.Errorf("index API returned HTTP %d: %s", resp.StatusCode, message)
	}
	return fmt.Errorf("index API returned HTTP %d", resp.StatusCode)
}

// Index API JSON structures.
type collectionResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

type fileResponse struct {
	ID string `json:"id"`
}

type entryResponse struct {
	ID        string          `json:"id"`
	Status    string          `json:"status"`
	CreatedAt int64           `json:"created_at"`
	LastError *entryLastError `json:"last_error"`
}

type entryLastError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type listResponse struct {
	Data    []entryResponse `json:"data"`
	HasMore bool            `json:"has_more"`
	LastID  string          `json:"last_id"`
}

type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}
