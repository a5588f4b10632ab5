// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/docsync/pkg/types"
)

func testClient(baseURL string) *Client {
	return NewClient(types.IndexConfig{
		HTTPConfig:   types.HTTPConfig{UserAgent: "docsync-test/0.1"},
		BaseURL:      baseURL,
		APIKey:       "sk-test",
		PollInterval: time.Millisecond,
		PollTimeout:  time.Second,
	})
}

// --- NewClient defaults ---

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(types.IndexConfig{})
	if c.baseURL != defaultBaseURL {
		t.Errorf("baseURL = %q, want %q", c.baseURL, defaultBaseURL)
	}
	if c.pollInterval <= 0 || c.pollTimeout <= 0 {
		t.Error("poll settings should have defaults")
	}

	c = NewClient(types.IndexConfig{BaseURL: "https://example.com/v1/"})
	if c.baseURL != "https://example.com/v1" {
		t.Errorf("baseURL = %q, trailing slash should be trimmed", c.baseURL)
	}
}

// --- Collection.Usable ---

func TestCollectionUsable(t *testing.T) {
	tests := []struct {
		name string
		coll Collection
		want bool
	}{
		{"completed collection", Collection{ID: "vs-1", Status: "completed"}, true},
		{"in-progress collection", Collection{ID: "vs-1", Status: "in_progress"}, true},
		{"expired collection", Collection{ID: "vs-1", Status: "expired"}, false},
		{"zero value", Collection{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.coll.Usable(); got != tt.want {
				t.Errorf("Usable() = %v, want %v", got, tt.want)
			}
		})
	}
}

// --- RetrieveCollection ---

func TestRetrieveCollection(t *testing.T) {
	var gotAuth, gotBeta, gotAgent string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotBeta = r.Header.Get("OpenAI-Beta")
		gotAgent = r.Header.Get("User-Agent")
		if r.Method != http.MethodGet || r.URL.Path != "/vector_stores/vs-123" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		fmt.Fprint(w, `{"id":"vs-123","name":"support docs","status":"completed"}`)
	}))
	defer ts.Close()

	coll, err := testClient(ts.URL).RetrieveCollection(context.Background(), "vs-123")
	if err != nil {
		t.Fatalf("RetrieveCollection: %v", err)
	}
	if coll.ID != "vs-123" || coll.Name != "support docs" || coll.Status != "completed" {
		t.Errorf("collection = %+v", coll)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotBeta != "assistants=v2" {
		t.Errorf("OpenAI-Beta = %q", gotBeta)
	}
	if gotAgent != "docsync-test/0.1" {
		t.Errorf("User-Agent = %q", gotAgent)
	}
}

func TestRetrieveCollectionNotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":{"message":"No vector store found with id 'vs-gone'.","type":"invalid_request_error"}}`)
	}))
	defer ts.Close()

	_, err := testClient(ts.URL).RetrieveCollection(context.Background(), "vs-gone")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if !strings.Contains(err.Error(), "vs-gone") {
		t.Errorf("error should carry the API message, got: %v", err)
	}
}

func TestRetrieveCollectionServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	_, err := testClient(ts.URL).RetrieveCollection(context.Background(), "vs-123")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("a 500 must not look like ErrNotFound")
	}
	if !strings.Contains(err.Error(), "HTTP 500") {
		t.Errorf("error = %v, should name the status", err)
	}
}

// --- CreateCollection ---

func TestCreateCollection(t *testing.T) {
	var gotBody string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/vector_stores" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		fmt.Fprint(w, `{"id":"vs-new","name":"Support FAQ","status":"completed"}`)
	}))
	defer ts.Close()

	coll, err := testClient(ts.URL).CreateCollection(context.Background(), "Support FAQ")
	if err != nil {
		t.Fatalf("CreateCollection: %v", err)
	}
	if coll.ID != "vs-new" {
		t.Errorf("ID = %q, want vs-new", coll.ID)
	}
	if !strings.Contains(gotBody, `"name":"Support FAQ"`) {
		t.Errorf("request body = %q", gotBody)
	}
}

// --- Ingest ---

// fakeIndex serves the upload/attach/poll endpoints for Ingest tests.
type fakeIndex struct {
	uploadedName    string
	uploadedContent string
	uploadedPurpose string
	attachedFileID  string
	polls           int
	pollsToComplete int
	finalStatus     string
	lastErrorMsg    string
}

func (f *fakeIndex) server(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /files", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parsing multipart upload: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.uploadedPurpose = r.FormValue("purpose")
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("reading upload file part: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		content, _ := io.ReadAll(file)
		f.uploadedName = header.Filename
		f.uploadedContent = string(content)
		fmt.Fprint(w, `{"id":"file-001","object":"file"}`)
	})

	mux.HandleFunc("POST /vector_stores/vs-123/files", func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body := string(data)
		if !strings.Contains(body, `"file_id":"file-001"`) {
			t.Errorf("attach body = %q", body)
		}
		f.attachedFileID = "file-001"
		fmt.Fprint(w, `{"id":"file-001","status":"in_progress","vector_store_id":"vs-123"}`)
	})

	mux.HandleFunc("GET /vector_stores/vs-123/files/file-001", func(w http.ResponseWriter, _ *http.Request) {
		f.polls++
		if f.polls <= f.pollsToComplete {
			fmt.Fprint(w, `{"id":"file-001","status":"in_progress","created_at":1700000000}`)
			return
		}
		switch f.finalStatus {
		case StatusFailed, StatusCancelled:
			fmt.Fprintf(w, `{"id":"file-001","status":%q,"created_at":1700000000,"last_error":{"code":"server_error","message":%q}}`,
				f.finalStatus, f.lastErrorMsg)
		default:
			fmt.Fprint(w, `{"id":"file-001","status":"completed","created_at":1700000000}`)
		}
	})

	return httptest.NewServer(mux)
}

func TestIngest(t *testing.T) {
	fake := &fakeIndex{pollsToComplete: 2}
	ts := fake.server(t)
	defer ts.Close()

	entry, err := testClient(ts.URL).Ingest(context.Background(), "vs-123", "getting-started.md", []byte("# Getting Started\n"))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if entry.ID != "file-001" {
		t.Errorf("entry ID = %q, want file-001", entry.ID)
	}
	if entry.Status != StatusCompleted {
		t.Errorf("entry status = %q, want completed", entry.Status)
	}
	if fake.uploadedName != "getting-started.md" {
		t.Errorf("uploaded name = %q", fake.uploadedName)
	}
	if fake.uploadedContent != "# Getting Started\n" {
		t.Errorf("uploaded content = %q", fake.uploadedContent)
	}
	if fake.uploadedPurpose != "assistants" {
		t.Errorf("uploaded purpose = %q", fake.uploadedPurpose)
	}
	if fake.attachedFileID != "file-001" {
		t.Error("entry was never attached to the collection")
	}
	// Two pending polls plus the terminal one.
	if fake.polls != 3 {
		t.Errorf("polls = %d, want 3", fake.polls)
	}
}

func TestIngestFailedEntry(t *testing.T) {
	fake := &fakeIndex{finalStatus: StatusFailed, lastErrorMsg: "file could not be parsed"}
	ts := fake.server(t)
	defer ts.Close()

	_, err := testClient(ts.URL).Ingest(context.Background(), "vs-123", "bad.md", []byte("x"))
	if err == nil {
		t.Fatal("expected error for failed entry")
	}
	if !strings.Contains(err.Error(), "failed") || !strings.Contains(err.Error(), "file could not be parsed") {
		t.Errorf("error = %v, should carry terminal status and detail", err)
	}
}

func TestIngestCancelledEntry(t *testing.T) {
	fake := &fakeIndex{finalStatus: StatusCancelled}
	ts := fake.server(t)
	defer ts.Close()

	_, err := testClient(ts.URL).Ingest(context.Background(), "vs-123", "doc.md", []byte("x"))
	if err == nil || !strings.Contains(err.Error(), "cancelled") {
		t.Errorf("error = %v, should report cancellation", err)
	}
}

func TestIngestPollTimeout(t *testing.T) {
	// Entry never leaves in_progress.
	fake := &fakeIndex{pollsToComplete: 1 << 30}
	ts := fake.server(t)
	defer ts.Close()

	c := NewClient(types.IndexConfig{
		BaseURL:      ts.URL,
		APIKey:       "sk-test",
		PollInterval: time.Millisecond,
		PollTimeout:  20 * time.Millisecond,
	})

	_, err := c.Ingest(context.Background(), "vs-123", "slow.md", []byte("x"))
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !strings.Contains(err.Error(), "still in_progress") {
		t.Errorf("error = %v, should report the stuck status", err)
	}
}

func TestIngestUploadError(t *testing.T) {
	var attachCalled bool
	mux := http.NewServeMux()
	mux.HandleFunc("POST /files", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"Invalid file format."}}`)
	})
	mux.HandleFunc("POST /vector_stores/", func(_ http.ResponseWriter, _ *http.Request) {
		attachCalled = true
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	_, err := testClient(ts.URL).Ingest(context.Background(), "vs-123", "doc.md", []byte("x"))
	if err == nil {
		t.Fatal("expected upload error")
	}
	if !strings.Contains(err.Error(), "Invalid file format") {
		t.Errorf("error = %v, should carry API message", err)
	}
	if attachCalled {
		t.Error("failed upload must not be attached")
	}
}

func TestIngestContextCancelled(t *testing.T) {
	fake := &fakeIndex{pollsToComplete: 1 << 30}
	ts := fake.server(t)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	c := NewClient(types.IndexConfig{
		BaseURL:      ts.URL,
		APIKey:       "sk-test",
		PollInterval: 500 * time.Millisecond,
		PollTimeout:  time.Minute,
	})

	_, err := c.Ingest(ctx, "vs-123", "doc.md", []byte("x"))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want context deadline", err)
	}
}

// --- DeleteEntry ---

func TestDeleteEntry(t *testing.T) {
	var gotMethod, gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		fmt.Fprint(w, `{"id":"file-001","object":"vector_store.file.deleted","deleted":true}`)
	}))
	defer ts.Close()

	err := testClient(ts.URL).DeleteEntry(context.Background(), "vs-123", "file-001")
	if err != nil {
		t.Fatalf("DeleteEntry: %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/vector_stores/vs-123/files/file-001" {
		t.Errorf("request = %s %s", gotMethod, gotPath)
	}
}

func TestDeleteEntryNotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":{"message":"No file found."}}`)
	}))
	defer ts.Close()

	err := testClient(ts.URL).DeleteEntry(context.Background(), "vs-123", "file-gone")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

// --- ListEntries ---

func TestListEntriesPaginates(t *testing.T) {
	var afters []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		after := r.URL.Query().Get("after")
		afters = append(afters, after)
		if after == "" {
			fmt.Fprint(w, `{"object":"list","data":[
				{"id":"file-001","status":"completed","created_at":1700000000},
				{"id":"file-002","status":"completed","created_at":1700000100}
			],"first_id":"file-001","last_id":"file-002","has_more":true}`)
			return
		}
		fmt.Fprint(w, `{"object":"list","data":[
			{"id":"file-003","status":"in_progress","created_at":1700000200}
		],"first_id":"file-003","last_id":"file-003","has_more":false}`)
	}))
	defer ts.Close()

	entries, err := testClient(ts.URL).ListEntries(context.Background(), "vs-123")
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("len(entries) = %d, want 3", len(entries))
	}
	if entries[0].ID != "file-001" || entries[2].ID != "file-003" {
		t.Errorf("entries = %+v", entries)
	}
	if entries[2].Status != "in_progress" {
		t.Errorf("entry status = %q", entries[2].Status)
	}
	if entries[0].CreatedAt != time.Unix(1700000000, 0).UTC() {
		t.Errorf("CreatedAt = %v", entries[0].CreatedAt)
	}
	if len(afters) != 2 || afters[1] != "file-002" {
		t.Errorf("pagination cursors = %v, want second request after=file-002", afters)
	}
}

func TestListEntriesEmpty(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"object":"list","data":[],"has_more":false}`)
	}))
	defer ts.Close()

	entries, err := testClient(ts.URL).ListEntries(context.Background(), "vs-123")
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("len(entries) = %d, want 0", len(entries))
	}
}
