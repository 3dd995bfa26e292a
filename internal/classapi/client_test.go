package classapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/korjavin/tgclasses/internal/schema"
)

// recorded captures the pieces of a request the contract cares about.
type recorded struct {
	method string
	path   string
	query  string
	header http.Header
	body   []byte
}

func newRecordingServer(t *testing.T, status int, response any) (*Client, *recorded) {
	t.Helper()
	rec := &recorded{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.query = r.URL.RawQuery
		rec.header = r.Header.Clone()
		rec.body, _ = io.ReadAll(r.Body)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(response)
	}))
	t.Cleanup(ts.Close)
	return New(ts.URL, 0), rec
}

func TestRequestShapes(t *testing.T) {
	classTime := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		call       func(c *Client) error
		response   any
		wantMethod string
		wantPath   string
		wantQuery  string
	}{
		{
			name: "list",
			call: func(c *Client) error {
				_, err := c.ListClasses(context.Background())
				return err
			},
			response:   []schema.Class{},
			wantMethod: http.MethodGet,
			wantPath:   "/api/classes",
		},
		{
			name: "get",
			call: func(c *Client) error {
				_, err := c.GetClass(context.Background(), 12)
				return err
			},
			wantMethod: http.MethodGet,
			wantPath:   "/api/classes/12",
		},
		{
			name: "create",
			call: func(c *Client) error {
				_, err := c.CreateClass(context.Background(), schema.ClassCreateRequest{
					Topic: "Algebra", ClassTime: classTime, CreatorTelegramID: 42,
				})
				return err
			},
			wantMethod: http.MethodPost,
			wantPath:   "/api/classes",
		},
		{
			name: "update",
			call: func(c *Client) error {
				_, err := c.UpdateClass(context.Background(), 12, schema.ClassUpdateRequest{UpdaterTelegramID: 42})
				return err
			},
			wantMethod: http.MethodPut,
			wantPath:   "/api/classes/12",
		},
		{
			name: "delete carries the actor as a query parameter",
			call: func(c *Client) error {
				return c.DeleteClass(context.Background(), 12, 42)
			},
			wantMethod: http.MethodDelete,
			wantPath:   "/api/classes/12",
			wantQuery:  "deleter_telegram_id=42",
		},
		{
			name: "rsvp",
			call: func(c *Client) error {
				return c.SubmitRSVP(context.Background(), 12, schema.RsvpRequest{TelegramID: 42, Status: schema.StatusYes})
			},
			wantMethod: http.MethodPost,
			wantPath:   "/api/classes/12/rsvp",
		},
		{
			name: "question",
			call: func(c *Client) error {
				return c.PostQuestion(context.Background(), 12, schema.QuestionCreateRequest{Text: "?", AuthorTelegramID: 42})
			},
			wantMethod: http.MethodPost,
			wantPath:   "/api/classes/12/questions",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			response := tt.response
			if response == nil {
				response = schema.Class{ID: 12, ClassTime: classTime}
			}
			client, rec := newRecordingServer(t, http.StatusOK, response)
			if err := tt.call(client); err != nil {
				t.Fatalf("call error = %v", err)
			}
			if rec.method != tt.wantMethod {
				t.Errorf("method = %s, want %s", rec.method, tt.wantMethod)
			}
			if rec.path != tt.wantPath {
				t.Errorf("path = %s, want %s", rec.path, tt.wantPath)
			}
			if rec.query != tt.wantQuery {
				t.Errorf("query = %q, want %q", rec.query, tt.wantQuery)
			}
		})
	}
}

func TestGetClassBypassesCaches(t *testing.T) {
	client, rec := newRecordingServer(t, http.StatusOK, schema.Class{ID: 1})

	if _, err := client.GetClass(context.Background(), 1); err != nil {
		t.Fatalf("GetClass() error = %v", err)
	}
	if got := rec.header.Get("Cache-Control"); got != "no-cache" {
		t.Errorf("Cache-Control = %q, want no-cache", got)
	}
	if got := rec.header.Get("Pragma"); got != "no-cache" {
		t.Errorf("Pragma = %q, want no-cache", got)
	}
}

func TestMutationsCarryJSONBodies(t *testing.T) {
	client, rec := newRecordingServer(t, http.StatusOK, schema.Class{ID: 1})

	err := client.SubmitRSVP(context.Background(), 1, schema.RsvpRequest{
		TelegramID: 42, Status: schema.StatusTentative, FirstName: "Alice", Username: "alice",
	})
	if err != nil {
		t.Fatalf("SubmitRSVP() error = %v", err)
	}

	if got := rec.header.Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", got)
	}
	var sent schema.RsvpRequest
	if err := json.Unmarshal(rec.body, &sent); err != nil {
		t.Fatalf("body is not valid JSON: %v", err)
	}
	if sent.TelegramID != 42 || sent.Status != schema.StatusTentative || sent.Username != "alice" {
		t.Errorf("body round-trip mismatch: %+v", sent)
	}
}

func TestErrorDetailExtraction(t *testing.T) {
	client, _ := newRecordingServer(t, http.StatusBadRequest, schema.ErrorResponse{Detail: "topic required"})

	_, err := client.CreateClass(context.Background(), schema.ClassCreateRequest{})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", apiErr.StatusCode, http.StatusBadRequest)
	}
	if apiErr.Message != "topic required" {
		t.Errorf("message = %q, want the server detail", apiErr.Message)
	}
}

func TestErrorFallbackMessages(t *testing.T) {
	tests := []struct {
		name string
		call func(c *Client) error
		want string
	}{
		{"list", func(c *Client) error { _, err := c.ListClasses(context.Background()); return err }, "Failed to load classes"},
		{"get", func(c *Client) error { _, err := c.GetClass(context.Background(), 1); return err }, "Failed to load class details"},
		{"create", func(c *Client) error { _, err := c.CreateClass(context.Background(), schema.ClassCreateRequest{}); return err }, "Failed to create class"},
		{"update", func(c *Client) error { _, err := c.UpdateClass(context.Background(), 1, schema.ClassUpdateRequest{}); return err }, "Failed to update class"},
		{"delete", func(c *Client) error { return c.DeleteClass(context.Background(), 1, 42) }, "Failed to cancel class"},
		{"rsvp", func(c *Client) error { return c.SubmitRSVP(context.Background(), 1, schema.RsvpRequest{}) }, "Failed to RSVP"},
		{"question", func(c *Client) error { return c.PostQuestion(context.Background(), 1, schema.QuestionCreateRequest{}) }, "Failed to add question"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Empty error body: the per-action fallback stands in.
			client, _ := newRecordingServer(t, http.StatusInternalServerError, map[string]string{})
			err := tt.call(client)
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error = %v, want *APIError", err)
			}
			if apiErr.Message != tt.want {
				t.Errorf("message = %q, want %q", apiErr.Message, tt.want)
			}
		})
	}
}

func TestTransportFailureUsesFallback(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	client := New(ts.URL, 0)
	ts.Close()

	_, err := client.ListClasses(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != 0 {
		t.Errorf("status = %d, want 0 for transport failure", apiErr.StatusCode)
	}
	if apiErr.Message != "Failed to load classes" {
		t.Errorf("message = %q, want the list fallback", apiErr.Message)
	}
}
