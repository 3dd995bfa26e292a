package classapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/korjavin/tgclasses/internal/schema"
)

// APIError is a non-success response from the class service. Message is
// the server-provided detail when present, otherwise a generic
// per-action fallback supplied by the caller.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// Client talks to the class service REST API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Client for the given base URL. timeout of 0 leaves
// requests without a deadline; callers bound them via context if needed.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// ListClasses fetches the full class collection.
func (c *Client) ListClasses(ctx context.Context) ([]schema.Class, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/classes", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build list request: %w", err)
	}

	var classes []schema.Class
	if err := c.do(req, &classes, "Failed to load classes"); err != nil {
		return nil, err
	}
	return classes, nil
}

// GetClass fetches a single class by id. Caching is explicitly bypassed
// so the view always reflects the latest server state.
func (c *Client) GetClass(ctx context.Context, id int64) (*schema.Class, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/classes/"+strconv.FormatInt(id, 10), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build get request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	var class schema.Class
	if err := c.do(req, &class, "Failed to load class details"); err != nil {
		return nil, err
	}
	return &class, nil
}

// CreateClass submits a new class.
func (c *Client) CreateClass(ctx context.Context, body schema.ClassCreateRequest) (*schema.Class, error) {
	req, err := c.jsonRequest(ctx, http.MethodPost, "/api/classes", body)
	if err != nil {
		return nil, err
	}

	var class schema.Class
	if err := c.do(req, &class, "Failed to create class"); err != nil {
		return nil, err
	}
	return &class, nil
}

// UpdateClass submits edited fields for an existing class.
func (c *Client) UpdateClass(ctx context.Context, id int64, body schema.ClassUpdateRequest) (*schema.Class, error) {
	req, err := c.jsonRequest(ctx, http.MethodPut, "/api/classes/"+strconv.FormatInt(id, 10), body)
	if err != nil {
		return nil, err
	}

	var class schema.Class
	if err := c.do(req, &class, "Failed to update class"); err != nil {
		return nil, err
	}
	return &class, nil
}

// DeleteClass cancels a class. The actor travels as a query parameter,
// matching the service contract.
func (c *Client) DeleteClass(ctx context.Context, id int64, deleterTelegramID int64) error {
	u := c.baseURL + "/api/classes/" + strconv.FormatInt(id, 10) +
		"?deleter_telegram_id=" + url.QueryEscape(strconv.FormatInt(deleterTelegramID, 10))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return fmt.Errorf("failed to build delete request: %w", err)
	}
	return c.do(req, nil, "Failed to cancel class")
}

// SubmitRSVP records an attendance response for a class.
func (c *Client) SubmitRSVP(ctx context.Context, classID int64, body schema.RsvpRequest) error {
	req, err := c.jsonRequest(ctx, http.MethodPost, "/api/classes/"+strconv.FormatInt(classID, 10)+"/rsvp", body)
	if err != nil {
		return err
	}
	return c.do(req, nil, "Failed to RSVP")
}

// PostQuestion appends a question to a class's thread.
func (c *Client) PostQuestion(ctx context.Context, classID int64, body schema.QuestionCreateRequest) error {
	req, err := c.jsonRequest(ctx, http.MethodPost, "/api/classes/"+strconv.FormatInt(classID, 10)+"/questions", body)
	if err != nil {
		return err
	}
	return c.do(req, nil, "Failed to add question")
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// do executes the request. Non-2xx statuses become an *APIError carrying
// the server's detail message when one is present; out can be nil when
// the response body is not needed.
func (c *Client) do(req *http.Request, out any, fallbackMsg string) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return &APIError{StatusCode: 0, Message: fallbackMsg}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.Body, fallbackMsg),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// errorMessage extracts the server's detail field, falling back to the
// generic per-action message when the body carries none.
func errorMessage(r io.Reader, fallback string) string {
	var body schema.ErrorResponse
	if err := json.NewDecoder(r).Decode(&body); err == nil && body.Detail != "" {
		return body.Detail
	}
	return fallback
}
