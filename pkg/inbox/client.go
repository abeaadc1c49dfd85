package inbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gathering-hub/backend/internal/apperr"
	"github.com/gathering-hub/backend/internal/models"
)

// API is the slice of the notifications endpoints the inbox needs.
type API interface {
	Recent(ctx context.Context) ([]models.Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// HTTPClient calls the /notifications endpoints with a bearer token.
type HTTPClient struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewHTTPClient returns a client for baseURL (e.g. http://localhost:8080). hc may be nil.
func NewHTTPClient(baseURL, token string, hc *http.Client) *HTTPClient {
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPClient{baseURL: strings.TrimRight(baseURL, "/"), token: token, http: hc}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (c *HTTPClient) do(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return apperr.Backend("build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.Backend(method+" "+path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.Backend("read response", err)
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return apperr.Backend(method+" "+path, fmt.Errorf("status %d: %w", resp.StatusCode, err))
	}
	if resp.StatusCode >= 300 || !env.Success {
		return statusError(resp.StatusCode, env.Error)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return apperr.Backend("decode response", err)
		}
	}
	return nil
}

func statusError(status int, msg string) error {
	if msg == "" {
		msg = http.StatusText(status)
	}
	switch status {
	case http.StatusBadRequest:
		return apperr.Validation("%s", msg)
	case http.StatusForbidden:
		return apperr.Authorization("%s", msg)
	case http.StatusNotFound:
		return &apperr.Error{Kind: apperr.KindNotFound, Message: msg}
	case http.StatusConflict:
		return apperr.Capacity("%s", msg)
	}
	return apperr.Backend("notifications api", fmt.Errorf("status %d: %s", status, msg))
}

// Recent fetches the caller's newest notifications.
func (c *HTTPClient) Recent(ctx context.Context) ([]models.Notification, error) {
	var list []models.Notification
	if err := c.do(ctx, http.MethodGet, "/notifications", &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *HTTPClient) MarkRead(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodPatch, "/notifications/"+id.String()+"/read", nil)
}

func (c *HTTPClient) Delete(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/notifications/"+id.String(), nil)
}
