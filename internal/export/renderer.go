package export

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPRenderer posts batches to the renderer service.
type HTTPRenderer struct {
	client *resty.Client
}

// NewHTTPRenderer creates a renderer client for baseURL.
func NewHTTPRenderer(baseURL string, timeout time.Duration) *HTTPRenderer {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	return &HTTPRenderer{client: client}
}

type renderError struct {
	Message string `json:"message"`
}

// Render sends the batch. Any non-2xx answer is an error.
func (r *HTTPRenderer) Render(ctx context.Context, batch *Batch) error {
	var failure renderError
	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(batch).
		SetError(&failure).
		Post("/v1/batches")
	if err != nil {
		return fmt.Errorf("failed to reach renderer: %w", err)
	}
	if resp.IsError() {
		if failure.Message != "" {
			return fmt.Errorf("renderer rejected batch %s: %d %s", batch.Code, resp.StatusCode(), failure.Message)
		}
		return fmt.Errorf("renderer rejected batch %s: %d", batch.Code, resp.StatusCode())
	}
	return nil
}
