package replicate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/digkill/wallify/internal/config"
)

var ErrPredictionFailed = errors.New("prediction failed")

type Client struct {
	apiToken     string
	baseURL      string
	model        string
	httpClient   *http.Client
	log          *slog.Logger
	pollInterval time.Duration
	maxAttempts  int
}

type GenerateOptions struct {
	Prompt      string
	AspectRatio string
}

type Image struct {
	URL          string
	PredictionID string
}

func NewClient(cfg config.Config, log *slog.Logger) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		apiToken: cfg.ReplicateAPIToken,
		baseURL:  strings.TrimRight(cfg.ReplicateBaseURL, "/"),
		model:    cfg.ReplicateModel,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log:          log,
		pollInterval: 2 * time.Second,
		maxAttempts:  60,
	}
}

type prediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  json.RawMessage `json:"error"`
	URLs   struct {
		Get string `json:"get"`
	} `json:"urls"`
}

// Generate runs one text-to-image prediction and returns the first output URL.
func (c *Client) Generate(ctx context.Context, opts GenerateOptions) (*Image, error) {
	input := map[string]any{
		"prompt":         opts.Prompt,
		"aspect_ratio":   opts.AspectRatio,
		"size":           "regular",
		"width":          2048,
		"height":         2048,
		"guidance_scale": 2.5,
	}

	pred, err := c.createPrediction(ctx, map[string]any{"input": input})
	if err != nil {
		return nil, fmt.Errorf("create prediction: %w", err)
	}
	if !isTerminal(pred.Status) {
		pred, err = c.pollPrediction(ctx, pred)
		if err != nil {
			return nil, err
		}
	}
	if pred.Status != "succeeded" {
		return nil, fmt.Errorf("%w: status=%s error=%s", ErrPredictionFailed, pred.Status, truncateBody(pred.Error))
	}

	url, err := ExtractImageURL(pred.Output)
	if err != nil {
		if c.log != nil {
			c.log.Error("unexpected replicate output shape", "prediction_id", pred.ID, "output", truncateBody(pred.Output))
		}
		return nil, err
	}
	return &Image{URL: url, PredictionID: pred.ID}, nil
}

// createPrediction asks the API to hold the response until the prediction
// finishes (Prefer: wait); slow predictions come back still running.
func (c *Client) createPrediction(ctx context.Context, payload map[string]any) (*prediction, error) {
	fullURL := fmt.Sprintf("%s/v1/models/%s/predictions", c.baseURL, c.model)

	if c.log != nil {
		c.log.Info("creating replicate prediction", "url", fullURL, "model", c.model)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Prefer", "wait")

	return c.do(req)
}

func (c *Client) pollPrediction(ctx context.Context, pred *prediction) (*prediction, error) {
	fullURL := pred.URLs.Get
	if fullURL == "" {
		fullURL = fmt.Sprintf("%s/v1/predictions/%s", c.baseURL, pred.ID)
	}

	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("new request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
		req.Header.Set("Accept", "application/json")

		current, err := c.do(req)
		if err != nil {
			return nil, fmt.Errorf("get prediction: %w", err)
		}
		if isTerminal(current.Status) {
			if c.log != nil {
				c.log.Info("replicate prediction finished", "prediction_id", current.ID, "status", current.Status, "attempt", attempt+1)
			}
			return current, nil
		}
		if c.log != nil && attempt%10 == 0 {
			c.log.Info("replicate prediction pending", "prediction_id", pred.ID, "status", current.Status, "attempt", attempt+1)
		}
	}
	return nil, fmt.Errorf("prediction %s timeout after %d attempts", pred.ID, c.maxAttempts)
}

func (c *Client) do(req *http.Request) (*prediction, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("replicate request: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode >= 300 {
		if c.log != nil {
			c.log.Error("replicate request failed", "status", resp.StatusCode, "url", req.URL.String(), "body", truncateBody(rawBody))
		}
		return nil, fmt.Errorf("replicate error: status=%d body=%s", resp.StatusCode, truncateBody(rawBody))
	}

	var pred prediction
	if err := json.Unmarshal(rawBody, &pred); err != nil {
		return nil, fmt.Errorf("decode prediction: %w (body=%s)", err, truncateBody(rawBody))
	}
	if pred.ID == "" {
		return nil, fmt.Errorf("empty prediction id in response")
	}
	return &pred, nil
}

func isTerminal(status string) bool {
	switch status {
	case "succeeded", "failed", "canceled":
		return true
	}
	return false
}

func truncateBody(body []byte) string {
	const limit = 512
	s := strings.TrimSpace(string(body))
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "…"
}
