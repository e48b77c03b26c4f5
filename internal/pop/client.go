package pop

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/seyi-falode/blogpilot/internal/common"
)

// Config for the Page Optimizer Pro client.
type Config struct {
	APIKey         string // if empty, Submit will be rejected remotely
	BaseURL        string // default https://app.pageoptimizer.pro
	LocationName   string // e.g. "United Kingdom"
	TargetURL      string
	TargetLanguage string
	Timeout        time.Duration // per-request http timeout
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://app.pageoptimizer.pro"
	}
	if cfg.LocationName == "" {
		cfg.LocationName = "United Kingdom"
	}
	if cfg.TargetLanguage == "" {
		cfg.TargetLanguage = "english"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logger,
	}
}

// Submit starts a report job for the keyword and returns its task id.
// Single attempt: a rejected or unreadable acknowledgement fails the run.
func (c *Client) Submit(ctx context.Context, keyword string) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	body := map[string]any{
		"apiKey":         c.cfg.APIKey,
		"keyword":        keyword,
		"locationName":   c.cfg.LocationName,
		"targetUrl":      c.cfg.TargetURL,
		"targetLanguage": c.cfg.TargetLanguage,
	}
	c.log.Info("pop.submit.start", "req_id", rid, "keyword", keyword, "location", c.cfg.LocationName)

	raw, err := c.postJSON(ctx, c.endpoint("/api/expose/get-terms/"), body)
	if err != nil {
		c.log.Error("pop.submit.http_error", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return "", common.NewAppError(common.CodeTransport, "submit report job", err)
	}
	c.log.Debug("pop.submit.response", "req_id", rid, "raw", string(raw))

	ack, err := parseSubmitAck(raw)
	if err != nil {
		c.log.Error("pop.submit.decode_error", "req_id", rid, "error", err)
		return "", common.NewAppError(common.CodeTransport, "parse submit ack", err)
	}
	if ack.Status != "SUCCESS" {
		c.log.Error("pop.submit.rejected", "req_id", rid, "status", ack.Status, "msg", ack.Msg)
		return "", common.NewAppError(common.CodeRejected,
			fmt.Sprintf("report API rejected submission: %s", ack.Msg), nil)
	}
	taskID := ack.taskIDString()
	if taskID == "" {
		c.log.Error("pop.submit.missing_task_id", "req_id", rid, "raw", string(raw))
		return "", common.NewAppError(common.CodeTransport, "submit ack carried no task id", nil)
	}

	c.log.Info("pop.submit.ok", "req_id", rid, "task_id", taskID,
		"elapsed_ms", time.Since(start).Milliseconds())
	return taskID, nil
}

// FetchStatus performs one status poll for the task. Every raw payload is
// logged at debug level for postmortem diagnosis.
func (c *Client) FetchStatus(ctx context.Context, taskID string) (*StatusReport, error) {
	url := c.endpoint("/api/task/" + taskID + "/results/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch task status: %w", err)
	}
	defer func(body io.ReadCloser) {
		if cerr := body.Close(); cerr != nil {
			c.log.Warn("pop.fetch.body_close_error", "task_id", taskID, "error", cerr)
		}
	}(resp.Body)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read status body: %w", err)
	}
	c.log.Debug("pop.fetch.response", "task_id", taskID, "status", resp.StatusCode, "raw", string(raw))

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("non-2xx status: %d", resp.StatusCode)
	}
	return parseStatus(raw)
}

func (c *Client) postJSON(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	bs, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bs))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func(body io.ReadCloser) {
		if cerr := body.Close(); cerr != nil {
			c.log.Warn("pop.http.body_close_error", "error", cerr)
		}
	}(resp.Body)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("non-2xx status %d: %s", resp.StatusCode, string(raw))
	}
	return raw, nil
}

func (c *Client) endpoint(path string) string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + path
}
