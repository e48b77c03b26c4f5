// Package publish writes a generated article to the document store and
// returns its canonical reference URL.
package publish

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/seyi-falode/blogpilot/internal/common"
	"github.com/seyi-falode/blogpilot/internal/llm"
)

// Config for the Google Docs client.
type Config struct {
	BaseURL     string // default https://docs.googleapis.com
	AccessToken string // OAuth bearer token with documents scope
	Timeout     time.Duration
}

type DocsClient struct {
	cfg        Config
	httpClient *http.Client
	log        *slog.Logger
}

func NewDocsClient(cfg Config, logger *slog.Logger) *DocsClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://docs.googleapis.com"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DocsClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logger,
	}
}

// Publish creates a document titled with the keyword, inserts the article
// text at the start of the body, and returns the document URL. Two remote
// calls, each fire-once: any failure aborts the run.
func (c *DocsClient) Publish(ctx context.Context, title, text string) (string, error) {
	rid := uuid.New().String()
	start := time.Now()
	c.log.Info("publish.start", "req_id", rid, "title", title, "chars", len(text))

	headers := map[string]string{"Authorization": "Bearer " + c.cfg.AccessToken}

	createURL := c.endpoint("/v1/documents")
	raw, _, err := llm.SendJSON(ctx, c.httpClient, createURL, map[string]any{"title": title}, headers, c.log)
	if err != nil {
		c.log.Error("publish.create_error", "req_id", rid, "error", err)
		return "", common.NewAppError(common.CodeDownstream, "create document", err)
	}
	var created struct {
		DocumentID string `json:"documentId"`
	}
	if err := json.Unmarshal(raw, &created); err != nil || created.DocumentID == "" {
		c.log.Error("publish.create_decode_error", "req_id", rid, "error", err, "raw", string(raw))
		return "", common.NewAppError(common.CodeDownstream, "create document returned no id", err)
	}

	update := map[string]any{
		"requests": []map[string]any{
			{
				"insertText": map[string]any{
					"location": map[string]any{"index": 1},
					"text":     text,
				},
			},
		},
	}
	updateURL := c.endpoint("/v1/documents/" + created.DocumentID + ":batchUpdate")
	if _, _, err := llm.SendJSON(ctx, c.httpClient, updateURL, update, headers, c.log); err != nil {
		c.log.Error("publish.insert_error", "req_id", rid, "doc_id", created.DocumentID, "error", err)
		return "", common.NewAppError(common.CodeDownstream, "insert document text", err)
	}

	url := DocumentURL(created.DocumentID)
	c.log.Info("publish.ok", "req_id", rid, "doc_id", created.DocumentID, "url", url,
		"elapsed_ms", time.Since(start).Milliseconds())
	return url, nil
}

// DocumentURL derives the canonical user-facing URL for a document id.
func DocumentURL(id string) string {
	return "https://docs.google.com/document/d/" + id
}

func (c *DocsClient) endpoint(path string) string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + path
}
