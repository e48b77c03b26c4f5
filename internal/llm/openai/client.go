package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/seyi-falode/blogpilot/internal/common"
	"github.com/seyi-falode/blogpilot/internal/llm"
)

// GenerateArticle implements llm.Generator using chat/completions. One call,
// no retry: a failed or empty completion is fatal to the run.
func (c *Client) GenerateArticle(ctx context.Context, req llm.ArticleRequest) (llm.Article, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("llm.generate.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"keyword", req.Keyword,
		"brief_len", len(req.Brief),
	)

	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": c.cfg.Temperature,
		"messages": []map[string]any{
			{"role": "system", "content": llm.BuildSystemPrompt(req)},
			{"role": "user", "content": llm.BuildUserPrompt(req)},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	raw, _, err := llm.SendJSON(ctx, c.httpClient, endpoint, body, headers, c.log)
	if err != nil {
		c.log.Error("llm.generate.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.Article{}, common.NewAppError(common.CodeDownstream, "llm completion", err)
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.log.Error("llm.generate.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.Article{}, common.NewAppError(common.CodeDownstream,
			"decode completion response", fmt.Errorf("decode openai response: %w", err))
	}
	if len(cc.Choices) == 0 {
		c.log.Error("llm.generate.no_choices",
			"req_id", rid, "raw", string(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.Article{}, common.NewAppError(common.CodeDownstream,
			"no choices in completion response", nil)
	}

	text := strings.TrimSpace(cc.Choices[0].Message.Content)
	if text == "" {
		c.log.Error("llm.generate.empty_content", "req_id", rid)
		return llm.Article{}, common.NewAppError(common.CodeDownstream,
			"completion returned empty content", nil)
	}

	c.log.Info("llm.generate.ok",
		"req_id", rid,
		"chars", len(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return llm.Article{Text: text}, nil
}
