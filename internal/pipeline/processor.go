// Package pipeline wires the workflow stages in order: keyword selection,
// report submission, polling, article generation, publishing, writeback.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/seyi-falode/blogpilot/constants"
	"github.com/seyi-falode/blogpilot/internal/common"
	"github.com/seyi-falode/blogpilot/internal/journal"
	"github.com/seyi-falode/blogpilot/internal/llm"
	"github.com/seyi-falode/blogpilot/internal/pop"
	"github.com/seyi-falode/blogpilot/internal/tracker"
)

// Source supplies the next keyword and receives results.
type Source interface {
	NextPending() (*tracker.Row, error)
	UpdateResult(rowIndex int, status, docURL string, score float64) error
	MarkFailed(rowIndex int, status string) error
}

// Submitter starts the remote report job.
type Submitter interface {
	Submit(ctx context.Context, keyword string) (string, error)
}

// Poller waits for the report job to finish.
type Poller interface {
	Wait(ctx context.Context, taskID string) (*pop.StatusReport, error)
}

// Publisher writes the article to the document store.
type Publisher interface {
	Publish(ctx context.Context, title, text string) (string, error)
}

// Processor runs one keyword through the whole workflow. Every stage is
// fire-once; only the poller has internal recovery. Errors are returned
// typed to the caller, which owns exit behavior.
type Processor struct {
	Source    Source
	Submitter Submitter
	Poller    Poller
	Generator llm.Generator
	Publisher Publisher
	Journal   journal.Store // nil disables the journal
	Persona   string
	Logger    *slog.Logger
}

// Run processes the next pending keyword. It returns
// common.ErrNoPendingKeyword when the sheet has no work, which the caller
// treats as a clean exit.
func (p *Processor) Run(ctx context.Context) error {
	log := p.Logger
	if log == nil {
		log = slog.Default()
	}

	row, err := p.Source.NextPending()
	if err != nil {
		if errors.Is(err, common.ErrNoPendingKeyword) {
			log.Info("pipeline.no_pending_keywords")
		}
		return err
	}
	log.Info("pipeline.run.start", "keyword", row.Keyword, "row", row.Index)

	run := journal.Run{
		ID:        uuid.New().String(),
		Keyword:   row.Keyword,
		Status:    constants.RunStatusPending,
		StartedAt: time.Now().UTC(),
	}

	taskID, err := p.Submitter.Submit(ctx, row.Keyword)
	if err != nil {
		return p.fail(ctx, log, run, row, err)
	}
	run.Status = constants.RunStatusSubmitted
	log.Info("pipeline.submitted", "keyword", row.Keyword, "task_id", taskID)

	run.Status = constants.RunStatusPolling
	rep, err := p.Poller.Wait(ctx, taskID)
	if err != nil {
		return p.fail(ctx, log, run, row, err)
	}
	log.Info("pipeline.report_ready", "keyword", row.Keyword, "score", rep.Score)

	article, err := p.Generator.GenerateArticle(ctx, llm.ArticleRequest{
		Keyword: row.Keyword,
		Persona: p.Persona,
		Brief:   rep.Content,
	})
	if err != nil {
		return p.fail(ctx, log, run, row, err)
	}
	log.Info("pipeline.article_generated", "keyword", row.Keyword, "chars", len(article.Text))

	docURL, err := p.Publisher.Publish(ctx, row.Keyword, article.Text)
	if err != nil {
		return p.fail(ctx, log, run, row, err)
	}

	if err := p.Source.UpdateResult(row.Index, constants.SheetStatusReady, docURL, rep.Score); err != nil {
		return p.fail(ctx, log, run, row, common.NewAppError(common.CodeDownstream, "update source row", err))
	}

	run.Status = constants.RunStatusReady
	run.DocURL = docURL
	run.Score = rep.Score
	run.FinishedAt = time.Now().UTC()
	p.record(ctx, log, run)

	log.Info("pipeline.run.ok", "keyword", row.Keyword, "doc_url", docURL, "score", rep.Score)
	return nil
}

// fail stamps the source row and the journal before propagating the stage
// error. The row write is best effort: the original error always wins.
func (p *Processor) fail(ctx context.Context, log *slog.Logger, run journal.Run, row *tracker.Row, err error) error {
	code := common.CodeOf(err)
	log.Error("pipeline.run.failed", "keyword", row.Keyword, "code", code, "error", err)

	status := constants.SheetStatusFailed
	if code != "" {
		status = constants.SheetStatusFailed + ": " + code
	}
	if werr := p.Source.MarkFailed(row.Index, status); werr != nil {
		log.Error("pipeline.mark_failed_error", "row", row.Index, "error", werr)
	}

	if code == common.CodeTimeout {
		run.Status = constants.RunStatusTimedOut
	} else {
		run.Status = constants.RunStatusFailed
	}
	run.Error = err.Error()
	run.FinishedAt = time.Now().UTC()
	p.record(ctx, log, run)
	return err
}

func (p *Processor) record(ctx context.Context, log *slog.Logger, run journal.Run) {
	if p.Journal == nil {
		return
	}
	if err := p.Journal.Record(ctx, run); err != nil {
		// Journal trouble must not change the run outcome.
		log.Warn("pipeline.journal_error", "run_id", run.ID, "error", err)
	}
}
