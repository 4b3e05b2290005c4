package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/forme-app/forme/internal/pipeline"
	"github.com/forme-app/forme/internal/storage"
)

// JobStore abstracts the job queue operations.
type JobStore interface {
	ClaimNextJob(types []string) (*storage.Job, error)
	CompleteJob(id string) error
	FailJob(id string, errMsg string) error
}

// LabelAnalyzer runs the scoring pipeline on extracted label text.
// Implemented by pipeline.Analyzer.
type LabelAnalyzer interface {
	Analyze(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

// Worker processes label_ingest jobs from the SQLite job queue: each job
// names a label document to extract and analyze for one user.
type Worker struct {
	store    JobStore
	analyzer LabelAnalyzer
	poll     time.Duration
	logger   *slog.Logger
}

// NewWorker creates a Worker with the given dependencies.
// If pollInterval is <= 0, it defaults to 500ms.
func NewWorker(store JobStore, analyzer LabelAnalyzer, pollInterval time.Duration) *Worker {
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	return &Worker{
		store:    store,
		analyzer: analyzer,
		poll:     pollInterval,
		logger:   slog.Default(),
	}
}

// Run polls for jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		done, err := w.RunOnce(ctx)
		if err != nil {
			w.logger.Error("worker iteration failed", "error", err)
		}
		if done {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.poll):
		}
	}
}

// RunOnce claims and processes a single label_ingest job.
// Returns true if a job was processed (regardless of success/failure).
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	job, err := w.store.ClaimNextJob([]string{"label_ingest"})
	if err != nil {
		return false, fmt.Errorf("claiming job: %w", err)
	}
	if job == nil {
		return false, nil
	}

	if err := w.processJob(ctx, job); err != nil {
		w.logger.Warn("job failed", "job_id", job.ID, "error", err)
		if failErr := w.store.FailJob(job.ID, err.Error()); failErr != nil {
			w.logger.Error("failed to mark job as failed", "job_id", job.ID, "error", failErr)
		}
		return true, nil
	}

	if err := w.store.CompleteJob(job.ID); err != nil {
		return true, fmt.Errorf("completing job %s: %w", job.ID, err)
	}
	return true, nil
}

// LabelJobPayload is the payload of a label_ingest job.
type LabelJobPayload struct {
	UserID       string `json:"user_id"`
	Path         string `json:"path"`
	ProductName  string `json:"product_name,omitempty"`
	CategoryHint string `json:"category_hint,omitempty"`
}

func (w *Worker) processJob(ctx context.Context, job *storage.Job) error {
	var payload LabelJobPayload
	if err := json.Unmarshal([]byte(job.PayloadJSON), &payload); err != nil {
		return fmt.Errorf("parsing payload: %w", err)
	}
	if payload.UserID == "" {
		return fmt.Errorf("payload missing user_id")
	}

	text, err := ExtractText(payload.Path)
	if err != nil {
		return fmt.Errorf("extracting label %s: %w", payload.Path, err)
	}

	res, err := w.analyzer.Analyze(ctx, pipeline.Request{
		UserID:       payload.UserID,
		RawText:      IngredientsSection(text),
		ProductName:  payload.ProductName,
		CategoryHint: payload.CategoryHint,
	})
	if err != nil {
		return fmt.Errorf("analyzing label %s: %w", payload.Path, err)
	}

	w.logger.Info("label analyzed",
		"job_id", job.ID,
		"user_id", payload.UserID,
		"analysis_id", res.AnalysisID,
		"for_me_score", res.Score.ForMeScore,
	)
	return nil
}
