package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/revyard/quizgest/internal/extract"
	"github.com/revyard/quizgest/internal/parser"
	"github.com/revyard/quizgest/internal/quizbank"
)

// Worker processes a single document job.
type Worker struct {
	bank     *quizbank.Store // nil when the quiz bank is disabled
	stats    *extract.RunStats
	log      *slog.Logger
	parseOpt parser.Options
}

func NewWorker(bank *quizbank.Store, stats *extract.RunStats, log *slog.Logger, parseOpt parser.Options) *Worker {
	return &Worker{
		bank:     bank,
		stats:    stats,
		log:      log,
		parseOpt: parseOpt,
	}
}

// Process runs the full ingest pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID)
	started := time.Now()

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(job.Filename, w.parseOpt)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	doc, err := p.Parse(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	title := doc.Title
	if job.Title != "" {
		title = job.Title
	}

	// Hash the parsed text, not the raw bytes, so re-encoded copies of the
	// same document dedup.
	hash := ContentHashHex([]byte(doc.Root.Text()))
	job.SetContentHash(hash)

	// Phase 1.5: Dedup check against the quiz bank.
	if w.bank != nil && !job.Force {
		existingID, found, err := w.bank.FindByHash(ctx, hash)
		if err != nil {
			log.Warn("dedup check failed, proceeding", "error", err)
		} else if found {
			log.Info("duplicate document, skipping", "existing_doc_id", existingID)
			job.SetStatus(StatusDupSkipped, "dedup")
			return
		}
	}

	// Phase 2: Extract
	job.SetStatus(StatusExtracting, "extracting")
	records := extract.Extract(doc)
	job.SetExtracted(len(records))
	log.Info("extraction complete", "records", len(records))

	if len(records) == 0 {
		w.stats.Record(time.Since(started), 0, extract.Report{})
		job.AddError("no quiz records found")
		job.SetStatus(StatusFailed, "extracting")
		return
	}

	// Phase 3: Validate
	job.SetStatus(StatusValidating, "validating")
	rep := extract.Validate(records)
	job.SetFindings(rep.ErrorCount, rep.WarnCount)
	w.stats.Record(time.Since(started), len(records), rep)
	log.Info("validation complete", "errors", rep.ErrorCount, "warnings", rep.WarnCount)

	// Phase 4: Store in the quiz bank.
	if w.bank != nil {
		job.SetStatus(StatusStoring, "storing")
		entry := quizbank.Entry{
			DocID:        job.DocID,
			Title:        title,
			Source:       job.Filename,
			ContentHash:  hash,
			Records:      records,
			ErrorCount:   rep.ErrorCount,
			WarningCount: rep.WarnCount,
			CreatedAt:    job.CreatedAt,
		}
		if err := w.bank.Save(ctx, entry); err != nil {
			log.Error("quiz bank save failed", "error", err)
			job.AddError(fmt.Sprintf("store: %s", err))
			job.SetStatus(StatusFailed, "storing")
			return
		}
		job.SetStored(len(records))
		log.Info("stored in quiz bank", "records", len(records))
	}

	if rep.ErrorCount > 0 {
		job.SetStatus(StatusPartial, "done")
	} else {
		job.SetStatus(StatusCompleted, "done")
	}
}
