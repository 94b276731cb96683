package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/dgallion1/parsegest/internal/parsednode"
	"github.com/dgallion1/parsegest/internal/resource"
)

// Worker parses uploaded sources for queued jobs.
type Worker struct {
	factory *Factory
	log     *slog.Logger
}

func NewWorker(factory *Factory, log *slog.Logger) *Worker {
	return &Worker{factory: factory, log: log}
}

// Process parses the job's upload into its target type. The upload is
// served from memory under its filename, so the parser is chosen by
// extension as for any other source.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename, "type", job.TypeName)
	start := time.Now()

	job.SetStatus(StatusParsing)
	mem := resource.NewMemory(nil)
	mem.Put(job.Filename, job.FileData())

	result, err := w.factory.WithResources(mem).ParsePath(ctx, job.Filename, job.target)
	if err != nil {
		log.Warn("parse failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		job.Fail(err.Error(), LocationOf(err))
		return
	}

	log.Info("parse complete", "duration_ms", time.Since(start).Milliseconds())
	job.Complete(result)
}

// LocationOf returns the source position of the problem node carried by
// err, or nil when there is none.
func LocationOf(err error) *Location {
	n := parsednode.ProblemNodeOf(err)
	if n == nil {
		return nil
	}
	return &Location{
		File:   n.FileName,
		Line:   n.LineNumber,
		Column: n.ColumnNumber,
		Path:   n.Path(),
	}
}
