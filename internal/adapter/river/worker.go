package river

import (
	"context"
	"log/slog"

	"github.com/riverqueue/river"
)

// ChangeWorker records change jobs in the log.
type ChangeWorker struct {
	river.WorkerDefaults[ChangeJobArgs]
	logger *slog.Logger
}

// Work processes a single change job.
func (w *ChangeWorker) Work(ctx context.Context, job *river.Job[ChangeJobArgs]) error {
	w.logger.InfoContext(ctx, "record changed",
		"kind", job.Args.RecordKind,
		"action", job.Args.Action,
		"record_id", job.Args.RecordID,
		"owner_id", job.Args.OwnerID,
		"job_id", job.ID,
		"attempt", job.Attempt,
	)
	return nil
}
