package jobs

import (
	"log/slog"

	"beaconly/internal/database"
)

// MaintenanceJob performs periodic database housekeeping. The event store is
// append-only and write-heavy, so the WAL grows steadily between checkpoints.
type MaintenanceJob struct {
	dbManager *database.DBManager
	logger    *slog.Logger
}

func NewMaintenanceJob(dbManager *database.DBManager, logger *slog.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		dbManager: dbManager,
		logger:    logger,
	}
}

// Run checkpoints the write-ahead log back into the main database file.
func (j *MaintenanceJob) Run() error {
	if err := j.dbManager.CheckpointWAL("FULL"); err != nil {
		j.logger.Error("Failed to checkpoint WAL", slog.Any("error", err))
		return err
	}

	j.logger.Debug("Checkpointed WAL")
	return nil
}
