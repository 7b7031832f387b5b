package di

import (
	"fmt"

	"github.com/aristath/dealerledger/internal/config"
	"github.com/aristath/dealerledger/internal/scheduler"
	"github.com/rs/zerolog"
)

// RegisterJobs creates the background jobs and schedules them on sched.
// sched may be nil, in which case jobs are only created.
func RegisterJobs(container *Container, cfg *config.Config, sched *scheduler.Scheduler, log zerolog.Logger) (*JobInstances, error) {
	if container == nil {
		return nil, fmt.Errorf("container cannot be nil")
	}

	instances := &JobInstances{
		OverdueSweep:  scheduler.NewOverdueSweepJob(container.Reconciler, container.EventManager, log),
		WALCheckpoint: scheduler.NewWALCheckpointJob(log, container.LedgerDB, container.ConfigDB),
	}
	if container.Archiver != nil {
		instances.ExportArchive = scheduler.NewExportArchiveJob(
			container.Reconciler,
			container.Archiver,
			cfg.Archive.Bucket,
			container.EventManager,
			log,
		)
	}

	if sched == nil {
		return instances, nil
	}

	if err := sched.AddJob(cfg.OverdueSweepSchedule, instances.OverdueSweep); err != nil {
		return nil, fmt.Errorf("failed to schedule overdue sweep: %w", err)
	}
	if err := sched.AddJob(cfg.WALCheckpointSchedule, instances.WALCheckpoint); err != nil {
		return nil, fmt.Errorf("failed to schedule WAL checkpoint: %w", err)
	}
	if instances.ExportArchive != nil {
		if err := sched.AddJob(cfg.Archive.Schedule, instances.ExportArchive); err != nil {
			return nil, fmt.Errorf("failed to schedule export archive: %w", err)
		}
	}

	return instances, nil
}
