package scheduler

import (
	"github.com/rs/zerolog"
)

// Checkpointer is a database that can checkpoint its WAL.
type Checkpointer interface {
	Name() string
	WALCheckpoint(mode string) error
}

// WALCheckpointJob truncates the WAL files of the given databases.
type WALCheckpointJob struct {
	databases []Checkpointer
	log       zerolog.Logger
}

// NewWALCheckpointJob creates a WAL checkpoint job.
func NewWALCheckpointJob(log zerolog.Logger, databases ...Checkpointer) *WALCheckpointJob {
	return &WALCheckpointJob{
		databases: databases,
		log:       log.With().Str("job", "wal_checkpoint").Logger(),
	}
}

// Name returns the job name
func (j *WALCheckpointJob) Name() string {
	return "wal_checkpoint"
}

// Run checkpoints every database. A failure on one database does not stop
// the others; the first error is returned.
func (j *WALCheckpointJob) Run() error {
	var firstErr error
	for _, db := range j.databases {
		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			j.log.Error().Err(err).Str("database", db.Name()).Msg("WAL checkpoint failed")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		j.log.Debug().Str("database", db.Name()).Msg("WAL checkpoint completed")
	}
	return firstErr
}
