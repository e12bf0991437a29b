package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rockguard/portal-server-go/internal/flash"
	"github.com/rockguard/portal-server-go/internal/repository"
)

// Flash entries live one redirect hop; anything older was abandoned.
const flashMaxAge = 10 * time.Minute

type CleanupJob struct {
	sessionRepo repository.SessionRepository
	flashes     *flash.Store
	interval    time.Duration
	done        chan struct{}
}

func NewCleanupJob(
	sessionRepo repository.SessionRepository,
	flashes *flash.Store,
	interval time.Duration,
) *CleanupJob {
	return &CleanupJob{
		sessionRepo: sessionRepo,
		flashes:     flashes,
		interval:    interval,
		done:        make(chan struct{}),
	}
}

func (j *CleanupJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("cleanup job started")
}

func (j *CleanupJob) Stop() {
	close(j.done)
	log.Info().Msg("cleanup job stopped")
}

func (j *CleanupJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.cleanup()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.cleanup()
		}
	}
}

func (j *CleanupJob) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if count, err := j.sessionRepo.DeleteExpired(ctx); err != nil {
		log.Error().Err(err).Msg("failed to cleanup sessions")
	} else if count > 0 {
		log.Info().Int64("count", count).Msg("cleaned up sessions")
	}

	if count := j.flashes.PurgeStale(flashMaxAge); count > 0 {
		log.Info().Int64("count", count).Msg("cleaned up flash entries")
	}
}
