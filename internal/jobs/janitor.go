package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/driftline/chatrelay/internal/repository"
)

// JanitorJob periodically stamps end_time on sessions whose connection died
// without a clean close. It is hygiene only: closed-by-janitor sessions do
// not get a summarization pass.
type JanitorJob struct {
	sessions repository.SessionRepository
	interval time.Duration
	maxAge   time.Duration
	done     chan struct{}
}

func NewJanitorJob(sessions repository.SessionRepository, interval, maxAge time.Duration) *JanitorJob {
	return &JanitorJob{
		sessions: sessions,
		interval: interval,
		maxAge:   maxAge,
		done:     make(chan struct{}),
	}
}

func (j *JanitorJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("janitor job started")
}

func (j *JanitorJob) Stop() {
	close(j.done)
	log.Info().Msg("janitor job stopped")
}

func (j *JanitorJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.sweep()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.sweep()
		}
	}
}

func (j *JanitorJob) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := j.sessions.CloseAbandoned(ctx, time.Now().Add(-j.maxAge))
	if err != nil {
		log.Error().Err(err).Msg("failed to close abandoned sessions")
	} else if count > 0 {
		log.Info().Int64("count", count).Msg("closed abandoned sessions")
	}
}
