package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"relaycrm/api/internal/repository"
)

// Scheduler runs periodic maintenance jobs alongside the HTTP server.
type Scheduler struct {
	cron     *cron.Cron
	sessions *repository.SessionRepository
	log      zerolog.Logger
}

func NewScheduler(sessions *repository.SessionRepository, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		sessions: sessions,
		log:      log.With().Str("component", "scheduler").Logger(),
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("@hourly", s.purgeExpiredSessions); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info().Msg("scheduler started")
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("scheduler stopped")
}

func (s *Scheduler) purgeExpiredSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	removed, err := s.sessions.DeleteExpired(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("purge expired sessions")
		return
	}
	if removed > 0 {
		s.log.Info().Int64("removed", removed).Msg("purged expired sessions")
	}
}
