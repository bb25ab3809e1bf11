// Package jobs runs the periodic housekeeping that keeps the in-memory
// stores bounded.
package jobs

import (
	"time"

	"github.com/rs/zerolog/log"
)

// ApprovalSweeper removes entries past their TTL.
type ApprovalSweeper interface {
	Sweep() int
}

// SessionReaper drops finished delivery sessions older than a retention.
type SessionReaper interface {
	Reap(maxAge time.Duration) int
}

type SweeperJob struct {
	ledger    ApprovalSweeper
	sessions  SessionReaper
	interval  time.Duration
	retention time.Duration
	done      chan struct{}
}

func NewSweeperJob(ledger ApprovalSweeper, sessions SessionReaper, interval, retention time.Duration) *SweeperJob {
	return &SweeperJob{
		ledger:    ledger,
		sessions:  sessions,
		interval:  interval,
		retention: retention,
		done:      make(chan struct{}),
	}
}

func (j *SweeperJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("sweeper job started")
}

func (j *SweeperJob) Stop() {
	close(j.done)
	log.Info().Msg("sweeper job stopped")
}

func (j *SweeperJob) run() {
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

func (j *SweeperJob) sweep() {
	if n := j.ledger.Sweep(); n > 0 {
		log.Info().Int("count", n).Msg("swept expired approval requests")
	}
	if j.sessions != nil {
		if n := j.sessions.Reap(j.retention); n > 0 {
			log.Info().Int("count", n).Msg("reaped finished delivery sessions")
		}
	}
}
