package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// IdleSweeper closes forms and confirmations nobody touched for a while.
type IdleSweeper interface {
	SweepIdle(now time.Time) (forms, gates int)
}

// FormSweeper releases abandoned forms and their staged images on a fixed
// interval.
type FormSweeper struct {
	forms    IdleSweeper
	interval time.Duration
	now      func() time.Time
}

// NewFormSweeper constructs a FormSweeper.
func NewFormSweeper(forms IdleSweeper, interval time.Duration) *FormSweeper {
	return &FormSweeper{
		forms:    forms,
		interval: interval,
		now:      time.Now,
	}
}

// Start begins the sweep loop and listens for context cancellation.
func (w *FormSweeper) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Msg("Starting form sweeper")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run()
		case <-ctx.Done():
			log.Info().Msg("Form sweeper stopped")
			return
		}
	}
}

func (w *FormSweeper) run() {
	forms, gates := w.forms.SweepIdle(w.now())
	if forms > 0 || gates > 0 {
		log.Info().Int("forms", forms).Int("deletions", gates).Msg("[SWEEP] Closed idle forms")
	}
}
