package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/scoutdash/scout/internal/modules/discovery"
)

// captureRunTimeout bounds a whole scheduled run, covering every per-symbol
// feature fetch.
const captureRunTimeout = 5 * time.Minute

// CaptureJob triggers a discovery capture run on each tick, gated to the
// scan window. The startup run is issued separately via RunNow with the gate
// bypassed, so a restart outside market hours still warms the cache.
type CaptureJob struct {
	capture *discovery.CaptureService
	window  *ScanWindow
	gated   bool
	log     zerolog.Logger
}

// NewCaptureJob creates the scheduled, window-gated capture job.
func NewCaptureJob(capture *discovery.CaptureService, window *ScanWindow, log zerolog.Logger) *CaptureJob {
	return &CaptureJob{
		capture: capture,
		window:  window,
		gated:   true,
		log:     log.With().Str("job", "capture").Logger(),
	}
}

// NewStartupCaptureJob creates an ungated variant for the immediate run at
// process start.
func NewStartupCaptureJob(capture *discovery.CaptureService, log zerolog.Logger) *CaptureJob {
	return &CaptureJob{
		capture: capture,
		log:     log.With().Str("job", "capture_startup").Logger(),
	}
}

// Name returns the job name
func (j *CaptureJob) Name() string {
	if j.gated {
		return "discovery_capture"
	}
	return "discovery_capture_startup"
}

// Run triggers one capture run. Outside the scan window the tick is a no-op.
// A run already in progress is not a failure, the next tick will catch up.
func (j *CaptureJob) Run() error {
	if j.gated && !j.window.Contains(time.Now()) {
		j.log.Debug().Msg("Outside scan window, skipping tick")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), captureRunTimeout)
	defer cancel()

	result, err := j.capture.TriggerRun(ctx)
	if err != nil {
		if errors.Is(err, discovery.ErrAlreadyRunning) {
			j.log.Debug().Msg("Capture already running, skipping tick")
			return nil
		}
		return err
	}

	j.log.Info().
		Str("session_id", result.SessionID).
		Int("scanned", result.Scanned).
		Int("kept", len(result.Kept)).
		Msg("Scheduled capture run completed")

	return nil
}
