// Package feeder drives the collect→encode→transmit cycle at a fixed
// cadence and owns the connection lifecycle: open the link, pace the
// ticks, release everything on the way out.
package feeder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nhdewitt/statfeed/internal/collector"
	"github.com/nhdewitt/statfeed/internal/config"
	"github.com/nhdewitt/statfeed/internal/protocol"
)

// DefaultInterval paces the loop at 5 Hz.
const DefaultInterval = 200 * time.Millisecond

// LogSink receives the human-readable status lines. replace=true asks the
// sink to overwrite its previous line instead of appending (live status).
type LogSink interface {
	Log(msg string, replace bool)
}

// SinkOpener opens the transport sink for a port identity and line rate.
type SinkOpener func(port string, baud int) (io.WriteCloser, error)

// GPUSource is the resolved GPU capability: queried per tick, released
// once when the connection ends.
type GPUSource interface {
	collector.GPUReader
	Release()
}

// Feeder runs one connection. A single goroutine calls Run; the feeder is
// the sole owner of the tracker, the GPU state and the sink for the
// duration of that call.
type Feeder struct {
	Interval time.Duration

	cfg    config.Provider
	open   SinkOpener
	gpus   GPUSource
	status LogSink
	logger *slog.Logger

	exitOnce sync.Once
	onExit   func()

	// Time hooks, swappable in tests.
	now   func() time.Time
	sleep func(time.Duration)

	// Collection hooks, swappable in tests.
	prime   func(context.Context, *collector.RateTracker)
	collect func(context.Context, config.Snapshot, *collector.RateTracker, collector.GPUReader) protocol.Sample
}

func New(cfg config.Provider, open SinkOpener, gpus GPUSource, status LogSink, logger *slog.Logger, onExit func()) *Feeder {
	if logger == nil {
		logger = slog.Default()
	}
	if onExit == nil {
		onExit = func() {}
	}
	return &Feeder{
		Interval: DefaultInterval,
		cfg:      cfg,
		open:     open,
		gpus:     gpus,
		status:   status,
		logger:   logger,
		onExit:   onExit,
		now:      time.Now,
		sleep:    time.Sleep,
		prime:    collector.Prime,
		collect:  collector.Collect,
	}
}

// Run opens the sink and paces ticks until ctx is canceled or a write
// fails. The lifecycle callback fires exactly once on any return path,
// including an open failure.
func (f *Feeder) Run(ctx context.Context) error {
	defer f.exitOnce.Do(f.onExit)

	session := uuid.NewString()[:8]
	snap := config.Take(f.cfg)

	sink, err := f.open(snap.Port, snap.Baud)
	if err != nil {
		f.status.Log(fmt.Sprintf("ERROR: could not open %s: %v", snap.Port, err), false)
		f.logger.Error("open failed", "session", session, "port", snap.Port, "err", err)
		return fmt.Errorf("opening %s: %w", snap.Port, err)
	}

	f.status.Log(fmt.Sprintf("Connected: %s @ %d", snap.Port, snap.Baud), false)
	f.logger.Info("connected", "session", session, "port", snap.Port, "baud", snap.Baud)

	defer func() {
		f.gpus.Release()
		if err := sink.Close(); err != nil {
			f.logger.Warn("sink close", "session", session, "err", err)
		}
		f.status.Log("Disconnected.", false)
		f.logger.Info("disconnected", "session", session)
	}()

	tracker := &collector.RateTracker{}
	f.prime(ctx, tracker)

	for {
		// Stop is cooperative: observed here, once per cycle.
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		start := f.now()

		snap = config.Take(f.cfg)
		sample := f.collect(ctx, snap, tracker, f.gpus)

		if _, err := sink.Write(protocol.Encode(sample)); err != nil {
			// The link is gone; reconnection is the operator's call.
			f.status.Log(fmt.Sprintf("Serial write failed: %v", err), false)
			f.logger.Error("write failed", "session", session, "err", err)
			return fmt.Errorf("writing frame: %w", err)
		}

		f.status.Log(protocol.StatusLine(sample, snap.Volumes), true)

		// A slow tick starts the next one immediately. Ticks are delayed,
		// never skipped or batched.
		if wait := f.Interval - f.now().Sub(start); wait > 0 {
			f.sleep(wait)
		}
	}
}
