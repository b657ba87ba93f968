package feeder

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nhdewitt/statfeed/internal/collector"
	"github.com/nhdewitt/statfeed/internal/config"
	"github.com/nhdewitt/statfeed/internal/gpu"
	"github.com/nhdewitt/statfeed/internal/protocol"
)

type staticConfig struct{}

func (staticConfig) Port() string           { return "COM4" }
func (staticConfig) Baud() int              { return 115200 }
func (staticConfig) GPUEnabled() bool       { return false }
func (staticConfig) GPUIndex() int          { return 0 }
func (staticConfig) DiskScaleMBps() float64 { return 200 }
func (staticConfig) Volumes() []string      { return []string{"C", "D"} }

type fakeSink struct {
	mu       sync.Mutex
	writes   [][]byte
	failFrom int // fail on write number failFrom (1-based), 0 = never
	closed   bool
}

func (s *fakeSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFrom > 0 && len(s.writes)+1 >= s.failFrom {
		return 0, errors.New("port vanished")
	}
	buf := make([]byte, len(p))
	copy(buf, p)
	s.writes = append(s.writes, buf)
	return len(p), nil
}

func (s *fakeSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSink) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.writes)
}

type fakeStatus struct {
	mu    sync.Mutex
	lines []string
}

func (f *fakeStatus) Log(msg string, replace bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines = append(f.lines, msg)
}

func (f *fakeStatus) contains(sub string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.lines {
		if strings.Contains(l, sub) {
			return true
		}
	}
	return false
}

type releasableGPU struct {
	released bool
}

func (g *releasableGPU) Read(index int) (gpu.Reading, bool) { return gpu.Reading{}, false }
func (g *releasableGPU) Release()                           { g.released = true }

// newTestFeeder wires a feeder with hermetic collection and time hooks.
func newTestFeeder(sink *fakeSink, status *fakeStatus, gpus GPUSource, onExit func()) *Feeder {
	f := New(
		staticConfig{},
		func(port string, baud int) (io.WriteCloser, error) { return sink, nil },
		gpus,
		status,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		onExit,
	)
	f.Interval = time.Millisecond
	f.prime = func(context.Context, *collector.RateTracker) {}
	f.collect = func(ctx context.Context, snap config.Snapshot, tracker *collector.RateTracker, gpus collector.GPUReader) protocol.Sample {
		return protocol.Unavailable(len(snap.Volumes))
	}
	return f
}

func TestRun_WritesFramesUntilStopped(t *testing.T) {
	sink := &fakeSink{}
	status := &fakeStatus{}
	gpus := &releasableGPU{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	f := newTestFeeder(sink, status, gpus, nil)
	go func() { done <- f.Run(ctx) }()

	for sink.writeCount() < 3 {
		time.Sleep(time.Millisecond)
	}
	cancel()

	if err := <-done; err != nil {
		t.Fatalf("Run() error on clean stop: %v", err)
	}

	sink.mu.Lock()
	frame := string(sink.writes[0])
	sink.mu.Unlock()
	if frame != "0.0,0.0,0.0,0.0,0.00,-999.0,-999.0,-1,-1\n" {
		t.Errorf("frame = %q", frame)
	}

	if !gpus.released {
		t.Error("GPU source not released on exit")
	}
	if !sink.closed {
		t.Error("sink not closed on exit")
	}
	if !status.contains("Connected: COM4 @ 115200") {
		t.Error("missing connected status line")
	}
	if !status.contains("Disconnected.") {
		t.Error("missing disconnected status line")
	}
}

func TestRun_WriteFailureIsFatal(t *testing.T) {
	sink := &fakeSink{failFrom: 2}
	status := &fakeStatus{}
	gpus := &releasableGPU{}

	exits := 0
	f := newTestFeeder(sink, status, gpus, func() { exits++ })

	err := f.Run(context.Background())
	if err == nil {
		t.Fatal("Run() = nil error after write failure")
	}

	if sink.writeCount() != 1 {
		t.Errorf("writes = %d, want 1 before the failure", sink.writeCount())
	}
	if exits != 1 {
		t.Errorf("lifecycle callback fired %d times, want 1", exits)
	}
	if !gpus.released {
		t.Error("GPU source not released after fatal write")
	}
	if !sink.closed {
		t.Error("sink not closed after fatal write")
	}
	if !status.contains("Serial write failed") {
		t.Error("missing write-failure status line")
	}
}

func TestRun_OpenFailureNeverStartsLoop(t *testing.T) {
	status := &fakeStatus{}
	gpus := &releasableGPU{}

	exits := 0
	f := New(
		staticConfig{},
		func(port string, baud int) (io.WriteCloser, error) { return nil, errors.New("no such port") },
		gpus,
		status,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		func() { exits++ },
	)

	if err := f.Run(context.Background()); err == nil {
		t.Fatal("Run() = nil error for unopenable port")
	}

	if exits != 1 {
		t.Errorf("lifecycle callback fired %d times, want 1", exits)
	}
	if gpus.released {
		t.Error("GPU released although the loop never started")
	}
	if !status.contains("could not open COM4") {
		t.Error("missing open-failure status line")
	}
	if status.contains("Disconnected.") {
		t.Error("disconnect reported although never connected")
	}
}

func TestRun_SlowTickStartsNextImmediately(t *testing.T) {
	sink := &fakeSink{}
	status := &fakeStatus{}

	f := newTestFeeder(sink, status, &releasableGPU{}, nil)
	f.Interval = 10 * time.Millisecond

	// Simulated clock: each tick's work appears to take 12.5ms against a
	// 10ms interval.
	fake := time.Unix(0, 0)
	f.now = func() time.Time {
		fake = fake.Add(12500 * time.Microsecond)
		return fake
	}

	var slept []time.Duration
	f.sleep = func(d time.Duration) { slept = append(slept, d) }

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		for sink.writeCount() < 5 {
			time.Sleep(100 * time.Microsecond)
		}
		cancel()
	}()

	if err := f.Run(ctx); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	for _, d := range slept {
		t.Errorf("paced sleep of %v during overrun, want none", d)
	}
	if sink.writeCount() < 5 {
		t.Errorf("writes = %d, want >= 5 (ticks delayed, never skipped)", sink.writeCount())
	}
}

func TestRun_PacingSleepsRemainder(t *testing.T) {
	sink := &fakeSink{}
	f := newTestFeeder(sink, &fakeStatus{}, &releasableGPU{}, nil)
	f.Interval = 10 * time.Millisecond

	// now() runs twice per tick, so each tick's work appears to take 2ms.
	fake := time.Unix(0, 0)
	f.now = func() time.Time {
		fake = fake.Add(2 * time.Millisecond)
		return fake
	}

	var mu sync.Mutex
	var slept []time.Duration
	f.sleep = func(d time.Duration) {
		mu.Lock()
		slept = append(slept, d)
		mu.Unlock()
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		for sink.writeCount() < 3 {
			time.Sleep(100 * time.Microsecond)
		}
		cancel()
	}()

	if err := f.Run(ctx); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(slept) == 0 {
		t.Fatal("no paced sleeps recorded")
	}
	for _, d := range slept {
		if d != 8*time.Millisecond {
			t.Errorf("sleep = %v, want 8ms remainder", d)
		}
	}
}
