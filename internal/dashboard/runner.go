package dashboard

import (
	"context"
	"log/slog"
	"time"

	"github.com/san-kum/neurodash/internal/controller"
	"github.com/san-kum/neurodash/internal/log"
	"github.com/san-kum/neurodash/internal/neuro"
	"github.com/san-kum/neurodash/internal/timeutil"
)

// Poller produces one snapshot per call. Implementations fill a failed
// sensor with neuro.Missing rather than failing the whole poll.
type Poller interface {
	Poll(ctx context.Context) (neuro.Snapshot, error)
}

// Recorder persists snapshots. The runner never waits on it.
type Recorder interface {
	Record(ctx context.Context, at time.Time, snap neuro.Snapshot) error
}

type RunnerConfig struct {
	PollInterval time.Duration
	TickInterval time.Duration
	// RecordQueue bounds pending writes; a full queue drops the snapshot.
	RecordQueue int
}

// Runner drives an Engine from a ticker and a poller. The engine is only
// touched from the Run goroutine; polling and recording happen elsewhere.
type Runner struct {
	engine   *Engine
	poller   Poller
	recorder Recorder
	clock    timeutil.Clock
	cfg      RunnerConfig
	logger   *slog.Logger

	inbox    chan Event
	records  chan record
	onResult func(controller.Result, *Engine)
}

type record struct {
	at   time.Time
	snap neuro.Snapshot
}

func NewRunner(engine *Engine, poller Poller, recorder Recorder, clock timeutil.Clock, cfg RunnerConfig, logger *slog.Logger) *Runner {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = cfg.PollInterval
	}
	if cfg.RecordQueue <= 0 {
		cfg.RecordQueue = 64
	}
	return &Runner{
		engine:   engine,
		poller:   poller,
		recorder: recorder,
		clock:    clock,
		cfg:      cfg,
		logger:   log.Component(logger, "runner"),
		inbox:    make(chan Event, 64),
		records:  make(chan record, cfg.RecordQueue),
	}
}

// OnResult registers a callback invoked on the Run goroutine after every
// evaluated trigger.
func (r *Runner) OnResult(fn func(controller.Result, *Engine)) {
	r.onResult = fn
}

// Submit queues a host event. Events queued together are dispatched as
// one batch.
func (r *Runner) Submit(ctx context.Context, ev Event) error {
	select {
	case r.inbox <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run blocks until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	snaps := make(chan neuro.Snapshot, 1)
	done := make(chan struct{}, 2)

	go func() {
		r.poll(ctx, snaps)
		done <- struct{}{}
	}()
	if r.recorder != nil {
		go func() {
			r.record(ctx)
			done <- struct{}{}
		}()
	} else {
		done <- struct{}{}
	}

	ticker := r.clock.NewTicker(r.cfg.TickInterval)
	defer ticker.Stop()

	r.logger.Info("runner started", "poll", r.cfg.PollInterval, "tick", r.cfg.TickInterval)
	for {
		select {
		case <-ctx.Done():
			<-done
			<-done
			r.logger.Info("runner stopped", "stats", r.engine.Stats())
			return nil
		case s := <-snaps:
			r.emit(r.engine.OnSnapshot(s))
		case <-ticker.C():
			r.emit(r.engine.OnTick())
		case ev := <-r.inbox:
			batch := []Event{ev}
		drain:
			for {
				select {
				case more := <-r.inbox:
					batch = append(batch, more)
				default:
					break drain
				}
			}
			for _, res := range r.engine.Dispatch(batch) {
				r.emit(res)
			}
		}
	}
}

func (r *Runner) emit(res controller.Result) {
	if r.onResult != nil {
		r.onResult(res, r.engine)
	}
}

func (r *Runner) poll(ctx context.Context, out chan<- neuro.Snapshot) {
	ticker := r.clock.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
		}

		snap, err := r.poller.Poll(ctx)
		if err != nil {
			r.logger.Warn("poll failed", "error", err)
			continue
		}

		if r.recorder != nil {
			select {
			case r.records <- record{at: r.clock.Now(), snap: snap.Clone()}:
			default:
				r.logger.Warn("record queue full, dropping snapshot")
			}
		}

		select {
		case out <- snap:
		case <-ctx.Done():
			return
		}
	}
}

func (r *Runner) record(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case rec := <-r.records:
			if err := r.recorder.Record(ctx, rec.at, rec.snap); err != nil {
				r.logger.Error("record failed", "error", err)
			}
		}
	}
}
