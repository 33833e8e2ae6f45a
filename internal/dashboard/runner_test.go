package dashboard_test

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/neurodash/internal/controller"
	"github.com/san-kum/neurodash/internal/dashboard"
	"github.com/san-kum/neurodash/internal/log"
	"github.com/san-kum/neurodash/internal/neuro"
	"github.com/san-kum/neurodash/internal/timeutil"
)

type fakePoller struct {
	mu    sync.Mutex
	calls int
}

func (p *fakePoller) Poll(ctx context.Context) (neuro.Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return reading(float64(p.calls), 50), nil
}

type fakeRecorder struct {
	mu   sync.Mutex
	seen int
	err  error
}

func (r *fakeRecorder) Record(ctx context.Context, at time.Time, snap neuro.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen++
	return r.err
}

func (r *fakeRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seen
}

type resultLog struct {
	mu      sync.Mutex
	actions []controller.Action
}

func (l *resultLog) add(res controller.Result, _ *dashboard.Engine) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.actions = append(l.actions, res.Action)
}

func (l *resultLog) count(a controller.Action) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, got := range l.actions {
		if got == a {
			n++
		}
	}
	return n
}

var _ = Describe("Runner", func() {
	var (
		clock    *timeutil.MockClock
		poller   *fakePoller
		recorder *fakeRecorder
		results  *resultLog
		runner   *dashboard.Runner
		cancel   context.CancelFunc
		stopped  chan error
	)

	BeforeEach(func() {
		clock = timeutil.NewMockClock(time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC))
		poller = &fakePoller{}
		recorder = &fakeRecorder{err: errors.New("disk full")}
		results = &resultLog{}

		engine := dashboard.New(testSurfaces(), testOptions(), clock, log.Discard())
		runner = dashboard.NewRunner(engine, poller, recorder, clock, dashboard.RunnerConfig{
			PollInterval: time.Second,
			TickInterval: 500 * time.Millisecond,
		}, log.Discard())
		runner.OnResult(results.add)

		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())
		stopped = make(chan error, 1)
		go func() { stopped <- runner.Run(ctx) }()
	})

	AfterEach(func() {
		cancel()
		Eventually(stopped).Should(Receive(BeNil()))
	})

	It("polls, records and evaluates on the clock", func() {
		Eventually(func() int {
			clock.Advance(500 * time.Millisecond)
			return results.count(controller.Patch)
		}).Should(BeNumerically(">=", 2))

		Expect(results.count(controller.Rebuild)).To(BeNumerically(">=", 1))
		Eventually(recorder.count).Should(BeNumerically(">=", 1))
	})

	It("dispatches submitted events", func() {
		Expect(runner.Submit(context.Background(), dashboard.Event{Kind: dashboard.EventDisplay, Display: controller.AllSensors()})).To(Succeed())
		Eventually(func() int { return results.count(controller.Rebuild) }).Should(BeNumerically(">=", 1))
	})
})
