package driver_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/jointctl/internal/driver"
	"github.com/san-kum/jointctl/internal/engine"
	"github.com/san-kum/jointctl/internal/remote"
)

const interval = 5 * time.Millisecond

// flakySim fails every step after the first failAfter ones.
type flakySim struct {
	failAfter int64
	steps     atomic.Int64
	startErr  error
}

func (f *flakySim) StartSimulation(ctx context.Context) error { return f.startErr }

func (f *flakySim) Step(ctx context.Context) error {
	if f.steps.Add(1) > f.failAfter {
		return remote.ErrUnavailable
	}
	return nil
}

type stopRecorder struct {
	mu    sync.Mutex
	steps []uint64
	cause error
	stops int
}

func (r *stopRecorder) OnStep(n uint64) {
	r.mu.Lock()
	r.steps = append(r.steps, n)
	r.mu.Unlock()
}

func (r *stopRecorder) OnStop(cause error) {
	r.mu.Lock()
	r.cause = cause
	r.stops++
	r.mu.Unlock()
}

func (r *stopRecorder) stopCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stops
}

var _ = Describe("Driver", func() {
	var (
		sim    *engine.Memory
		d      *driver.Driver
		ctx    context.Context
		cancel context.CancelFunc
	)

	BeforeEach(func() {
		sim = engine.NewMemory("/j1")
		d = driver.New(sim, interval)
		ctx, cancel = context.WithCancel(context.Background())
		DeferCleanup(cancel)
	})

	It("starts idle", func() {
		Expect(d.State()).To(Equal(driver.Idle))
		Expect(d.Steps()).To(BeZero())
		Expect(d.Cause()).To(BeNil())
	})

	It("starts the session and keeps stepping", func() {
		go d.Run(ctx)

		Eventually(d.State).Should(Equal(driver.Running))
		Eventually(sim.Running).Should(BeTrue())
		Eventually(d.Steps).Should(BeNumerically(">=", 3))
		Expect(sim.Steps()).To(BeNumerically(">=", 3))
	})

	It("paces steps by the interval", func() {
		slow := driver.New(sim, 50*time.Millisecond)
		go slow.Run(ctx)

		Eventually(slow.Steps).Should(BeNumerically(">=", 1))
		Consistently(slow.Steps, 30*time.Millisecond, 5*time.Millisecond).Should(BeNumerically("<=", 2))
	})

	It("stops when the context is cancelled", func() {
		go d.Run(ctx)
		Eventually(d.Steps).Should(BeNumerically(">=", 1))

		cancel()

		Eventually(d.Done()).Should(BeClosed())
		Expect(d.State()).To(Equal(driver.Stopped))
		Expect(d.Cause()).To(MatchError(context.Canceled))

		n := sim.Steps()
		Consistently(sim.Steps, 4*interval, interval).Should(Equal(n))
	})

	It("ends quietly when a step fails and issues no further steps", func() {
		rec := &stopRecorder{}
		flaky := &flakySim{failAfter: 3}
		fd := driver.New(flaky, interval, driver.WithObserver(rec))

		start := time.Now()
		err := fd.Run(ctx)

		Expect(err).NotTo(HaveOccurred())
		Expect(time.Since(start)).To(BeNumerically("<", 3*interval+time.Second))
		Expect(fd.State()).To(Equal(driver.Stopped))
		Expect(fd.Steps()).To(Equal(uint64(3)))
		Expect(fd.Cause()).To(MatchError(remote.ErrUnavailable))
		Expect(flaky.steps.Load()).To(Equal(int64(4)))
		Expect(rec.stopCount()).To(Equal(1))
		Expect(rec.steps).To(Equal([]uint64{1, 2, 3}))
	})

	It("exits within one interval of a disconnect", func() {
		go d.Run(ctx)
		Eventually(d.Steps).Should(BeNumerically(">=", 2))

		sim.Disconnect()

		Eventually(d.Done(), 2*interval+50*time.Millisecond).Should(BeClosed())
		Expect(remote.IsUnavailable(d.Cause())).To(BeTrue())
	})

	It("stops when the session is stopped underneath it", func() {
		go d.Run(ctx)
		Eventually(d.Steps).Should(BeNumerically(">=", 1))

		Expect(sim.StopSimulation(context.Background())).To(Succeed())

		Eventually(d.Done()).Should(BeClosed())
		Expect(errors.Is(d.Cause(), engine.ErrNotRunning)).To(BeTrue())
	})

	It("stops without stepping when the session cannot start", func() {
		flaky := &flakySim{failAfter: 100, startErr: remote.ErrUnavailable}
		fd := driver.New(flaky, interval)

		Expect(fd.Run(ctx)).To(Succeed())
		Expect(fd.State()).To(Equal(driver.Stopped))
		Expect(flaky.steps.Load()).To(BeZero())
	})

	It("cannot be restarted", func() {
		cancel()
		Expect(d.Run(ctx)).To(Succeed())
		Expect(d.Run(context.Background())).To(MatchError(driver.ErrNotResumable))
		Expect(d.State()).To(Equal(driver.Stopped))
	})

	It("falls back to the default interval", func() {
		Expect(driver.New(sim, 0).Interval()).To(Equal(driver.DefaultInterval))
	})
})
