package sim_test

import (
	"context"
	"errors"
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/pendsim/internal/dynamo"
	"github.com/san-kum/pendsim/internal/integrators"
	"github.com/san-kum/pendsim/internal/physics"
	"github.com/san-kum/pendsim/internal/sim"
	"github.com/san-kum/pendsim/internal/timesource"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

type recorder struct {
	ticks  []uint64
	dts    []float64
	faults []error
}

func (r *recorder) OnTick(tick uint64, dt, _ float64, _ []physics.View) {
	r.ticks = append(r.ticks, tick)
	r.dts = append(r.dts, dt)
}

func (r *recorder) OnFault(_ uint64, _ float64, err error) {
	r.faults = append(r.faults, err)
}

func mustPendulum(id int, theta, omega, length float64) *physics.Pendulum {
	p, err := physics.New(id, theta, omega, length, dynamo.Radians)
	Expect(err).NotTo(HaveOccurred())
	return p
}

var _ = Describe("Driver", func() {
	var (
		pendulums []*physics.Pendulum
		rec       *recorder
	)

	BeforeEach(func() {
		pendulums = []*physics.Pendulum{
			mustPendulum(0, 0.5, 0, 1),
			mustPendulum(1, -0.2, 0.1, 2),
		}
		rec = &recorder{}
	})

	newDriver := func(src timesource.Source, opts ...sim.DriverOption) *sim.Driver {
		s := sim.New(integrators.NewSymplecticEuler(), integrators.DefaultParams())
		d := sim.NewDriver(s, src, pendulums, opts...)
		d.AddObserver(rec)
		return d
	}

	Context("with an external source", func() {
		It("advances by the supplied frame delta", func() {
			d := newDriver(timesource.NewExternal())

			Expect(d.Tick(0.01)).To(Succeed())
			Expect(d.Tick(0.02)).To(Succeed())

			Expect(d.Ticks()).To(Equal(uint64(2)))
			Expect(d.Time()).To(BeNumerically("~", 0.03, 1e-12))
			Expect(rec.ticks).To(Equal([]uint64{1, 2}))
			Expect(rec.dts).To(Equal([]float64{0.01, 0.02}))
			Expect(d.Views()[0].Theta).NotTo(Equal(0.5))
		})

		It("fails the tick and leaves everything unchanged on a negative delta", func() {
			d := newDriver(timesource.NewExternal())
			Expect(d.Tick(0.01)).To(Succeed())
			before := d.Views()

			err := d.Tick(-0.01)
			Expect(err).To(MatchError(dynamo.ErrInvalidTimeDelta))

			var se *dynamo.StepError
			Expect(errors.As(err, &se)).To(BeTrue())
			Expect(se.Tick).To(Equal(uint64(2)))
			Expect(se.Index).To(Equal(-1))

			Expect(d.Ticks()).To(Equal(uint64(1)))
			Expect(d.Time()).To(BeNumerically("~", 0.01, 1e-12))
			Expect(d.Views()).To(Equal(before))
			Expect(rec.faults).To(HaveLen(1))
			Expect(d.Monitor().Snapshot().Faults).To(Equal(1))
		})

		It("treats a zero delta as a committed no-op tick", func() {
			d := newDriver(timesource.NewExternal())
			before := d.Views()

			Expect(d.Tick(0)).To(Succeed())
			Expect(d.Views()).To(Equal(before))
			Expect(d.Ticks()).To(Equal(uint64(1)))
		})

		It("restores the initial states on reset", func() {
			d := newDriver(timesource.NewExternal())
			initial := d.Views()
			for i := 0; i < 10; i++ {
				Expect(d.Tick(0.01)).To(Succeed())
			}

			Expect(d.Reset()).To(Succeed())
			Expect(d.Views()).To(Equal(initial))
			Expect(d.Ticks()).To(BeZero())
			Expect(d.Time()).To(BeZero())
		})
	})

	Context("with a wall clock", func() {
		var clock *fakeClock

		BeforeEach(func() {
			clock = &fakeClock{now: time.Unix(1000, 0)}
		})

		It("uses elapsed wall time and ignores the frame delta", func() {
			d := newDriver(timesource.NewWallClock(clock))

			clock.now = clock.now.Add(20 * time.Millisecond)
			Expect(d.Tick(99)).To(Succeed())
			Expect(rec.dts).To(HaveLen(1))
			Expect(rec.dts[0]).To(BeNumerically("~", 0.02, 1e-12))
		})

		It("reports a rewound clock without touching state", func() {
			d := newDriver(timesource.NewWallClock(clock))
			before := d.Views()

			clock.now = clock.now.Add(-time.Second)
			Expect(d.Tick(0)).To(MatchError(dynamo.ErrClockRewound))
			Expect(d.Views()).To(Equal(before))
			Expect(d.Ticks()).To(BeZero())
		})

		It("drops the paused interval on resume and keeps the state", func() {
			d := newDriver(timesource.NewWallClock(clock))
			clock.now = clock.now.Add(16 * time.Millisecond)
			Expect(d.Tick(0)).To(Succeed())
			before := d.Views()

			clock.now = clock.now.Add(10 * time.Second)
			d.Resume()
			Expect(d.Views()).To(Equal(before))
			Expect(d.Ticks()).To(Equal(uint64(1)))

			clock.now = clock.now.Add(16 * time.Millisecond)
			Expect(d.Tick(0)).To(Succeed())
			Expect(rec.dts).To(HaveLen(2))
			Expect(rec.dts[1]).To(BeNumerically("~", 0.016, 1e-12))
			Expect(d.Time()).To(BeNumerically("~", 0.032, 1e-12))
		})
	})

	It("does not rewind a replay source on resume", func() {
		d := newDriver(timesource.NewReplay([]float64{0.01, 0.02, 0.03}))
		Expect(d.Tick(0)).To(Succeed())
		d.Resume()
		Expect(d.Tick(0)).To(Succeed())
		Expect(rec.dts).To(Equal([]float64{0.01, 0.02}))
	})

	Context("with a degenerate pendulum", func() {
		It("reports a numerical fault and commits nothing", func() {
			pendulums = append(pendulums, &physics.Pendulum{})
			d := newDriver(timesource.NewExternal())
			before := d.Views()

			Expect(d.Tick(0.01)).To(MatchError(dynamo.ErrNumericalFault))
			Expect(d.Views()).To(Equal(before))
		})
	})

	Describe("RunHeadless", func() {
		It("stops at the tick limit", func() {
			d := newDriver(timesource.NewExternal())
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			Expect(d.RunHeadless(ctx, 500, 5)).To(Succeed())
			Expect(d.Ticks()).To(Equal(uint64(5)))
			Expect(d.Monitor().Snapshot().Samples).To(BeNumerically(">", 0))
		})

		It("returns the fault under the stop policy", func() {
			pendulums = append(pendulums, &physics.Pendulum{})
			d := newDriver(timesource.NewExternal(), sim.WithFaultPolicy(sim.FaultStop))

			err := d.RunHeadless(context.Background(), 500, 5)
			Expect(err).To(MatchError(dynamo.ErrNumericalFault))
		})

		It("keeps going under the skip policy until cancelled", func() {
			pendulums = append(pendulums, &physics.Pendulum{})
			d := newDriver(timesource.NewExternal(), sim.WithFaultPolicy(sim.FaultSkip))
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			Expect(d.RunHeadless(ctx, 500, 5)).To(Succeed())
			Expect(d.Ticks()).To(BeZero())
			Expect(len(rec.faults)).To(BeNumerically(">", 1))
		})
	})

	It("keeps the simulated time finite over a long run", func() {
		d := newDriver(timesource.NewExternal())
		for i := 0; i < 10000; i++ {
			Expect(d.Tick(1.0 / 60)).To(Succeed())
		}
		for _, v := range d.Views() {
			Expect(math.IsNaN(v.Theta)).To(BeFalse())
		}
	})
})
