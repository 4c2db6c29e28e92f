package timesource_test

import (
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/pendsim/internal/dynamo"
	"github.com/san-kum/pendsim/internal/timesource"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

var _ = Describe("WallClock", func() {
	var (
		clock *fakeClock
		src   *timesource.WallClock
	)

	BeforeEach(func() {
		clock = &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
		src = timesource.NewWallClock(clock)
	})

	It("measures the first delta from construction", func() {
		clock.Advance(250 * time.Millisecond)
		dt, err := src.Delta(99)
		Expect(err).NotTo(HaveOccurred())
		Expect(dt).To(BeNumerically("~", 0.25, 1e-12))
	})

	It("measures each delta from the previous reading", func() {
		clock.Advance(10 * time.Millisecond)
		_, _ = src.Delta(0)
		clock.Advance(1500 * time.Microsecond)
		dt, err := src.Delta(0)
		Expect(err).NotTo(HaveOccurred())
		Expect(dt).To(BeNumerically("~", 0.0015, 1e-12))
	})

	It("ignores the frame delta offered by the loop", func() {
		clock.Advance(time.Second)
		dt, err := src.Delta(0.0083333)
		Expect(err).NotTo(HaveOccurred())
		Expect(dt).To(Equal(1.0))
	})

	It("returns zero when no time has passed", func() {
		dt, err := src.Delta(0)
		Expect(err).NotTo(HaveOccurred())
		Expect(dt).To(BeZero())
	})

	It("reports a rewound clock and keeps its mark", func() {
		clock.Advance(-time.Second)
		_, err := src.Delta(0)
		Expect(err).To(MatchError(dynamo.ErrClockRewound))

		clock.Advance(1500 * time.Millisecond)
		dt, err := src.Delta(0)
		Expect(err).NotTo(HaveOccurred())
		Expect(dt).To(BeNumerically("~", 0.5, 1e-12))
	})

	It("discards elapsed time on Reset", func() {
		clock.Advance(3 * time.Second)
		src.Reset()
		clock.Advance(100 * time.Millisecond)
		dt, err := src.Delta(0)
		Expect(err).NotTo(HaveOccurred())
		Expect(dt).To(BeNumerically("~", 0.1, 1e-12))
	})

	It("drops a pause on Resume", func() {
		clock.Advance(16 * time.Millisecond)
		_, err := src.Delta(0)
		Expect(err).NotTo(HaveOccurred())

		clock.Advance(10 * time.Second)
		src.Resume()
		clock.Advance(16 * time.Millisecond)
		dt, err := src.Delta(0)
		Expect(err).NotTo(HaveOccurred())
		Expect(dt).To(BeNumerically("~", 0.016, 1e-12))
	})
})

var _ = Describe("External", func() {
	src := timesource.NewExternal()

	DescribeTable("passes valid deltas through",
		func(in float64) {
			dt, err := src.Delta(in)
			Expect(err).NotTo(HaveOccurred())
			Expect(dt).To(Equal(in))
		},
		Entry("zero", 0.0),
		Entry("a 120 Hz frame", 1.0/120),
		Entry("a stall", 4.0),
	)

	DescribeTable("rejects invalid deltas",
		func(in float64) {
			_, err := src.Delta(in)
			Expect(err).To(MatchError(dynamo.ErrInvalidTimeDelta))
		},
		Entry("negative", -0.01),
		Entry("NaN", math.NaN()),
		Entry("+Inf", math.Inf(1)),
	)
})

var _ = Describe("Replay", func() {
	It("serves recorded deltas in order then no-ops", func() {
		src := timesource.NewReplay([]float64{0.1, 0.2})
		Expect(src.Remaining()).To(Equal(2))

		dt, err := src.Delta(5)
		Expect(err).NotTo(HaveOccurred())
		Expect(dt).To(Equal(0.1))

		dt, _ = src.Delta(5)
		Expect(dt).To(Equal(0.2))

		dt, err = src.Delta(5)
		Expect(err).NotTo(HaveOccurred())
		Expect(dt).To(BeZero())
		Expect(src.Remaining()).To(Equal(0))
	})

	It("rejects a corrupt negative entry", func() {
		src := timesource.NewReplay([]float64{-1})
		_, err := src.Delta(0)
		Expect(err).To(MatchError(dynamo.ErrInvalidTimeDelta))
	})
})

var _ = Describe("New", func() {
	It("builds each strategy by kind", func() {
		wc, err := timesource.New(timesource.KindWallClock)
		Expect(err).NotTo(HaveOccurred())
		Expect(wc).To(BeAssignableToTypeOf(&timesource.WallClock{}))

		ext, err := timesource.New(timesource.KindExternal)
		Expect(err).NotTo(HaveOccurred())
		Expect(ext).To(BeAssignableToTypeOf(timesource.External{}))

		_, err = timesource.New("sundial")
		Expect(err).To(HaveOccurred())
	})

	It("parses kinds", func() {
		k, err := timesource.ParseKind("WallClock")
		Expect(err).NotTo(HaveOccurred())
		Expect(k).To(Equal(timesource.KindWallClock))

		k, err = timesource.ParseKind("")
		Expect(err).NotTo(HaveOccurred())
		Expect(k).To(Equal(timesource.KindExternal))
	})
})
