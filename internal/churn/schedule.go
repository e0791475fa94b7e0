package churn

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	klog "github.com/Klingon-tech/churn/internal/log"
)

// Source says where a schedule's waits came from.
type Source int

const (
	SourceRandom Source = iota
	SourceDerived
)

func (s Source) String() string {
	switch s {
	case SourceDerived:
		return "derived"
	default:
		return "random"
	}
}

// Wait is the delay observed before a churn round starts.
type Wait struct {
	Round    int
	Duration time.Duration
}

// Schedule pairs every churn round after the first with its wait. It is
// built once and only consumed through Next.
type Schedule struct {
	source Source
	waits  []Wait
	next   int
}

// newSchedule maps durations onto rounds 2..total. It fails unless there is
// exactly one duration per round.
func newSchedule(total int, source Source, durations []time.Duration) (*Schedule, error) {
	if len(durations) != total-1 {
		return nil, fmt.Errorf("schedule for %d churns needs %d waits, have %d",
			total, total-1, len(durations))
	}
	waits := make([]Wait, len(durations))
	for i, d := range durations {
		waits[i] = Wait{Round: i + 2, Duration: d}
	}
	return &Schedule{source: source, waits: waits}, nil
}

func checkTotal(total int) error {
	if total < 1 {
		return fmt.Errorf("schedule needs at least one churn, got %d", total)
	}
	return nil
}

// Source reports how the schedule was generated.
func (s *Schedule) Source() Source {
	return s.source
}

// Len is the number of waits.
func (s *Schedule) Len() int {
	return len(s.waits)
}

// Waits returns a copy of every wait in round order.
func (s *Schedule) Waits() []Wait {
	out := make([]Wait, len(s.waits))
	copy(out, s.waits)
	return out
}

// Total is the sum of all waits.
func (s *Schedule) Total() time.Duration {
	var total time.Duration
	for _, w := range s.waits {
		total += w.Duration
	}
	return total
}

// Next returns the next unconsumed wait.
func (s *Schedule) Next() (Wait, bool) {
	if s.next >= len(s.waits) {
		return Wait{}, false
	}
	w := s.waits[s.next]
	s.next++
	return w, true
}

// TimingDeriver produces waits from a transaction's ring members.
type TimingDeriver interface {
	Derive(ctx context.Context, txHash string) ([]time.Duration, error)
}

// Generator builds wait schedules.
type Generator struct {
	rng     *rand.Rand
	lower   time.Duration
	upper   time.Duration
	deriver TimingDeriver
}

// NewGenerator creates a generator drawing randomized waits from the
// settings' (possibly quick) bounds. A nil rng is seeded from the clock.
func NewGenerator(s Settings, deriver TimingDeriver, rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	lower, upper := s.WaitBounds()
	return &Generator{rng: rng, lower: lower, upper: upper, deriver: deriver}
}

// Generate returns a schedule for total churns: derived from txHash when
// one is given, randomized otherwise.
func (g *Generator) Generate(ctx context.Context, total int, txHash string) (*Schedule, error) {
	if txHash == "" || g.deriver == nil {
		return g.Random(total)
	}
	return g.Derived(ctx, total, txHash)
}

// Random draws total-1 independent waits uniformly from [lower, upper),
// in whole seconds.
func (g *Generator) Random(total int) (*Schedule, error) {
	if err := checkTotal(total); err != nil {
		return nil, err
	}
	lo := int64(g.lower / time.Second)
	hi := int64(g.upper / time.Second)
	if hi <= lo {
		hi = lo + 1
	}

	durations := make([]time.Duration, 0, total-1)
	for i := 0; i < total-1; i++ {
		durations = append(durations, time.Duration(lo+g.rng.Int63n(hi-lo))*time.Second)
	}

	klog.Schedule.Debug().
		Dur("lower", g.lower).
		Dur("upper", g.upper).
		Int("waits", len(durations)).
		Msg("Generated random wait times")
	return newSchedule(total, SourceRandom, durations)
}

// Derived builds the schedule from ring timing of txHash, keeping the
// first total-1 gaps. If the ring yields fewer gaps than that, it falls
// back to a randomized schedule. Daemon errors are returned as-is.
func (g *Generator) Derived(ctx context.Context, total int, txHash string) (*Schedule, error) {
	if err := checkTotal(total); err != nil {
		return nil, err
	}
	durations, err := g.deriver.Derive(ctx, txHash)
	if err != nil {
		return nil, err
	}

	need := total - 1
	if len(durations) < need {
		klog.Schedule.Warn().
			Str("tx_hash", txHash).
			Int("derived", len(durations)).
			Int("needed", need).
			Msg("Ring too small for churn count, using random wait times")
		return g.Random(total)
	}
	return newSchedule(total, SourceDerived, durations[:need])
}
