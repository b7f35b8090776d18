// Package pacing computes the wait interval between download attempts.
// Delays are drawn uniformly from a named tier's range; a fixed penalty is
// added after a throttling signal. The policy keeps no per-job state.
package pacing

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

// Tier is a named inter-job delay configuration.
type Tier struct {
	Name     string
	MinDelay time.Duration
	MaxDelay time.Duration
}

var (
	TierNormal       = Tier{Name: "normal", MinDelay: 5 * time.Second, MaxDelay: 10 * time.Second}
	TierConservative = Tier{Name: "conservative", MinDelay: 10 * time.Second, MaxDelay: 20 * time.Second}
	TierVeryCautious = Tier{Name: "very-cautious", MinDelay: 30 * time.Second, MaxDelay: 60 * time.Second}
)

// ThrottlePenalty is added on top of the tier delay when the previous
// attempt was rate limited, regardless of tier.
const ThrottlePenalty = 30 * time.Second

// TierByName resolves a tier from its configuration name.
func TierByName(name string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "normal":
		return TierNormal, nil
	case "conservative":
		return TierConservative, nil
	case "very-cautious", "verycautious", "very_cautious":
		return TierVeryCautious, nil
	default:
		return Tier{}, fmt.Errorf("unknown pacing tier %q (expected normal, conservative, or very-cautious)", name)
	}
}

// Validate checks the tier's range invariant.
func (t Tier) Validate() error {
	if t.MinDelay < 0 || t.MaxDelay < 0 {
		return fmt.Errorf("pacing tier %q has a negative delay bound", t.Name)
	}
	if t.MinDelay > t.MaxDelay {
		return fmt.Errorf("pacing tier %q has min delay %s above max delay %s", t.Name, t.MinDelay, t.MaxDelay)
	}
	return nil
}

// Policy draws randomized delays. The zero value is not usable; construct
// with NewPolicy, or NewPolicyWithRand in tests for determinism.
type Policy struct {
	rng *rand.Rand
}

func NewPolicy() *Policy {
	return NewPolicyWithRand(rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))
}

func NewPolicyWithRand(rng *rand.Rand) *Policy {
	return &Policy{rng: rng}
}

// NextDelay returns the wait before the next attempt: uniform random in
// [MinDelay, MaxDelay], plus ThrottlePenalty when the immediately preceding
// attempt was rate limited. The first job of a run takes no delay; that is
// the caller's responsibility, not the policy's.
func (p *Policy) NextDelay(tier Tier, wasThrottled bool) time.Duration {
	d := tier.MinDelay
	if span := tier.MaxDelay - tier.MinDelay; span > 0 {
		d += time.Duration(p.rng.Int64N(int64(span) + 1))
	}
	if wasThrottled {
		d += ThrottlePenalty
	}
	return d
}
