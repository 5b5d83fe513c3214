package utils

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// sampleGamma returns a sample from the Gamma(shape, scale) distribution using
// the Marsaglia-Tsang squeeze method. shape must be >= 1.
func sampleGamma(shape, scale float64) float64 {
	d := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9.0*d)
	for {
		x := rand.NormFloat64()
		v := 1.0 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v
		x2 := x * x
		u := rand.Float64()
		if u < 1.0-0.0331*(x2*x2) {
			return d * v * scale
		}
		if math.Log(u) < 0.5*x2+d*(1.0-v+math.Log(v)) {
			return d * v * scale
		}
	}
}

// Jitter scales d by a right-skewed multiplier with mean 1.0, clamped to [0.8, 1.35].
// Actions stay close to the configured delay so a purchase never slows down noticeably.
func Jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	const shape = 16.0
	multiplier := sampleGamma(shape, 1/shape)
	multiplier = math.Max(0.8, math.Min(1.35, multiplier))
	return time.Duration(float64(d) * multiplier)
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// SleepJitter is Sleep with a jittered duration.
func SleepJitter(ctx context.Context, d time.Duration) error {
	return Sleep(ctx, Jitter(d))
}
