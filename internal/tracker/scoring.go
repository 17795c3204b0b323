package tracker

import "math"

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// score computes the closed-form interest score for t, given the
// fraction of recent time the observer has been judged stationary. The
// result is always in [0, 100].
//
// P rewards how long the entity has persisted nearby, R rewards
// regularity of contact, M rewards being seen across many distinct
// environments (suggesting it travels with the observer rather than
// being fixed infrastructure), C penalizes entities seen mainly in
// crowded windows, and I penalizes entities only seen while the observer
// itself is idle.
func score(t *Track, moveSegments uint32, stationaryRatio float64) float32 {
	tMinMinutes := float64(t.LastSeenS-t.FirstSeenS) / 60.0
	p := 30.0 * clamp01(math.Log1p(tMinMinutes)/math.Log1p(TCapMin))

	fNear := 0.0
	if t.SeenWindows > 0 {
		fNear = float64(t.NearWindows) / float64(t.SeenWindows)
	}
	stability := clamp01(1.0 - float64(t.EMAAbsDev)/RSSIDevCap)
	r := 25.0 * clamp01(0.7*fNear+0.3*stability)

	denom := moveSegments
	if denom < 1 {
		denom = 1
	}
	m := 35.0 * clamp01(float64(t.EnvHits)/float64(denom))

	c := -25.0 * clamp01((float64(t.CrowdEMA)-CrowdLo)/(CrowdHi-CrowdLo))

	i := -20.0 * clamp01(stationaryRatio)

	total := p + r + m + c + i
	return float32(clamp(total, 0, 100))
}
