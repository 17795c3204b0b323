package tracker

import "testing"

func TestGNSSSegmentationNoAdvanceUnder50m(t *testing.T) {
	s := newSegmentation()
	s.evaluateGNSS(37.7749, -122.4194, 0)
	// ~44m east.
	advanced := s.evaluateGNSS(37.7749, -122.4199, 20)
	if advanced || s.segmentID != 0 {
		t.Fatalf("expected no advance at ~44m, segmentID=%d", s.segmentID)
	}
}

func TestGNSSSegmentationAdvancesOver50mAfter10s(t *testing.T) {
	s := newSegmentation()
	s.evaluateGNSS(37.7749, -122.4194, 0)
	s.evaluateGNSS(37.7749, -122.4199, 20) // ~44m, no advance
	advanced := s.evaluateGNSS(37.7749, -122.4200, 30)
	if !advanced || s.segmentID != 1 {
		t.Fatalf("expected exactly one advance, segmentID=%d advanced=%v", s.segmentID, advanced)
	}
}

func TestGNSSSegmentationRespectsMinPeriod(t *testing.T) {
	s := newSegmentation()
	s.evaluateGNSS(0, 0, 0)
	// Far enough (>50m) but only 5s elapsed: must not advance yet.
	advanced := s.evaluateGNSS(0, 0.001, 5)
	if advanced {
		t.Fatal("expected no advance before the minimum period elapses")
	}
}

func TestFingerprintIdenticalNoAdvance(t *testing.T) {
	s := newSegmentation()
	anchors := []*Anchor{
		{Addr: addrN(1), LastRSSI: -60},
		{Addr: addrN(2), LastRSSI: -70},
	}
	s.evaluateFingerprint(anchors, 0)
	advanced := s.evaluateFingerprint(anchors, 30)
	if advanced {
		t.Fatal("identical fingerprints 30s apart must not advance")
	}
	sim := fingerprintSimilarity(s.prevFP, buildFingerprint(anchors))
	if sim != 1.0 {
		t.Fatalf("similarity of identical fingerprints = %v, want 1.0", sim)
	}
}

func TestFingerprintDisjointAdvances(t *testing.T) {
	s := newSegmentation()
	first := []*Anchor{{Addr: addrN(1), LastRSSI: -60}}
	second := []*Anchor{{Addr: addrN(9), LastRSSI: -60}}

	s.evaluateFingerprint(first, 0)
	advanced := s.evaluateFingerprint(second, 30)
	if !advanced || s.segmentID != 1 {
		t.Fatalf("disjoint fingerprints should advance by 1, got segmentID=%d advanced=%v", s.segmentID, advanced)
	}

	sim := fingerprintSimilarity(buildFingerprint(first), buildFingerprint(second))
	if sim > 0.25 {
		t.Fatalf("disjoint fingerprint similarity = %v, want <= 0.25", sim)
	}
}

func TestFingerprintRespectsEnvWindow(t *testing.T) {
	s := newSegmentation()
	anchors := []*Anchor{{Addr: addrN(1), LastRSSI: -60}}
	s.evaluateFingerprint(anchors, 0)
	advanced := s.evaluateFingerprint([]*Anchor{{Addr: addrN(9), LastRSSI: -60}}, 10)
	if advanced {
		t.Fatal("fingerprint re-evaluation before EnvWindowSec must not run")
	}
}
