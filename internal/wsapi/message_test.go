package wsapi

import (
	"encoding/json"
	"testing"

	"proxitrack/internal/tracker"
)

func TestToWireFormatsMacAndWatchedFlag(t *testing.T) {
	v := tracker.EntityView{
		Kind:  tracker.EntityKindBleAdv,
		Addr:  [6]byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF},
		Score: 42.5,
		RSSI:  -60,
		Flags: tracker.FlagWatching,
	}
	w := toWire(v)
	if w.Mac != "AA:BB:CC:DD:EE:FF" {
		t.Fatalf("Mac = %q", w.Mac)
	}
	if !w.Watched {
		t.Fatal("expected Watched true")
	}
	if w.Kind != "BleAdv" {
		t.Fatalf("Kind = %q", w.Kind)
	}
}

func TestEnvelopeMarshalsCleanly(t *testing.T) {
	e := newErrorEnvelope("bad thing")
	raw, err := marshal(e)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["error"] != "bad thing" {
		t.Fatalf("decoded = %v", decoded)
	}
}
