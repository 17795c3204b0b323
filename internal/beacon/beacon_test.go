package beacon

import "testing"

func TestInspectTile(t *testing.T) {
	adv := Advertisement{ServiceUUIDs: []uint16{uuidTile}}
	got := Inspect(adv)
	want := TrackerInfo{Type: Tile, Confidence: 95}
	if got != want {
		t.Fatalf("Inspect() = %+v, want %+v", got, want)
	}
}

func TestInspectAppleAirTag(t *testing.T) {
	adv := Advertisement{
		HasMfgData:   true,
		MfgCompanyID: appleCompanyID,
		MfgPayload:   []byte{0x12, 0x19, 0x10},
	}
	got := Inspect(adv)
	want := TrackerInfo{Type: AppleAirTag, Confidence: 75}
	if got != want {
		t.Fatalf("Inspect() = %+v, want %+v", got, want)
	}
}

func TestInspectAppleFindMyViaChipoloService(t *testing.T) {
	adv := Advertisement{
		ServiceUUIDs: []uint16{uuidChipolo},
		HasMfgData:   true,
		MfgCompanyID: appleCompanyID,
		MfgPayload:   []byte{0x12, 0x19, 0x10},
	}
	got := Inspect(adv)
	if got.Type != AppleFindMy || got.Confidence != 80 {
		t.Fatalf("Inspect() = %+v, want AppleFindMy/80", got)
	}
}

func TestInspectAppleAirPods(t *testing.T) {
	adv := Advertisement{
		HasMfgData:   true,
		MfgCompanyID: appleCompanyID,
		MfgPayload:   []byte{0x12, 0x19, 0x18, 0x18, 0x18},
	}
	got := Inspect(adv)
	if got.Type != AppleAirPods || got.Confidence != 85 {
		t.Fatalf("Inspect() = %+v, want AppleAirPods/85", got)
	}
}

func TestInspectAppleAirTagWithMisleadingTrailingBytes(t *testing.T) {
	// byte[2] == 0x10 (AirTag/FindMy) but later bytes satisfy the 0x18
	// mask too; classification must key off byte[2] alone, not a count
	// across the whole payload.
	adv := Advertisement{
		HasMfgData:   true,
		MfgCompanyID: appleCompanyID,
		MfgPayload:   []byte{0x12, 0x19, 0x10, 0x18, 0x18},
	}
	got := Inspect(adv)
	want := TrackerInfo{Type: AppleAirTag, Confidence: 75}
	if got != want {
		t.Fatalf("Inspect() = %+v, want %+v", got, want)
	}
}

func TestInspectChipoloFallback(t *testing.T) {
	adv := Advertisement{ServiceUUIDs: []uint16{uuidChipolo}}
	got := Inspect(adv)
	if got.Type != Chipolo || got.Confidence != 80 {
		t.Fatalf("Inspect() = %+v, want Chipolo/80", got)
	}
}

func TestInspectUnknown(t *testing.T) {
	got := Inspect(Advertisement{})
	if got.Type != Unknown || got.Confidence != 0 {
		t.Fatalf("Inspect() = %+v, want Unknown/0", got)
	}
}

func TestInspectDeterministic(t *testing.T) {
	adv := Advertisement{
		ServiceUUIDs: []uint16{uuidGoogleFindHub},
		LocalName:    "My Chipolo Tracker",
	}
	a := Inspect(adv)
	b := Inspect(adv)
	if a != b {
		t.Fatalf("Inspect() not deterministic: %+v vs %+v", a, b)
	}
	if a.GoogleMfr != GoogleMfrChipolo {
		t.Fatalf("GoogleMfr = %v, want Chipolo", a.GoogleMfr)
	}
}

func TestSamsungSubtypeFromName(t *testing.T) {
	cases := map[string]SamsungTrackerSubtype{
		"smarttag2":      SmartTag2,
		"smart tag 2":    SmartTag2,
		"solum tag":      Solum,
		"smarttag+ pro":  SmartTag1Plus,
		"my smarttag":    SmartTag1,
		"unrelated name": SamsungUnknown,
	}
	for name, want := range cases {
		if got := samsungSubtypeFromName(name); got != want {
			t.Errorf("samsungSubtypeFromName(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestVendorFromType(t *testing.T) {
	if VendorFromType(AppleAirTag).String() != "Apple" {
		t.Fatal("expected Apple vendor for AirTag")
	}
	if VendorFromType(Tile).String() != "Tile" {
		t.Fatal("expected Tile vendor for Tile")
	}
	if VendorFromType(Unknown).String() != "Unknown" {
		t.Fatal("expected Unknown vendor for Unknown type")
	}
}

func TestTrackerTypeRoundTrip(t *testing.T) {
	if ParseTrackerType("AirTag") != AppleAirTag {
		t.Fatal("AirTag should parse to AppleAirTag")
	}
	if ParseTrackerType("nonsense") != Unknown {
		t.Fatal("unknown token should parse to Unknown")
	}
}
