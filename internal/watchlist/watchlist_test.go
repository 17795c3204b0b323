package watchlist

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"proxitrack/internal/tracker"
)

func TestFormatMacParseMacRoundTrip(t *testing.T) {
	addr := [6]byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}
	s := FormatMac(addr)
	if s != "AA:BB:CC:DD:EE:FF" {
		t.Fatalf("FormatMac = %q", s)
	}
	got, ok := ParseMac(s)
	if !ok || got != addr {
		t.Fatalf("ParseMac round trip failed: got=%v ok=%v", got, ok)
	}
}

func TestWriteThenReadRoundTripsWatchedAnchor(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "watchlist.json")

	dt := tracker.New(func() uint32 { return 0 })
	item := tracker.WatchlistItem{
		Kind:   tracker.EntityKindWifiAp,
		Addr:   [6]byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF},
		HasGeo: true,
		Lat:    1.0,
		Lon:    2.0,
	}
	if err := dt.LoadWatchlistItem(item, 0); err != nil {
		t.Fatal(err)
	}

	if err := Write(path, dt); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(raw)
	if !strings.Contains(content, "1.00000000") || !strings.Contains(content, "2.00000000") {
		t.Fatalf("expected 8-decimal lat/lon in output, got:\n%s", content)
	}

	dt2 := tracker.New(func() uint32 { return 0 })
	res, err := Read(path, dt2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if res.Loaded != 1 || res.Skipped != 0 {
		t.Fatalf("LoadResult = %+v, want Loaded=1 Skipped=0", res)
	}

	items := dt2.WatchedItems()
	if len(items) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(items))
	}
	got := items[0]
	if got.Addr != item.Addr || got.Lat != 1.0 || got.Lon != 2.0 {
		t.Fatalf("round-tripped item = %+v, want addr/lat/lon matching original", got)
	}
}

func TestReadRejectsMissingItemsArray(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "watchlist.json")
	os.WriteFile(path, []byte(`{"version":2}`), 0644)

	dt := tracker.New(func() uint32 { return 0 })
	if _, err := Read(path, dt, 0); err == nil {
		t.Fatal("expected a missing items array to fail the whole load")
	}
}

func TestReadSkipsMalformedItemsButLoadsTheRest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "watchlist.json")
	doc := `{"version":2,"items":[
		{"kind":"WifiAp","mac":"not-a-mac"},
		{"kind":"BleAdv","mac":"11:22:33:44:55:66","tracker_type":"AirTag","tracker_confidence":75}
	]}`
	os.WriteFile(path, []byte(doc), 0644)

	dt := tracker.New(func() uint32 { return 0 })
	res, err := Read(path, dt, 0)
	if err != nil {
		t.Fatal(err)
	}
	if res.Loaded != 1 || res.Skipped != 1 {
		t.Fatalf("LoadResult = %+v, want Loaded=1 Skipped=1", res)
	}
}

func TestWriteKMLExactlyOnePlacemarkForGeoEntity(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "watchlist.kml")

	dt := tracker.New(func() uint32 { return 0 })
	dt.LoadWatchlistItem(tracker.WatchlistItem{
		Kind: tracker.EntityKindBleAdv,
		Addr: [6]byte{1, 1, 1, 1, 1, 1},
	}, 0) // no geo

	dt.LoadWatchlistItem(tracker.WatchlistItem{
		Kind:   tracker.EntityKindWifiAp,
		Addr:   [6]byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF},
		SSID:   "OfficeAP",
		HasGeo: true,
		Lat:    1.0,
		Lon:    2.0,
	}, 0)

	if err := WriteKML(path, dt); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(raw)
	if strings.Count(content, "<Placemark>") != 1 {
		t.Fatalf("expected exactly one Placemark, got:\n%s", content)
	}
	if !strings.Contains(content, "<coordinates>2.00000000,1.00000000,0</coordinates>") {
		t.Fatalf("unexpected coordinates formatting:\n%s", content)
	}
}
