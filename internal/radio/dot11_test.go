package radio

import "testing"

func buildBeaconFrame(bssid [6]byte, ssid string) []byte {
	data := make([]byte, ieOffsetBeaconOrProbeResp)
	data[0] = subtypeBeacon << 4 // type=0 (management), subtype=8
	copy(data[16:22], bssid[:])  // addr3

	ie := []byte{ieIDSSID, byte(len(ssid))}
	ie = append(ie, []byte(ssid)...)
	return append(data, ie...)
}

func buildProbeReqFrame(sa [6]byte, ssid string) []byte {
	data := make([]byte, ieOffsetProbeReq)
	data[0] = subtypeProbeReq << 4
	copy(data[10:16], sa[:]) // addr2

	ie := []byte{ieIDSSID, byte(len(ssid))}
	ie = append(ie, []byte(ssid)...)
	return append(data, ie...)
}

func TestParseBeaconExtractsSSIDAndBSSID(t *testing.T) {
	bssid := [6]byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}
	frame := buildBeaconFrame(bssid, "OfficeAP")

	pf, err := ParseManagementFrame(frame)
	if err != nil {
		t.Fatal(err)
	}
	if pf.Addr != bssid {
		t.Fatalf("Addr = %v, want %v", pf.Addr, bssid)
	}
	if string(pf.SSID[:pf.SSIDLen]) != "OfficeAP" {
		t.Fatalf("SSID = %q, want OfficeAP", pf.SSID[:pf.SSIDLen])
	}
	if pf.Hidden {
		t.Fatal("expected not hidden")
	}
}

func TestParseBeaconHiddenSSID(t *testing.T) {
	bssid := [6]byte{1, 2, 3, 4, 5, 6}
	frame := buildBeaconFrame(bssid, "")

	pf, err := ParseManagementFrame(frame)
	if err != nil {
		t.Fatal(err)
	}
	if !pf.Hidden {
		t.Fatal("zero-length SSID IE should mark Hidden")
	}
	if pf.SSIDLen != 0 {
		t.Fatalf("SSIDLen = %d, want 0", pf.SSIDLen)
	}
}

func TestParseProbeRequestUsesAddr2AndLeavesSSIDUnset(t *testing.T) {
	sa := [6]byte{9, 8, 7, 6, 5, 4}
	frame := buildProbeReqFrame(sa, "SomeNetwork")

	pf, err := ParseManagementFrame(frame)
	if err != nil {
		t.Fatal(err)
	}
	if pf.Addr != sa {
		t.Fatalf("Addr = %v, want client SA %v", pf.Addr, sa)
	}
	if !pf.IsClient {
		t.Fatal("expected IsClient = true for probe request")
	}
	if pf.SSIDLen != 0 {
		t.Fatalf("SSIDLen = %d, want 0 (left unset for tracks)", pf.SSIDLen)
	}
}

func TestParseManagementFrameTooShort(t *testing.T) {
	_, err := ParseManagementFrame(make([]byte, 10))
	if err != errTooShort {
		t.Fatalf("err = %v, want errTooShort", err)
	}
}

func TestParseManagementFrameMalformedIE(t *testing.T) {
	bssid := [6]byte{1, 2, 3, 4, 5, 6}
	data := make([]byte, ieOffsetBeaconOrProbeResp)
	data[0] = subtypeBeacon << 4
	copy(data[16:22], bssid[:])
	data = append(data, ieIDSSID, 0xFF) // claims 255 bytes of value, none present

	_, err := ParseManagementFrame(data)
	if err != errBadIE {
		t.Fatalf("err = %v, want errBadIE", err)
	}
}

func TestParseManagementFrameUnhandledSubtype(t *testing.T) {
	data := make([]byte, 24)
	data[0] = 3 << 4 // subtype=3 (disassociation-ish placeholder), not tracked
	_, err := ParseManagementFrame(data)
	if err != errUnhandledSubtype {
		t.Fatalf("err = %v, want errUnhandledSubtype", err)
	}
}
