package radio

// 802.11 management frame subtypes the tracker cares about.
// SubtypeProbeReq, SubtypeProbeResp, and SubtypeBeacon are the 802.11
// management frame subtypes ParsedFrame.Subtype can hold; callers wiring
// a radio source use these instead of the raw numeric codes.
const (
	SubtypeProbeReq  = 4
	SubtypeProbeResp = 5
	SubtypeBeacon    = 8

	subtypeProbeReq  = SubtypeProbeReq
	subtypeProbeResp = SubtypeProbeResp
	subtypeBeacon    = SubtypeBeacon

	ieOffsetBeaconOrProbeResp = 36
	ieOffsetProbeReq          = 24

	ieIDSSID = 0
	maxSSID  = 32
)

// ParsedFrame is the result of decoding one management frame enough to
// feed the observation pipeline.
type ParsedFrame struct {
	Subtype  int
	Addr     [6]byte // addr3 (BSSID) for beacon/probe-resp, addr2 (SA) for probe-req
	SSID     [maxSSID]byte
	SSIDLen  uint8
	Hidden   bool
	IsClient bool // true for probe-req (Addr is the client SA)
}

// frameError marks a frame too short or with a corrupt IE chain: a
// transient, unreported loss rather than a fatal condition.
type frameError string

func (e frameError) Error() string { return string(e) }

const errTooShort = frameError("frame too short")
const errBadIE = frameError("malformed information element")
const errUnhandledSubtype = frameError("subtype not tracked")

// ParseManagementFrame decodes the subset of an 802.11 management frame
// the tracker needs: type/subtype, the relevant address, and the SSID
// information element when present. Malformed input returns an error and
// must not panic — radio callback contexts cannot afford it.
func ParseManagementFrame(data []byte) (ParsedFrame, error) {
	if len(data) < 24 {
		return ParsedFrame{}, errTooShort
	}

	frameType := (data[0] >> 2) & 0x03
	subtype := int((data[0] >> 4) & 0x0F)
	if frameType != 0 {
		return ParsedFrame{}, errUnhandledSubtype
	}

	switch subtype {
	case subtypeBeacon, subtypeProbeResp:
		return parseBeaconOrProbeResp(data, subtype)
	case subtypeProbeReq:
		return parseProbeReq(data)
	default:
		return ParsedFrame{}, errUnhandledSubtype
	}
}

func copyAddr(data []byte, offset int) [6]byte {
	var a [6]byte
	copy(a[:], data[offset:offset+6])
	return a
}

func parseBeaconOrProbeResp(data []byte, subtype int) (ParsedFrame, error) {
	if len(data) < ieOffsetBeaconOrProbeResp {
		return ParsedFrame{}, errTooShort
	}
	pf := ParsedFrame{Subtype: subtype, Addr: copyAddr(data, 16)}
	if err := extractSSIDIE(data, ieOffsetBeaconOrProbeResp, &pf); err != nil {
		return ParsedFrame{}, err
	}
	return pf, nil
}

func parseProbeReq(data []byte) (ParsedFrame, error) {
	if len(data) < ieOffsetProbeReq {
		return ParsedFrame{}, errTooShort
	}
	pf := ParsedFrame{Subtype: subtypeProbeReq, Addr: copyAddr(data, 10), IsClient: true}
	// The requested SSID IE is parsed for well-formedness but not
	// attached to a Track; a probing client's Track carries no SSID field.
	if err := extractSSIDIE(data, ieOffsetProbeReq, &pf); err != nil {
		return ParsedFrame{}, err
	}
	pf.SSIDLen = 0
	pf.Hidden = false
	return pf, nil
}

// extractSSIDIE walks the IE chain starting at offset looking for IE id 0
// (SSID). A zero-length SSID IE means hidden. Any other IE is skipped by
// its length byte.
func extractSSIDIE(data []byte, offset int, pf *ParsedFrame) error {
	for offset+2 <= len(data) {
		id := data[offset]
		length := int(data[offset+1])
		valueStart := offset + 2
		if valueStart+length > len(data) {
			return errBadIE
		}

		if id == ieIDSSID {
			if length == 0 {
				pf.Hidden = true
				pf.SSIDLen = 0
				return nil
			}
			n := length
			if n > maxSSID {
				n = maxSSID
			}
			copy(pf.SSID[:], data[valueStart:valueStart+n])
			pf.SSIDLen = uint8(n)
			return nil
		}

		offset = valueStart + length
	}
	// No SSID IE found at all; not an error, just an absent SSID.
	return nil
}
