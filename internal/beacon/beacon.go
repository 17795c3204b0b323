// Package beacon classifies BLE advertisements as belonging to a known
// commercial "trackable beacon" family (Tile, AirTag, SmartTag, etc.)
// purely from advertising data — no connection, no pairing.
package beacon

import (
	"strings"

	"proxitrack/internal/vendor"
)

// TrackerType identifies the family of trackable beacon an advertisement
// most likely belongs to.
type TrackerType uint8

const (
	Unknown TrackerType = iota
	AppleAirPods
	AppleAirTag
	AppleFindMy
	Chipolo
	GoogleFindHub
	PebbleBee
	SmartThingsFind
	SmartThingsTracker
	Tile
)

var trackerTypeNames = map[TrackerType]string{
	Unknown:             "Unknown",
	AppleAirPods:        "AppleAirPods",
	AppleAirTag:         "AirTag",
	AppleFindMy:         "AppleFindMy",
	Chipolo:             "Chipolo",
	GoogleFindHub:       "GoogleFindHub",
	PebbleBee:           "PebbleBee",
	SmartThingsFind:     "SmartThingsFind",
	SmartThingsTracker:  "SmartThingsTracker",
	Tile:                "Tile",
}

// String renders the same token used by the watchlist JSON schema.
func (t TrackerType) String() string {
	if s, ok := trackerTypeNames[t]; ok {
		return s
	}
	return "Unknown"
}

// ParseTrackerType is the inverse of String, for watchlist load.
func ParseTrackerType(s string) TrackerType {
	for t, name := range trackerTypeNames {
		if name == s {
			return t
		}
	}
	return Unknown
}

// GoogleFmnManufacturer is the sub-manufacturer behind a GoogleFindHub
// advertisement, inferred from the advertised name.
type GoogleFmnManufacturer uint8

const (
	GoogleMfrUnknown GoogleFmnManufacturer = iota
	GoogleMfrPebbleBee
	GoogleMfrChipolo
	GoogleMfrEufy
	GoogleMfrMotorola
	GoogleMfrJio
	GoogleMfrRollingSquare
)

var googleMfrNames = map[GoogleFmnManufacturer]string{
	GoogleMfrUnknown:       "Unknown",
	GoogleMfrPebbleBee:     "PebbleBee",
	GoogleMfrChipolo:       "Chipolo",
	GoogleMfrEufy:          "Eufy",
	GoogleMfrMotorola:      "Motorola",
	GoogleMfrJio:           "Jio",
	GoogleMfrRollingSquare: "RollingSquare",
}

func (g GoogleFmnManufacturer) String() string {
	if s, ok := googleMfrNames[g]; ok {
		return s
	}
	return "Unknown"
}

func ParseGoogleFmnManufacturer(s string) GoogleFmnManufacturer {
	for g, name := range googleMfrNames {
		if name == s {
			return g
		}
	}
	return GoogleMfrUnknown
}

// SamsungTrackerSubtype is the SmartThings tag model, inferred from the
// advertised name.
type SamsungTrackerSubtype uint8

const (
	SamsungUnknown SamsungTrackerSubtype = iota
	SmartTag1
	SmartTag1Plus
	SmartTag2
	Solum
)

var samsungNames = map[SamsungTrackerSubtype]string{
	SamsungUnknown: "Unknown",
	SmartTag1:      "SmartTag1",
	SmartTag1Plus:  "SmartTag1Plus",
	SmartTag2:      "SmartTag2",
	Solum:          "Solum",
}

func (s SamsungTrackerSubtype) String() string {
	if n, ok := samsungNames[s]; ok {
		return n
	}
	return "Unknown"
}

func ParseSamsungTrackerSubtype(s string) SamsungTrackerSubtype {
	for v, name := range samsungNames {
		if name == s {
			return v
		}
	}
	return SamsungUnknown
}

// TrackerInfo is the classifier's output.
type TrackerInfo struct {
	Type           TrackerType
	Confidence     uint8 // 0..100
	GoogleMfr      GoogleFmnManufacturer
	SamsungSubtype SamsungTrackerSubtype
}

// VendorFromType maps a tracker family to the coarse OUI vendor tag used
// when a track's own address-derived vendor is still Unknown.
func VendorFromType(t TrackerType) vendor.Vendor {
	switch t {
	case AppleAirPods, AppleAirTag, AppleFindMy:
		return vendor.Apple
	case Chipolo:
		return vendor.Chipolo
	case GoogleFindHub:
		return vendor.Google
	case PebbleBee:
		return vendor.Pebblebee
	case SmartThingsFind, SmartThingsTracker:
		return vendor.Samsung
	case Tile:
		return vendor.Tile
	default:
		return vendor.Unknown
	}
}

// Service UUID constants observed in trackable-beacon advertisements.
const (
	uuidTile                = 0xFEED
	uuidSmartThingsTracker  = 0xFD5A
	uuidSmartThingsFind     = 0xFD69
	uuidGoogleFindHub       = 0xFEAA
	uuidPebbleBee           = 0xFA25
	uuidChipolo             = 0xFE33

	appleCompanyID = 0x004C
)

// Advertisement is the subset of a BLE advertising report the classifier
// needs: the service-UUID list, the manufacturer-data payload (including
// its leading little-endian company id), and the advertised local name.
type Advertisement struct {
	ServiceUUIDs   []uint16
	MfgCompanyID   uint16
	MfgPayload     []byte // bytes after the company id
	HasMfgData     bool
	LocalName      string
}

func hasUUID(uuids []uint16, want uint16) bool {
	for _, u := range uuids {
		if u == want {
			return true
		}
	}
	return false
}

// Inspect runs the fixed, first-match-wins decision table against adv and
// returns the resulting classification. Calling Inspect twice with the
// same Advertisement always returns an identical TrackerInfo: the
// function reads only its argument, no internal state.
func Inspect(adv Advertisement) TrackerInfo {
	name := strings.ToLower(adv.LocalName)

	switch {
	case hasUUID(adv.ServiceUUIDs, uuidTile):
		return TrackerInfo{Type: Tile, Confidence: 95}

	case hasUUID(adv.ServiceUUIDs, uuidSmartThingsTracker):
		return TrackerInfo{
			Type:           SmartThingsTracker,
			Confidence:     95,
			SamsungSubtype: samsungSubtypeFromName(name),
		}

	case hasUUID(adv.ServiceUUIDs, uuidSmartThingsFind):
		return TrackerInfo{
			Type:           SmartThingsFind,
			Confidence:     90,
			SamsungSubtype: samsungSubtypeFromName(name),
		}

	case hasUUID(adv.ServiceUUIDs, uuidGoogleFindHub):
		return TrackerInfo{
			Type:       GoogleFindHub,
			Confidence: 90,
			GoogleMfr:  googleMfrFromName(name),
		}

	case hasUUID(adv.ServiceUUIDs, uuidPebbleBee):
		return TrackerInfo{Type: PebbleBee, Confidence: 90}
	}

	if adv.HasMfgData && adv.MfgCompanyID == appleCompanyID && len(adv.MfgPayload) >= 2 &&
		adv.MfgPayload[0] == 0x12 && adv.MfgPayload[1] == 0x19 {

		statusMask := byte(0)
		if len(adv.MfgPayload) >= 3 {
			statusMask = adv.MfgPayload[2] & 0x18
		}

		switch {
		case statusMask == 0x18:
			return TrackerInfo{Type: AppleAirPods, Confidence: 85}
		case statusMask == 0x10 && hasUUID(adv.ServiceUUIDs, uuidChipolo):
			return TrackerInfo{Type: AppleFindMy, Confidence: 80}
		case statusMask == 0x10:
			return TrackerInfo{Type: AppleAirTag, Confidence: 75}
		default:
			return TrackerInfo{Type: AppleFindMy, Confidence: 65}
		}
	}

	if hasUUID(adv.ServiceUUIDs, uuidChipolo) {
		return TrackerInfo{Type: Chipolo, Confidence: 80}
	}

	return TrackerInfo{Type: Unknown, Confidence: 0}
}

func samsungSubtypeFromName(lowerName string) SamsungTrackerSubtype {
	switch {
	case strings.Contains(lowerName, "smarttag2"), strings.Contains(lowerName, "smart tag 2"):
		return SmartTag2
	case strings.Contains(lowerName, "solum"):
		return Solum
	case strings.Contains(lowerName, "smarttag+"):
		return SmartTag1Plus
	case strings.Contains(lowerName, "smarttag"):
		return SmartTag1
	default:
		return SamsungUnknown
	}
}

func googleMfrFromName(lowerName string) GoogleFmnManufacturer {
	switch {
	case strings.Contains(lowerName, "pebblebee"):
		return GoogleMfrPebbleBee
	case strings.Contains(lowerName, "chipolo"):
		return GoogleMfrChipolo
	case strings.Contains(lowerName, "eufy"):
		return GoogleMfrEufy
	case strings.Contains(lowerName, "motorola"), strings.Contains(lowerName, "moto"):
		return GoogleMfrMotorola
	case strings.Contains(lowerName, "jio"):
		return GoogleMfrJio
	case strings.Contains(lowerName, "rolling square"):
		return GoogleMfrRollingSquare
	default:
		return GoogleMfrUnknown
	}
}
