// Package gnss parses the NMEA stream off the GNSS receiver and publishes
// each parsed fix on a channel (Port.Fix); the tracker keeps the current
// fix under its own lock.
package gnss

import (
	"strconv"
	"strings"

	"proxitrack/internal/radio"
)

// ParseSentence decodes one NMEA sentence (GGA or RMC) into a GNSSFix
// delta. ok is false for sentence types this parser does not need, or
// for malformed input — both are silent, non-fatal conditions.
func ParseSentence(line string) (radio.GNSSFix, bool) {
	line = strings.TrimSpace(line)
	if len(line) < 6 || line[0] != '$' {
		return radio.GNSSFix{}, false
	}
	if idx := strings.IndexByte(line, '*'); idx != -1 {
		line = line[:idx]
	}
	fields := strings.Split(line[1:], ",")
	if len(fields) == 0 {
		return radio.GNSSFix{}, false
	}

	talker := fields[0]
	switch {
	case strings.HasSuffix(talker, "GGA"):
		return parseGGA(fields)
	case strings.HasSuffix(talker, "RMC"):
		return parseRMC(fields)
	default:
		return radio.GNSSFix{}, false
	}
}

func parseGGA(f []string) (radio.GNSSFix, bool) {
	// $--GGA,time,lat,N/S,lon,E/W,fixQuality,numSats,hdop,alt,M,...
	if len(f) < 10 {
		return radio.GNSSFix{}, false
	}
	fixQuality, err := strconv.Atoi(f[6])
	if err != nil {
		return radio.GNSSFix{}, false
	}
	lat, ok1 := parseLat(f[2], f[3])
	lon, ok2 := parseLon(f[4], f[5])
	sats, _ := strconv.Atoi(f[7])
	alt, _ := strconv.ParseFloat(f[9], 64)

	valid := fixQuality > 0 && ok1 && ok2
	return radio.GNSSFix{
		Valid:     valid,
		Lat:       lat,
		Lon:       lon,
		Sats:      sats,
		AltitudeM: alt,
	}, true
}

func parseRMC(f []string) (radio.GNSSFix, bool) {
	// $--RMC,time,status,lat,N/S,lon,E/W,speed,course,date,...
	if len(f) < 9 {
		return radio.GNSSFix{}, false
	}
	status := f[2]
	lat, ok1 := parseLat(f[3], f[4])
	lon, ok2 := parseLon(f[5], f[6])
	speed, _ := strconv.ParseFloat(f[7], 64)
	course, _ := strconv.ParseFloat(f[8], 64)

	valid := status == "A" && ok1 && ok2
	return radio.GNSSFix{
		Valid:     valid,
		Lat:       lat,
		Lon:       lon,
		SpeedKn:   speed,
		CourseDeg: course,
	}, true
}

// parseLat decodes ddmm.mmmm,[N|S] into signed decimal degrees.
func parseLat(raw, hemi string) (float64, bool) {
	if raw == "" {
		return 0, false
	}
	if len(raw) < 4 {
		return 0, false
	}
	dotIdx := strings.IndexByte(raw, '.')
	if dotIdx < 2 {
		return 0, false
	}
	degStr := raw[:dotIdx-2]
	minStr := raw[dotIdx-2:]
	deg, err1 := strconv.ParseFloat(degStr, 64)
	min, err2 := strconv.ParseFloat(minStr, 64)
	if err1 != nil || err2 != nil {
		return 0, false
	}
	v := deg + min/60.0
	if hemi == "S" {
		v = -v
	}
	return v, true
}

// parseLon decodes dddmm.mmmm,[E|W] into signed decimal degrees.
func parseLon(raw, hemi string) (float64, bool) {
	v, ok := parseLat(raw, "N")
	if !ok {
		return 0, false
	}
	if hemi == "W" {
		v = -v
	}
	return v, true
}
