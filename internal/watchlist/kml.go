package watchlist

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"proxitrack/internal/tracker"
)

const kmlHeader = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2"><Document>
  <name>PT Watchlist</name>
`
const kmlFooter = "</Document></kml>\n"

// escapeXML escapes the five XML special characters. encoding/xml has no
// public helper for escaping a bare string into element content, and the
// KML shape here is simple enough that hand-written escaping, matching
// how the original firmware printf's its KML, is the straightforward
// choice.
func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	s = strings.ReplaceAll(s, "'", "&apos;")
	return s
}

func placemarkName(w tracker.WatchlistItem) string {
	if w.Kind == tracker.EntityKindWifiAp {
		if w.SSID != "" {
			return fmt.Sprintf("%s (%s)", w.SSID, FormatMac(w.Addr))
		}
		return FormatMac(w.Addr)
	}
	if w.TrackerType.String() != "Unknown" {
		return fmt.Sprintf("%s (%s)", w.TrackerType.String(), FormatMac(w.Addr))
	}
	return FormatMac(w.Addr)
}

func placemarkDescription(w tracker.WatchlistItem) string {
	var lines []string
	lines = append(lines, "Kind: "+w.Kind.String())
	lines = append(lines, "MAC: "+FormatMac(w.Addr))
	if w.Kind == tracker.EntityKindWifiAp && w.SSID != "" {
		lines = append(lines, "SSID: "+w.SSID)
	}
	if w.TrackerType.String() != "Unknown" {
		lines = append(lines, "Tracker: "+w.TrackerType.String())
	}
	return strings.Join(lines, "\n")
}

func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', 8, 64)
}

func renderPlacemark(w tracker.WatchlistItem) string {
	name := escapeXML(placemarkName(w))
	desc := escapeXML(placemarkDescription(w))
	desc = strings.ReplaceAll(desc, "\n", "&#10;")
	coords := fmt.Sprintf("%s,%s,0", formatCoordinate(w.Lon), formatCoordinate(w.Lat))

	return fmt.Sprintf(
		"  <Placemark><name>%s</name>\n    <description>%s</description>\n    <Point><coordinates>%s</coordinates></Point></Placemark>\n",
		name, desc, coords)
}

// WriteKML exports every Watching entity that also has geo as a KML
// Placemark. Entities without geo are silently excluded — there is
// nowhere to put them on a map.
func WriteKML(path string, dt *tracker.DeviceTracker) error {
	var b strings.Builder
	b.WriteString(kmlHeader)
	for _, w := range dt.WatchedItems() {
		if !w.HasGeo {
			continue
		}
		b.WriteString(renderPlacemark(w))
	}
	b.WriteString(kmlFooter)

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write watchlist kml: %w", err)
	}
	return nil
}
