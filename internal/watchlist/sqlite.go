package watchlist

import (
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"proxitrack/internal/tracker"
)

// SQLiteStore is an optional durable mirror of the watchlist alongside
// the JSON file — useful when the JSON file is also being hand-edited
// and a simple queryable history of what was ever watched is wanted.
// It is not the primary persistence mechanism; Read/Write against the
// JSON document remain authoritative for begin()/reset() round-trips.
type SQLiteStore struct {
	db   *sql.DB
	once sync.Once
}

// OpenSQLiteStore opens (creating if absent) a sqlite database at path
// and ensures its schema exists.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open watchlist sqlite db: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}

	const schema = `
CREATE TABLE IF NOT EXISTS watchlist_items (
	kind TEXT NOT NULL,
	mac TEXT NOT NULL,
	ssid TEXT,
	lat REAL,
	lon REAL,
	tracker_type TEXT,
	tracker_google_mfr TEXT,
	tracker_samsung_subtype TEXT,
	tracker_confidence INTEGER,
	PRIMARY KEY (kind, mac)
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create watchlist schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

// Mirror replaces the stored snapshot with the tracker's current
// Watching entities. Intended to be called after every successful JSON
// Write so the two stay in sync.
func (s *SQLiteStore) Mirror(dt *tracker.DeviceTracker) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin watchlist mirror tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM watchlist_items`); err != nil {
		return fmt.Errorf("clear watchlist_items: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO watchlist_items
		(kind, mac, ssid, lat, lon, tracker_type, tracker_google_mfr, tracker_samsung_subtype, tracker_confidence)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare watchlist insert: %w", err)
	}
	defer stmt.Close()

	for _, w := range dt.WatchedItems() {
		var lat, lon any
		if w.HasGeo {
			lat, lon = w.Lat, w.Lon
		}
		var ssid any
		if w.SSID != "" {
			ssid = w.SSID
		}
		if _, err := stmt.Exec(
			w.Kind.String(), FormatMac(w.Addr), ssid, lat, lon,
			trackerTypeOrNil(w), googleMfrOrNil(w), samsungSubtypeOrNil(w), confOrNil(w),
		); err != nil {
			return fmt.Errorf("insert watchlist item: %w", err)
		}
	}

	return tx.Commit()
}

func trackerTypeOrNil(w tracker.WatchlistItem) any {
	if w.TrackerType.String() == "Unknown" {
		return nil
	}
	return w.TrackerType.String()
}

func googleMfrOrNil(w tracker.WatchlistItem) any {
	if w.TrackerGoogleMfr.String() == "Unknown" {
		return nil
	}
	return w.TrackerGoogleMfr.String()
}

func samsungSubtypeOrNil(w tracker.WatchlistItem) any {
	if w.TrackerSamsungSub.String() == "Unknown" {
		return nil
	}
	return w.TrackerSamsungSub.String()
}

func confOrNil(w tracker.WatchlistItem) any {
	if w.TrackerConf == 0 {
		return nil
	}
	return w.TrackerConf
}
