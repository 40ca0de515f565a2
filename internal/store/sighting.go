package store

import (
	"database/sql"
	"time"

	"github.com/ayusman/drishti/internal/annotate"
	"github.com/ayusman/drishti/internal/detector"
)

// Sighting is one face seen in one frame.
type Sighting struct {
	ID        int64        `json:"id"`
	SessionID string       `json:"session_id"`
	FrameSeq  uint64       `json:"frame_seq"`
	Label     string       `json:"label"`
	Known     bool         `json:"known"`
	Distance  float64      `json:"distance"`
	Box       detector.Box `json:"box"`
	SeenAt    time.Time    `json:"seen_at"`
}

// LabelSummary aggregates the sightings of one label in a session.
type LabelSummary struct {
	Label        string    `json:"label"`
	Known        bool      `json:"known"`
	Count        int       `json:"count"`
	FirstSeen    time.Time `json:"first_seen"`
	LastSeen     time.Time `json:"last_seen"`
	BestDistance float64   `json:"best_distance"`
}

// SightingRepository records and queries sightings.
type SightingRepository struct {
	db *sql.DB
}

// Sightings returns the sighting repository for this store.
func (s *Store) Sightings() *SightingRepository {
	return &SightingRepository{db: s.db}
}

// Record stores every annotation of one frame in a single transaction.
func (r *SightingRepository) Record(sessionID string, frameSeq uint64, at time.Time, anns annotate.FrameAnnotation) error {
	if len(anns) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO sightings (session_id, frame_seq, label, known, distance, box_top, box_right, box_bottom, box_left, seen_at_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, a := range anns {
		_, err := stmt.Exec(
			sessionID, int64(frameSeq), a.Label, a.Known, a.Distance,
			a.Box.Top, a.Box.Right, a.Box.Bottom, a.Box.Left, at.UnixMilli(),
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Recent returns up to limit sightings of a session, newest first.
func (r *SightingRepository) Recent(sessionID string, limit int) ([]Sighting, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(
		`SELECT id, session_id, frame_seq, label, known, distance, box_top, box_right, box_bottom, box_left, seen_at_ms
		 FROM sightings WHERE session_id = ? ORDER BY id DESC LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sightings []Sighting
	for rows.Next() {
		var s Sighting
		var seq, seenAt int64
		if err := rows.Scan(&s.ID, &s.SessionID, &seq, &s.Label, &s.Known, &s.Distance,
			&s.Box.Top, &s.Box.Right, &s.Box.Bottom, &s.Box.Left, &seenAt); err != nil {
			return nil, err
		}
		s.FrameSeq = uint64(seq)
		s.SeenAt = time.UnixMilli(seenAt)
		sightings = append(sightings, s)
	}

	return sightings, rows.Err()
}

// Summary returns per-label counts for a session, most frequent first.
func (r *SightingRepository) Summary(sessionID string) ([]LabelSummary, error) {
	rows, err := r.db.Query(
		`SELECT label, known, COUNT(*), MIN(seen_at_ms), MAX(seen_at_ms), MIN(distance)
		 FROM sightings WHERE session_id = ?
		 GROUP BY label, known
		 ORDER BY COUNT(*) DESC, label ASC`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []LabelSummary
	for rows.Next() {
		var s LabelSummary
		var first, last int64
		if err := rows.Scan(&s.Label, &s.Known, &s.Count, &first, &last, &s.BestDistance); err != nil {
			return nil, err
		}
		s.FirstSeen = time.UnixMilli(first)
		s.LastSeen = time.UnixMilli(last)
		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}

// Count returns the number of sightings in a session.
func (r *SightingRepository) Count(sessionID string) (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM sightings WHERE session_id = ?`, sessionID).Scan(&n)
	return n, err
}
