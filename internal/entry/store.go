// Package entry provides the data access layer for diary entries and the
// server-side draft slot.
package entry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/soverbye/dagbok/internal/digest"
)

// ErrNotFound is returned when an entry or draft does not exist.
var ErrNotFound = errors.New("entry: not found")

// Entry is one diary entry. Date is the local calendar day the entry was
// written ("2006-01-02"); Timestamp is the exact instant, UTC.
type Entry struct {
	ID        int64
	Date      string
	Timestamp time.Time
	Body      string
}

// Month returns the entry's calendar month, taken from the date column.
func (e *Entry) Month() time.Month {
	d, err := time.Parse("2006-01-02", e.Date)
	if err != nil {
		return time.January
	}
	return d.Month()
}

// YearCount is the number of entries written in one year.
type YearCount struct {
	Year  int
	Count int
}

// MonthGroup is a month's entries, oldest first.
type MonthGroup struct {
	Month   time.Month
	Entries []Entry
}

// SearchResult is one full-text search hit.
type SearchResult struct {
	EntryID   int64
	Timestamp time.Time
	Snippet   string
}

// Draft is the server-side draft slot content.
type Draft struct {
	Content     string
	ContentHash string
	UpdatedAt   time.Time
}

// Store wraps the diary database.
type Store struct {
	DB  *sql.DB
	now func() time.Time
}

// NewStore creates a Store from an already-opened database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{DB: db, now: time.Now}
}

// Create inserts an entry at the current instant and indexes its body for
// search. The date column uses local time, matching how a diary day is
// experienced. Returns the new entry's id.
func (s *Store) Create(ctx context.Context, body string) (int64, error) {
	now := s.now()
	res, err := s.DB.ExecContext(ctx,
		`INSERT INTO entries (timestamp, date, body) VALUES (?, ?, ?)`,
		now.Unix(), now.Local().Format("2006-01-02"), body)
	if err != nil {
		return 0, fmt.Errorf("create entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create entry: %w", err)
	}
	// Index under the same rowid so search results join back to entries.
	if _, err := s.DB.ExecContext(ctx,
		`INSERT INTO entrytext (rowid, body) VALUES (?, ?)`, id, body); err != nil {
		return 0, fmt.Errorf("index entry: %w", err)
	}
	return id, nil
}

// CreateAt inserts an entry at an explicit instant. Used by the bulk
// importer, which recovers timestamps from file names.
func (s *Store) CreateAt(ctx context.Context, at time.Time, body string) (int64, error) {
	res, err := s.DB.ExecContext(ctx,
		`INSERT INTO entries (timestamp, date, body) VALUES (?, ?, ?)`,
		at.Unix(), at.Local().Format("2006-01-02"), body)
	if err != nil {
		return 0, fmt.Errorf("create entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create entry: %w", err)
	}
	if _, err := s.DB.ExecContext(ctx,
		`INSERT INTO entrytext (rowid, body) VALUES (?, ?)`, id, body); err != nil {
		return 0, fmt.Errorf("index entry: %w", err)
	}
	return id, nil
}

// Get fetches one entry by id.
func (s *Store) Get(ctx context.Context, id int64) (*Entry, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT rowid, date, timestamp, body FROM entries WHERE rowid = ?`, id)
	return scanEntry(row)
}

// Recent returns the count most recent entries, newest first.
func (s *Store) Recent(ctx context.Context, count int) ([]Entry, error) {
	if count <= 0 {
		count = 8
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT rowid, date, timestamp, body FROM entries ORDER BY timestamp DESC LIMIT ?`, count)
	if err != nil {
		return nil, fmt.Errorf("recent entries: %w", err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

// YearCounts returns the number of entries per year, newest year first.
func (s *Store) YearCounts(ctx context.Context) ([]YearCount, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT CAST(strftime('%Y', date) AS INTEGER) AS year, COUNT(*) AS cnt
		FROM entries
		GROUP BY year
		ORDER BY year DESC`)
	if err != nil {
		return nil, fmt.Errorf("year counts: %w", err)
	}
	defer rows.Close()

	var counts []YearCount
	for rows.Next() {
		var yc YearCount
		if err := rows.Scan(&yc.Year, &yc.Count); err != nil {
			return nil, fmt.Errorf("scan year count: %w", err)
		}
		counts = append(counts, yc)
	}
	return counts, rows.Err()
}

// Year returns one year's entries grouped by month. Months and the entries
// within them are in chronological order.
func (s *Store) Year(ctx context.Context, year int) ([]MonthGroup, int, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT rowid, date, timestamp, body
		FROM entries
		WHERE CAST(strftime('%Y', date) AS INTEGER) = ?
		ORDER BY timestamp`, year)
	if err != nil {
		return nil, 0, fmt.Errorf("year entries: %w", err)
	}
	defer rows.Close()

	entries, err := collectEntries(rows)
	if err != nil {
		return nil, 0, err
	}

	byMonth := make(map[time.Month][]Entry)
	for _, e := range entries {
		m := e.Month()
		byMonth[m] = append(byMonth[m], e)
	}
	groups := make([]MonthGroup, 0, len(byMonth))
	for m, es := range byMonth {
		groups = append(groups, MonthGroup{Month: m, Entries: es})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Month < groups[j].Month })
	return groups, len(entries), nil
}

// Search runs a full-text query over entry bodies, newest first. Snippets
// are capped at 32 tokens with an ellipsis.
func (s *Store) Search(ctx context.Context, query string) ([]SearchResult, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT entries.rowid, entries.timestamp, snippet(entrytext, 0, '', '', '...', 32)
		FROM entrytext
		JOIN entries ON entrytext.rowid = entries.rowid
		WHERE entrytext MATCH ?
		ORDER BY timestamp DESC`, query)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var ts int64
		if err := rows.Scan(&r.EntryID, &ts, &r.Snippet); err != nil {
			return nil, fmt.Errorf("scan search result: %w", err)
		}
		r.Timestamp = time.Unix(ts, 0).UTC()
		results = append(results, r)
	}
	return results, rows.Err()
}

// SaveDraft upserts the draft slot with content and its fingerprint.
func (s *Store) SaveDraft(ctx context.Context, content string) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO draft (id, content, content_hash, updated_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content = excluded.content,
			content_hash = excluded.content_hash,
			updated_at = excluded.updated_at`,
		content, digest.Hex(content), s.now().Unix())
	if err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

// GetDraft returns the draft slot, or ErrNotFound when empty.
func (s *Store) GetDraft(ctx context.Context) (*Draft, error) {
	var d Draft
	var ts int64
	err := s.DB.QueryRowContext(ctx,
		`SELECT content, content_hash, updated_at FROM draft WHERE id = 1`).
		Scan(&d.Content, &d.ContentHash, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get draft: %w", err)
	}
	d.UpdatedAt = time.Unix(ts, 0).UTC()
	return &d, nil
}

// ClearDraft empties the draft slot. Called once the entry it was
// protecting has been submitted.
func (s *Store) ClearDraft(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM draft WHERE id = 1`); err != nil {
		return fmt.Errorf("clear draft: %w", err)
	}
	return nil
}

func scanEntry(row *sql.Row) (*Entry, error) {
	var e Entry
	var ts int64
	err := row.Scan(&e.ID, &e.Date, &ts, &e.Body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan entry: %w", err)
	}
	e.Timestamp = time.Unix(ts, 0).UTC()
	return &e, nil
}

func collectEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var ts int64
		if err := rows.Scan(&e.ID, &e.Date, &ts, &e.Body); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Timestamp = time.Unix(ts, 0).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
