package entry

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/soverbye/dagbok/internal/dbopen"
	"github.com/soverbye/dagbok/internal/digest"

	_ "modernc.org/sqlite"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	db := dbopen.OpenMemory(t, dbopen.WithSchema(Schema))
	return NewStore(db)
}

// at pins the store clock for deterministic dates.
func at(s *Store, t time.Time) {
	s.now = func() time.Time { return t }
}

func TestCreateAndGet(t *testing.T) {
	// WHAT: Create inserts an entry with timestamp and local date; Get
	// returns it by id.
	s := openTestStore(t)
	ctx := context.Background()
	at(s, time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC))

	id, err := s.Create(ctx, "wrote some Go today")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id == 0 {
		t.Fatal("id should be non-zero")
	}

	got, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Body != "wrote some Go today" {
		t.Errorf("body: got %q", got.Body)
	}
	if got.Timestamp.Unix() != time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC).Unix() {
		t.Errorf("timestamp: got %v", got.Timestamp)
	}
	if got.Date == "" {
		t.Error("date should be set")
	}
}

func TestGetMissing(t *testing.T) {
	// WHAT: Fetching a nonexistent entry reports ErrNotFound.
	s := openTestStore(t)
	if _, err := s.Get(context.Background(), 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get: got %v, want ErrNotFound", err)
	}
}

func TestRecentOrderAndLimit(t *testing.T) {
	// WHAT: Recent returns newest first and honours the limit.
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		at(s, base.Add(time.Duration(i)*time.Hour))
		if _, err := s.Create(ctx, "entry"); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	recent, err := s.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("recent: got %d entries", len(recent))
	}
	for i := 1; i < len(recent); i++ {
		if recent[i].Timestamp.After(recent[i-1].Timestamp) {
			t.Errorf("recent not newest-first at %d", i)
		}
	}
}

func TestYearCountsAndYear(t *testing.T) {
	// WHAT: Entries aggregate per year, and one year's view groups them by
	// month in chronological order.
	s := openTestStore(t)
	ctx := context.Background()

	times := []time.Time{
		time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC),
		time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC),
		time.Date(2025, 2, 14, 8, 0, 0, 0, time.UTC),
		time.Date(2025, 11, 5, 8, 0, 0, 0, time.UTC),
	}
	for _, ts := range times {
		at(s, ts)
		if _, err := s.Create(ctx, "entry for "+ts.Format("2006-01-02")); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	counts, err := s.YearCounts(ctx)
	if err != nil {
		t.Fatalf("year counts: %v", err)
	}
	if len(counts) != 2 {
		t.Fatalf("counts: %v", counts)
	}
	if counts[0].Year != 2025 || counts[0].Count != 3 {
		t.Errorf("2025: %+v", counts[0])
	}
	if counts[1].Year != 2024 || counts[1].Count != 1 {
		t.Errorf("2024: %+v", counts[1])
	}

	groups, total, err := s.Year(ctx, 2025)
	if err != nil {
		t.Fatalf("year: %v", err)
	}
	if total != 3 {
		t.Errorf("total: got %d", total)
	}
	if len(groups) != 2 {
		t.Fatalf("groups: %d", len(groups))
	}
	if groups[0].Month != time.February || len(groups[0].Entries) != 2 {
		t.Errorf("first group: %v with %d entries", groups[0].Month, len(groups[0].Entries))
	}
	if groups[1].Month != time.November {
		t.Errorf("second group: %v", groups[1].Month)
	}
	feb := groups[0].Entries
	if feb[0].Timestamp.After(feb[1].Timestamp) {
		t.Error("entries within month should be chronological")
	}
}

func TestSearch(t *testing.T) {
	// WHAT: Full-text search finds matching entries, newest first, with
	// snippets; ids join back to real entries.
	s := openTestStore(t)
	ctx := context.Background()

	at(s, time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC))
	if _, err := s.Create(ctx, "planted tomatoes in the garden"); err != nil {
		t.Fatalf("create: %v", err)
	}
	at(s, time.Date(2025, 5, 2, 10, 0, 0, 0, time.UTC))
	wantID, err := s.Create(ctx, "the garden is thriving")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	at(s, time.Date(2025, 5, 3, 10, 0, 0, 0, time.UTC))
	if _, err := s.Create(ctx, "stayed inside all day"); err != nil {
		t.Fatalf("create: %v", err)
	}

	results, err := s.Search(ctx, "garden")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results: got %d", len(results))
	}
	if results[0].EntryID != wantID {
		t.Errorf("newest first: got id %d, want %d", results[0].EntryID, wantID)
	}
	if results[0].Snippet == "" {
		t.Error("snippet should not be empty")
	}

	none, err := s.Search(ctx, "zeppelin")
	if err != nil {
		t.Fatalf("search no match: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no results, got %d", len(none))
	}
}

func TestDraftSlot(t *testing.T) {
	// WHAT: The draft slot upserts, fingerprints its content, and clears.
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.GetDraft(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("empty slot: got %v", err)
	}

	if err := s.SaveDraft(ctx, "first version"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.SaveDraft(ctx, "second version"); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	d, err := s.GetDraft(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if d.Content != "second version" {
		t.Errorf("content: got %q", d.Content)
	}
	if d.ContentHash != digest.Hex("second version") {
		t.Errorf("hash: got %q", d.ContentHash)
	}

	// Only one row regardless of how many saves happened.
	var n int
	if err := s.DB.QueryRow(`SELECT COUNT(*) FROM draft`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("draft rows: got %d, want 1", n)
	}

	if err := s.ClearDraft(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := s.GetDraft(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("after clear: got %v", err)
	}
}

func TestSearchIndexSharesRowids(t *testing.T) {
	// WHAT: The FTS index row for an entry carries the entry's rowid.
	// WHY: Search joins entrytext.rowid to entries.rowid.
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, "rowid alignment check")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	var ftsID int64
	err = s.DB.QueryRow(`SELECT rowid FROM entrytext WHERE entrytext MATCH 'alignment'`).Scan(&ftsID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("fts query: %v", err)
	}
	if ftsID != id {
		t.Errorf("fts rowid: got %d, want %d", ftsID, id)
	}
}
