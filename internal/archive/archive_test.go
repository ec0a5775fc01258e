package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	dir := t.TempDir()
	s := New(filepath.Join(dir, "archives.db"), filepath.Join(dir, "backups"))
	if err := s.Initialize(); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func sampleTask(id string) Task {
	createdAt := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	completedAt := time.Date(2026, 8, 15, 10, 30, 0, 0, time.UTC)

	return Task{
		ID:          id,
		Title:       "Quarterly report " + id,
		Description: "Prepare the quarterly figures",
		Category:    "work",
		Project:     "finance",
		Priority:    "high",
		Status:      "completed",
		DueDate:     "2026-08-20",
		Tags:        []string{"reports", "q3"},
		Attachments: []json.RawMessage{json.RawMessage(`{"name":"draft.xlsx","size":2048}`)},
		Notes:       []Note{{Content: "reviewed by accounting"}, {Content: "needs final sign-off"}},
		CreatedAt:   &createdAt,
		CompletedAt: &completedAt,
		CreatedBy:   "maria",
		CompletedBy: "maria",
	}
}

func TestInitializeIdempotent(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "archives.db")
	backupDir := filepath.Join(dir, "backups")

	s := New(dbPath, backupDir)
	for i := 0; i < 3; i++ {
		if err := s.Initialize(); err != nil {
			t.Fatalf("initialize call %d failed: %v", i+1, err)
		}
	}
	if _, err := s.ArchiveTask(context.Background(), sampleTask("task-1")); err != nil {
		t.Fatalf("archive after repeated initialize failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	// Re-opening against the same files replays the DDL against an
	// existing schema and must still be a no-op.
	reopened := New(dbPath, backupDir)
	if err := reopened.Initialize(); err != nil {
		t.Fatalf("initialize against existing database failed: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	tasks, err := reopened.SearchArchived(context.Background(), SearchOptions{})
	if err != nil {
		t.Fatalf("search after reopen failed: %v", err)
	}
	if len(tasks) != 1 {
		t.Errorf("expected 1 archived task after reopen, got %d", len(tasks))
	}
}

func TestArchiveAndSearchRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	original := sampleTask("task-rt")
	result, err := s.ArchiveTask(ctx, original)
	if err != nil {
		t.Fatalf("archive failed: %v", err)
	}
	if result.Task.ArchivedAt.IsZero() {
		t.Error("expected archived_at to be set")
	}
	if result.Task.Metadata.OriginalStatus != "completed" {
		t.Errorf("expected original_status completed, got %q", result.Task.Metadata.OriginalStatus)
	}
	if result.Task.Metadata.ArchiveReason != "completed" {
		t.Errorf("expected archive_reason completed, got %q", result.Task.Metadata.ArchiveReason)
	}

	found, err := s.SearchArchived(ctx, SearchOptions{Search: "quarterly"})
	if err != nil {
		t.Fatalf("full-text search failed: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("expected 1 match, got %d", len(found))
	}

	got := found[0]
	if got.ID != original.ID {
		t.Errorf("expected id %s, got %s", original.ID, got.ID)
	}
	if !reflect.DeepEqual(got.Tags, original.Tags) {
		t.Errorf("tags did not round-trip: %v != %v", got.Tags, original.Tags)
	}
	if !reflect.DeepEqual(got.Notes, original.Notes) {
		t.Errorf("notes did not round-trip: %v != %v", got.Notes, original.Notes)
	}
	if len(got.Attachments) != 1 {
		t.Fatalf("expected 1 attachment, got %d", len(got.Attachments))
	}
	if got.CompletedAt == nil || !got.CompletedAt.Equal(*original.CompletedAt) {
		t.Errorf("completed_at did not round-trip: %v != %v", got.CompletedAt, original.CompletedAt)
	}
}

func TestSearchTextProjection(t *testing.T) {
	s := newTestStore(t)

	result, err := s.ArchiveTask(context.Background(), sampleTask("task-st"))
	if err != nil {
		t.Fatalf("archive failed: %v", err)
	}

	want := "quarterly report task-st prepare the quarterly figures work finance high reports q3 reviewed by accounting needs final sign-off"
	if result.Task.SearchText != want {
		t.Errorf("search text mismatch:\n got %q\nwant %q", result.Task.SearchText, want)
	}
}

func TestNoteDecoding(t *testing.T) {
	var notes []Note
	payload := `["plain string note", {"content": "object note"}]`
	if err := json.Unmarshal([]byte(payload), &notes); err != nil {
		t.Fatalf("decode notes failed: %v", err)
	}
	if len(notes) != 2 {
		t.Fatalf("expected 2 notes, got %d", len(notes))
	}
	if notes[0].Content != "plain string note" {
		t.Errorf("string note decoded as %q", notes[0].Content)
	}
	if notes[1].Content != "object note" {
		t.Errorf("object note decoded as %q", notes[1].Content)
	}
}

func TestArchiveDuplicateID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.ArchiveTask(ctx, sampleTask("task-dup")); err != nil {
		t.Fatalf("first archive failed: %v", err)
	}

	second := sampleTask("task-dup")
	second.Title = "A different title"
	_, err := s.ArchiveTask(ctx, second)
	if err == nil {
		t.Fatal("expected duplicate archive to fail")
	}
	if !errors.Is(err, ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID, got %v", err)
	}

	// The first row must be untouched.
	found, err := s.SearchArchived(ctx, SearchOptions{})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(found) != 1 || found[0].Title != "Quarterly report task-dup" {
		t.Errorf("original row was not preserved: %+v", found)
	}
}

func TestFullTextShadowStaysInSync(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const n = 7
	for i := 0; i < n; i++ {
		if _, err := s.ArchiveTask(ctx, sampleTask(fmt.Sprintf("task-%d", i))); err != nil {
			t.Fatalf("archive %d failed: %v", i, err)
		}
	}

	var tableCount, ftsCount int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM archived_tasks").Scan(&tableCount); err != nil {
		t.Fatalf("count table rows failed: %v", err)
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM archived_tasks_fts").Scan(&ftsCount); err != nil {
		t.Fatalf("count fts rows failed: %v", err)
	}
	if tableCount != n || ftsCount != n {
		t.Errorf("expected %d rows in both tables, got table=%d fts=%d", n, tableCount, ftsCount)
	}
}

func TestSearchFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := sampleTask("task-a")
	a.Project = "finance"
	a.Category = "work"
	a.Priority = "high"

	b := sampleTask("task-b")
	b.Project = "home"
	b.Category = "personal"
	b.Priority = "low"
	earlier := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	b.CompletedAt = &earlier

	for _, task := range []Task{a, b} {
		if _, err := s.ArchiveTask(ctx, task); err != nil {
			t.Fatalf("archive %s failed: %v", task.ID, err)
		}
	}

	byProject, err := s.SearchArchived(ctx, SearchOptions{Project: "home"})
	if err != nil {
		t.Fatalf("project filter failed: %v", err)
	}
	if len(byProject) != 1 || byProject[0].ID != "task-b" {
		t.Errorf("project filter returned %+v", byProject)
	}

	byCategoryAndPriority, err := s.SearchArchived(ctx, SearchOptions{Category: "work", Priority: "high"})
	if err != nil {
		t.Fatalf("combined filter failed: %v", err)
	}
	if len(byCategoryAndPriority) != 1 || byCategoryAndPriority[0].ID != "task-a" {
		t.Errorf("combined filter returned %+v", byCategoryAndPriority)
	}

	byRange, err := s.SearchArchived(ctx, SearchOptions{
		StartDate: "2026-01-01",
		EndDate:   "2026-02-01",
	})
	if err != nil {
		t.Fatalf("date range filter failed: %v", err)
	}
	if len(byRange) != 1 || byRange[0].ID != "task-b" {
		t.Errorf("date range filter returned %+v", byRange)
	}

	ftsAndFilter, err := s.SearchArchived(ctx, SearchOptions{Search: "quarterly", Project: "finance"})
	if err != nil {
		t.Fatalf("full-text plus filter failed: %v", err)
	}
	if len(ftsAndFilter) != 1 || ftsAndFilter[0].ID != "task-a" {
		t.Errorf("full-text plus filter returned %+v", ftsAndFilter)
	}
}

func TestSearchOrdering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	titles := []string{"Charlie", "Alpha", "Bravo"}
	for i, title := range titles {
		task := sampleTask(fmt.Sprintf("task-%d", i))
		task.Title = title
		if _, err := s.ArchiveTask(ctx, task); err != nil {
			t.Fatalf("archive failed: %v", err)
		}
	}

	asc, err := s.SearchArchived(ctx, SearchOptions{OrderBy: "title", Order: "ASC"})
	if err != nil {
		t.Fatalf("ordered search failed: %v", err)
	}
	got := []string{asc[0].Title, asc[1].Title, asc[2].Title}
	want := []string{"Alpha", "Bravo", "Charlie"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected order %v, got %v", want, got)
	}

	// An unknown column is never interpolated; it falls back to archived_at.
	if _, err := s.SearchArchived(ctx, SearchOptions{OrderBy: "title; DROP TABLE archived_tasks"}); err != nil {
		t.Fatalf("search with bogus order column failed: %v", err)
	}
	count, err := s.SearchArchived(ctx, SearchOptions{})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(count) != 3 {
		t.Errorf("expected table to survive bogus order column, got %d rows", len(count))
	}
}

func TestPagination(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		if _, err := s.ArchiveTask(ctx, sampleTask(fmt.Sprintf("task-%02d", i))); err != nil {
			t.Fatalf("archive %d failed: %v", i, err)
		}
	}

	firstPage, err := s.SearchArchived(ctx, SearchOptions{OrderBy: "id", Order: "ASC", Limit: 10})
	if err != nil {
		t.Fatalf("first page failed: %v", err)
	}
	secondPage, err := s.SearchArchived(ctx, SearchOptions{OrderBy: "id", Order: "ASC", Limit: 10, Offset: 10})
	if err != nil {
		t.Fatalf("second page failed: %v", err)
	}

	if len(firstPage) != 10 || len(secondPage) != 10 {
		t.Fatalf("expected pages of 10, got %d and %d", len(firstPage), len(secondPage))
	}

	seen := make(map[string]bool, 10)
	for _, task := range firstPage {
		seen[task.ID] = true
	}
	for _, task := range secondPage {
		if seen[task.ID] {
			t.Errorf("task %s appears on both pages", task.ID)
		}
	}

	// Offset without limit is ignored: the full set comes back.
	all, err := s.SearchArchived(ctx, SearchOptions{Offset: 10})
	if err != nil {
		t.Fatalf("offset without limit failed: %v", err)
	}
	if len(all) != 25 {
		t.Errorf("expected offset without limit to return all 25 rows, got %d", len(all))
	}
}

func TestStatistics(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	type fixture struct {
		category string
		project  string
		user     string
	}
	fixtures := []fixture{
		{"work", "finance", "maria"},
		{"work", "finance", "maria"},
		{"work", "website", "maria"},
		{"personal", "home", "jorge"},
		{"personal", "home", "jorge"},
	}
	for i, f := range fixtures {
		task := sampleTask(fmt.Sprintf("task-%d", i))
		task.Category = f.category
		task.Project = f.project
		task.CreatedBy = f.user
		if _, err := s.ArchiveTask(ctx, task); err != nil {
			t.Fatalf("archive %d failed: %v", i, err)
		}
	}

	stats, err := s.GetStatistics(ctx)
	if err != nil {
		t.Fatalf("statistics failed: %v", err)
	}

	if stats.Total != 5 {
		t.Errorf("expected total 5, got %d", stats.Total)
	}

	categories := make(map[string]int, len(stats.ByCategory))
	for _, c := range stats.ByCategory {
		categories[c.Category] = c.Count
	}
	if categories["work"] != 3 || categories["personal"] != 2 {
		t.Errorf("unexpected category counts: %v", categories)
	}

	if len(stats.ByProject) == 0 || stats.ByProject[0].Project != "finance" {
		t.Errorf("expected finance first in byProject, got %+v", stats.ByProject)
	}
	for i := 1; i < len(stats.ByProject); i++ {
		if stats.ByProject[i].Count > stats.ByProject[i-1].Count {
			t.Errorf("byProject not sorted by count desc: %+v", stats.ByProject)
		}
	}

	if len(stats.ByMonth) != 1 || stats.ByMonth[0].Month != "2026-08" || stats.ByMonth[0].Count != 5 {
		t.Errorf("unexpected byMonth: %+v", stats.ByMonth)
	}

	if len(stats.ByUser) == 0 || stats.ByUser[0].CreatedBy != "maria" || stats.ByUser[0].Count != 3 {
		t.Errorf("unexpected byUser: %+v", stats.ByUser)
	}
}

func TestUnarchiveInverse(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	original := sampleTask("task-restore")
	if _, err := s.ArchiveTask(ctx, original); err != nil {
		t.Fatalf("archive failed: %v", err)
	}

	restored, err := s.UnarchiveTask(ctx, "task-restore")
	if err != nil {
		t.Fatalf("unarchive failed: %v", err)
	}

	if restored.Status != "pending" {
		t.Errorf("expected status pending after restore, got %q", restored.Status)
	}
	if restored.CompletedAt != nil {
		t.Errorf("expected completed_at cleared, got %v", restored.CompletedAt)
	}
	if !reflect.DeepEqual(restored.Tags, original.Tags) {
		t.Errorf("tags not reconstructed: %v", restored.Tags)
	}
	if !reflect.DeepEqual(restored.Notes, original.Notes) {
		t.Errorf("notes not reconstructed: %v", restored.Notes)
	}

	remaining, err := s.SearchArchived(ctx, SearchOptions{})
	if err != nil {
		t.Fatalf("search after unarchive failed: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("expected archive copy gone, got %d rows", len(remaining))
	}

	var ftsCount int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM archived_tasks_fts WHERE id = ?", "task-restore").Scan(&ftsCount); err != nil {
		t.Fatalf("count fts rows failed: %v", err)
	}
	if ftsCount != 0 {
		t.Errorf("expected no orphaned fts row, got %d", ftsCount)
	}
}

func TestUnarchiveNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.UnarchiveTask(context.Background(), "nonexistent-id")
	if err == nil {
		t.Fatal("expected unarchiving a missing id to fail")
	}
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
