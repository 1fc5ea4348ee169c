// Melographus - Music Listening Analytics
// Copyright 2026 T. Wade (tmwade)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tmwade/melographus

package database

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/tmwade/melographus/internal/config"
	"github.com/tmwade/melographus/internal/models"
)

// testDBSemaphore serializes database creation. Concurrent DuckDB CGO
// calls can hang under CI resource pressure, so only one test holds an
// active connection at a time.
var testDBSemaphore = make(chan struct{}, 1)

// testDBMutex serializes the New() call itself.
var testDBMutex sync.Mutex

// setupTestDB creates a new in-memory test database with timeout
// protection. The semaphore is held for the ENTIRE test lifecycle and
// released via t.Cleanup, not just during DB creation: even serialized
// creation doesn't prevent hangs when two tests issue concurrent
// INSERT/SELECT traffic through CGO.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() {
		<-testDBSemaphore
	})

	cfg := &config.DatabaseConfig{
		Path:         ":memory:",
		MaxMemory:    "1GB",
		QueryTimeout: 30 * time.Second,
	}

	type result struct {
		db  *DB
		err error
	}

	resultCh := make(chan result, 1)
	go func() {
		testDBMutex.Lock()
		db, err := New(cfg)
		testDBMutex.Unlock()
		resultCh <- result{db: db, err: err}
	}()

	select {
	case res := <-resultCh:
		if res.err != nil {
			t.Fatalf("Failed to create test database: %v", res.err)
		}
		t.Cleanup(func() {
			if err := res.db.Close(); err != nil {
				t.Errorf("Failed to close test database: %v", err)
			}
		})
		return res.db
	case <-time.After(120 * time.Second):
		t.Fatalf("Timeout: database creation took longer than 120s (DuckDB may be under resource pressure)")
		return nil
	}
}

func checkNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

// insertEvent is shorthand for the common test insert.
func insertEvent(t *testing.T, db *DB, userID int64, songID, title, artist string, startedAt time.Time, durationMS int64) {
	t.Helper()
	err := db.InsertPlaybackEvent(context.Background(), &models.PlaybackEvent{
		UserID:              userID,
		SongID:              songID,
		SongTitle:           title,
		ArtistName:          artist,
		StartedAt:           startedAt,
		ListeningDurationMS: durationMS,
	})
	checkNoError(t, err)
}

func TestInsertPlaybackEvent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	start := time.Date(2024, time.March, 5, 14, 30, 0, 0, time.UTC)
	insertEvent(t, db, 1, "song-1", "Holocene", "Bon Iver", start, 272000)

	count, err := db.CountEvents(ctx, 1,
		time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC))
	checkNoError(t, err)
	if count != 1 {
		t.Errorf("Expected 1 event, got %d", count)
	}
}

func TestInsertPlaybackEventRejectsNonPositiveDuration(t *testing.T) {
	db := setupTestDB(t)

	err := db.InsertPlaybackEvent(context.Background(), &models.PlaybackEvent{
		UserID:              1,
		SongID:              "song-1",
		SongTitle:           "Holocene",
		ArtistName:          "Bon Iver",
		StartedAt:           time.Now().UTC(),
		ListeningDurationMS: 0,
	})
	if err == nil {
		t.Fatal("Expected error for zero-duration event, got nil")
	}
}

func TestGetTotalListeningTime(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	monthStart := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	monthEnd := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)

	insertEvent(t, db, 1, "s1", "Song A", "Artist X", monthStart.Add(10*time.Hour), 180000)
	insertEvent(t, db, 1, "s2", "Song B", "Artist Y", monthStart.Add(35*time.Hour), 240000)
	// Different user: must not leak into user 1's total.
	insertEvent(t, db, 2, "s1", "Song A", "Artist X", monthStart.Add(10*time.Hour), 999000)
	// Outside the window.
	insertEvent(t, db, 1, "s3", "Song C", "Artist Z", monthEnd.Add(time.Hour), 600000)

	total, err := db.GetTotalListeningTime(ctx, 1, monthStart, monthEnd)
	checkNoError(t, err)
	if total != 420000 {
		t.Errorf("Expected total 420000ms, got %d", total)
	}
}

func TestGetTotalListeningTimeEmptyMonth(t *testing.T) {
	db := setupTestDB(t)

	total, err := db.GetTotalListeningTime(context.Background(), 1,
		time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC))
	checkNoError(t, err)
	if total != 0 {
		t.Errorf("Expected 0 for empty month, got %d", total)
	}
}

func TestMonthBoundaryIsHalfOpen(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	marchStart := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	aprilStart := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)

	// Last instant of March and first instant of April.
	insertEvent(t, db, 1, "s1", "Song A", "Artist X", aprilStart.Add(-time.Second), 1000)
	insertEvent(t, db, 1, "s1", "Song A", "Artist X", aprilStart, 2000)

	marchTotal, err := db.GetTotalListeningTime(ctx, 1, marchStart, aprilStart)
	checkNoError(t, err)
	if marchTotal != 1000 {
		t.Errorf("Expected March total 1000ms, got %d", marchTotal)
	}

	aprilTotal, err := db.GetTotalListeningTime(ctx, 1, aprilStart,
		time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC))
	checkNoError(t, err)
	if aprilTotal != 2000 {
		t.Errorf("Expected April total 2000ms, got %d", aprilTotal)
	}
}

func TestGetArtistStatsRanking(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	start := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)

	insertEvent(t, db, 1, "s1", "Song A", "Beta", start.Add(time.Hour), 100000)
	insertEvent(t, db, 1, "s2", "Song B", "Beta", start.Add(2*time.Hour), 200000)
	insertEvent(t, db, 1, "s3", "Song C", "Alpha", start.Add(3*time.Hour), 250000)
	insertEvent(t, db, 1, "s4", "Song D", "Gamma", start.Add(4*time.Hour), 50000)

	stats, err := db.GetArtistStats(ctx, 1, start, end, 10)
	checkNoError(t, err)

	if len(stats) != 3 {
		t.Fatalf("Expected 3 artists, got %d", len(stats))
	}
	if stats[0].ArtistName != "Beta" || stats[0].TotalDurationMS != 300000 || stats[0].PlayCount != 2 {
		t.Errorf("Unexpected top artist: %+v", stats[0])
	}
	if stats[1].ArtistName != "Alpha" {
		t.Errorf("Expected Alpha second, got %s", stats[1].ArtistName)
	}
	if stats[2].ArtistName != "Gamma" {
		t.Errorf("Expected Gamma third, got %s", stats[2].ArtistName)
	}
}

func TestGetArtistStatsTieBreaksByName(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	start := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)

	insertEvent(t, db, 1, "s1", "Song A", "Zeta", start.Add(time.Hour), 100000)
	insertEvent(t, db, 1, "s2", "Song B", "Alpha", start.Add(2*time.Hour), 100000)

	stats, err := db.GetArtistStats(ctx, 1, start, end, 10)
	checkNoError(t, err)

	if len(stats) != 2 {
		t.Fatalf("Expected 2 artists, got %d", len(stats))
	}
	if stats[0].ArtistName != "Alpha" || stats[1].ArtistName != "Zeta" {
		t.Errorf("Equal durations must order by name ascending, got %s then %s",
			stats[0].ArtistName, stats[1].ArtistName)
	}
}

func TestGetArtistStatsLimit(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	start := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)

	for i, artist := range []string{"A", "B", "C", "D", "E"} {
		insertEvent(t, db, 1, "s", "Song", artist, start.Add(time.Duration(i)*time.Hour), int64(100000*(i+1)))
	}

	stats, err := db.GetArtistStats(ctx, 1, start, end, 3)
	checkNoError(t, err)
	if len(stats) != 3 {
		t.Fatalf("Expected 3 artists with limit 3, got %d", len(stats))
	}
	if stats[0].ArtistName != "E" {
		t.Errorf("Expected E first, got %s", stats[0].ArtistName)
	}
}

func TestGetSongStatsGroupsByTitleAndArtist(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	start := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)

	// Same title by two different artists stays two rows.
	insertEvent(t, db, 1, "s1", "Hurt", "Nine Inch Nails", start.Add(time.Hour), 200000)
	insertEvent(t, db, 1, "s2", "Hurt", "Johnny Cash", start.Add(2*time.Hour), 300000)
	insertEvent(t, db, 1, "s2", "Hurt", "Johnny Cash", start.Add(3*time.Hour), 300000)

	stats, err := db.GetSongStats(ctx, 1, start, end, 10)
	checkNoError(t, err)

	if len(stats) != 2 {
		t.Fatalf("Expected 2 songs, got %d", len(stats))
	}
	if stats[0].ArtistName != "Johnny Cash" || stats[0].TotalDurationMS != 600000 || stats[0].PlayCount != 2 {
		t.Errorf("Unexpected top song: %+v", stats[0])
	}
	if stats[1].ArtistName != "Nine Inch Nails" {
		t.Errorf("Expected Nine Inch Nails second, got %s", stats[1].ArtistName)
	}
}

func TestGetDailyListeningPartitionsMonth(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	start := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)

	insertEvent(t, db, 1, "s1", "Song A", "Artist X", time.Date(2024, time.March, 3, 8, 0, 0, 0, time.UTC), 100000)
	insertEvent(t, db, 1, "s1", "Song A", "Artist X", time.Date(2024, time.March, 3, 22, 0, 0, 0, time.UTC), 150000)
	insertEvent(t, db, 1, "s2", "Song B", "Artist Y", time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC), 200000)

	daily, err := db.GetDailyListening(ctx, 1, start, end)
	checkNoError(t, err)

	if len(daily) != 2 {
		t.Fatalf("Expected 2 days with data, got %d", len(daily))
	}
	if daily[0].Day.Day() != 3 || daily[0].TotalDurationMS != 250000 {
		t.Errorf("Unexpected first day: %+v", daily[0])
	}
	if daily[1].Day.Day() != 10 || daily[1].TotalDurationMS != 200000 {
		t.Errorf("Unexpected second day: %+v", daily[1])
	}

	// Daily totals must sum to the bucket total.
	total, err := db.GetTotalListeningTime(ctx, 1, start, end)
	checkNoError(t, err)
	var sum int64
	for _, d := range daily {
		sum += d.TotalDurationMS
	}
	if sum != total {
		t.Errorf("Daily sum %d != bucket total %d", sum, total)
	}
}

func TestGetSongPlayDaysDeduplicates(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	start := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)

	// Three plays of the same song on the same day collapse to one pair.
	day := time.Date(2024, time.March, 7, 0, 0, 0, 0, time.UTC)
	insertEvent(t, db, 1, "s1", "Song A", "Artist X", day.Add(8*time.Hour), 100000)
	insertEvent(t, db, 1, "s1", "Song A", "Artist X", day.Add(12*time.Hour), 100000)
	insertEvent(t, db, 1, "s1", "Song A", "Artist X", day.Add(20*time.Hour), 100000)
	insertEvent(t, db, 1, "s1", "Song A", "Artist X", day.Add(32*time.Hour), 100000)

	pairs, err := db.GetSongPlayDays(ctx, 1, start, end)
	checkNoError(t, err)

	if len(pairs) != 2 {
		t.Fatalf("Expected 2 distinct (song, day) pairs, got %d", len(pairs))
	}
	if !pairs[0].Day.Equal(day) {
		t.Errorf("Expected first pair on %v, got %v", day, pairs[0].Day)
	}
	if !pairs[1].Day.Equal(day.AddDate(0, 0, 1)) {
		t.Errorf("Expected second pair on the next day, got %v", pairs[1].Day)
	}
}

func TestGetMonthsWithData(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	insertEvent(t, db, 1, "s1", "Song A", "Artist X",
		time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC), 100000)
	insertEvent(t, db, 1, "s1", "Song A", "Artist X",
		time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC), 100000)
	insertEvent(t, db, 1, "s2", "Song B", "Artist Y",
		time.Date(2024, time.March, 20, 0, 0, 0, 0, time.UTC), 100000)
	insertEvent(t, db, 2, "s1", "Song A", "Artist X",
		time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), 100000)

	months, err := db.GetMonthsWithData(ctx, 1)
	checkNoError(t, err)

	if len(months) != 2 {
		t.Fatalf("Expected 2 months for user 1, got %d", len(months))
	}
	if months[0].Year != 2024 || months[0].Month != time.March || months[0].EventCount != 2 {
		t.Errorf("Unexpected newest month: %+v", months[0])
	}
	if months[1].Month != time.January {
		t.Errorf("Expected January second, got %v", months[1].Month)
	}
}

func TestDeleteEventsBefore(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	cutoff := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	insertEvent(t, db, 1, "s1", "Old Song", "Artist X", cutoff.AddDate(0, -2, 0), 100000)
	insertEvent(t, db, 1, "s2", "Older Song", "Artist X", cutoff.AddDate(-1, 0, 0), 100000)
	insertEvent(t, db, 1, "s3", "New Song", "Artist Y", cutoff.Add(time.Hour), 100000)

	removed, err := db.DeleteEventsBefore(ctx, cutoff)
	checkNoError(t, err)
	if removed != 2 {
		t.Errorf("Expected 2 events removed, got %d", removed)
	}

	count, err := db.CountEvents(ctx, 1, time.Time{}, cutoff.AddDate(1, 0, 0))
	checkNoError(t, err)
	if count != 1 {
		t.Errorf("Expected 1 surviving event, got %d", count)
	}
}

func TestConcurrentInserts(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	start := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	const goroutines = 20

	var wg sync.WaitGroup
	errCh := make(chan error, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			errCh <- db.InsertPlaybackEvent(ctx, &models.PlaybackEvent{
				UserID:              1,
				SongID:              "s1",
				SongTitle:           "Song A",
				ArtistName:          "Artist X",
				StartedAt:           start.Add(time.Duration(n) * time.Minute),
				ListeningDurationMS: 60000,
			})
		}(i)
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		checkNoError(t, err)
	}

	count, err := db.CountEvents(ctx, 1, start, start.AddDate(0, 1, 0))
	checkNoError(t, err)
	if count != goroutines {
		t.Errorf("Expected %d events after concurrent inserts, got %d", goroutines, count)
	}
}

func TestPing(t *testing.T) {
	db := setupTestDB(t)
	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}
