// Melographus - Music Listening Analytics
// Copyright 2026 T. Wade (tmwade)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tmwade/melographus

package analytics

import (
	"sort"
	"time"

	"github.com/tmwade/melographus/internal/models"
)

// ComputeDayStreak finds, among all songs in a bucket, the one with the
// longest run of consecutive calendar days containing at least one play.
//
// Input is the distinct (song, day) pairs for the bucket. Within each song
// the distinct days are sorted ascending and scanned once: a day that is
// exactly the previous day plus one extends the run, anything else resets
// it to 1. A song qualifies only when its best run reaches 2 days; a song
// played on a single day, or only on non-consecutive days, never does.
//
// Ties between equal-length streaks break by artist name then song title
// ascending, so results are deterministic across runs.
//
// Returns nil when no song qualifies. That is the normal outcome for
// sparse months, not a failure.
//
// Complexity: O(E log E) in the number of distinct (song, day) pairs;
// sorting dominates, the scan itself is linear.
func ComputeDayStreak(playDays []models.SongPlayDay) *models.SongStreak {
	if len(playDays) == 0 {
		return nil
	}

	type songKey struct {
		title  string
		artist string
	}

	daysBySong := make(map[songKey][]time.Time)
	for _, p := range playDays {
		key := songKey{title: p.SongTitle, artist: p.ArtistName}
		daysBySong[key] = append(daysBySong[key], truncateToDay(p.Day))
	}

	var best *models.SongStreak
	for key, days := range daysBySong {
		run := longestRun(days)
		if run < 2 {
			continue
		}

		candidate := &models.SongStreak{
			SongTitle:  key.title,
			ArtistName: key.artist,
			StreakDays: run,
		}
		if best == nil || betterStreak(candidate, best) {
			best = candidate
		}
	}

	return best
}

// longestRun returns the length of the longest consecutive-day run in the
// given days. Duplicates are tolerated (skipped); the input need not be
// sorted.
func longestRun(days []time.Time) int {
	if len(days) == 0 {
		return 0
	}

	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	longest, current := 1, 1
	for i := 1; i < len(days); i++ {
		switch {
		case days[i].Equal(days[i-1]):
			// Duplicate day, run unchanged
		case days[i].Equal(days[i-1].AddDate(0, 0, 1)):
			current++
			if current > longest {
				longest = current
			}
		default:
			current = 1
		}
	}

	return longest
}

// betterStreak reports whether a should replace b as the winning streak.
// Longer wins; equal lengths break by artist then title ascending.
func betterStreak(a, b *models.SongStreak) bool {
	if a.StreakDays != b.StreakDays {
		return a.StreakDays > b.StreakDays
	}
	if a.ArtistName != b.ArtistName {
		return a.ArtistName < b.ArtistName
	}
	return a.SongTitle < b.SongTitle
}

// truncateToDay normalizes a timestamp to midnight UTC of its calendar day.
func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
