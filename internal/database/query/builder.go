// Melographus - Music Listening Analytics
// Copyright 2026 T. Wade (tmwade)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tmwade/melographus

// Package query provides SQL WHERE-clause construction helpers for the
// database package. Every analytics query scopes by user and by a
// half-open month window; the builder keeps that parameterization in
// one place.
package query

import (
	"fmt"
	"strings"
	"time"
)

// WhereBuilder constructs SQL WHERE clauses with parameterized arguments.
//
// Example usage:
//
//	wb := query.NewWhereBuilder()
//	wb.AddUser(userID)
//	wb.AddWindow(start, end)
//	whereClause, args := wb.Build()
//	// user_id = ? AND started_at >= ? AND started_at < ?
type WhereBuilder struct {
	clauses []string
	args    []interface{}
}

// NewWhereBuilder creates a new WhereBuilder instance.
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{
		clauses: []string{},
		args:    []interface{}{},
	}
}

// AddClause adds a raw WHERE clause with its arguments. Useful for
// conditions not covered by the helper methods.
func (wb *WhereBuilder) AddClause(clause string, args ...interface{}) *WhereBuilder {
	wb.clauses = append(wb.clauses, clause)
	wb.args = append(wb.args, args...)
	return wb
}

// AddUser scopes the query to a single listener.
func (wb *WhereBuilder) AddUser(userID int64) *WhereBuilder {
	wb.clauses = append(wb.clauses, "user_id = ?")
	wb.args = append(wb.args, userID)
	return wb
}

// AddWindow adds a half-open [start, end) filter on the session start
// time. This is the month-bucket predicate: a session belongs to the
// month its start instant falls in.
func (wb *WhereBuilder) AddWindow(start, end time.Time) *WhereBuilder {
	wb.clauses = append(wb.clauses, "started_at >= ?", "started_at < ?")
	wb.args = append(wb.args, start, end)
	return wb
}

// AddBefore filters to sessions that started strictly before the cutoff.
// Used by the retention sweeper.
func (wb *WhereBuilder) AddBefore(cutoff time.Time) *WhereBuilder {
	wb.clauses = append(wb.clauses, "started_at < ?")
	wb.args = append(wb.args, cutoff)
	return wb
}

// AddArtists adds an artist filter using an IN clause.
// Empty slices are skipped.
func (wb *WhereBuilder) AddArtists(artists []string) *WhereBuilder {
	if len(artists) > 0 {
		placeholders := make([]string, len(artists))
		for i, artist := range artists {
			placeholders[i] = "?"
			wb.args = append(wb.args, artist)
		}
		wb.clauses = append(wb.clauses, fmt.Sprintf("artist_name IN (%s)", strings.Join(placeholders, ", ")))
	}
	return wb
}

// AddSongs adds a song-id filter using an IN clause.
// Empty slices are skipped.
func (wb *WhereBuilder) AddSongs(songIDs []string) *WhereBuilder {
	if len(songIDs) > 0 {
		placeholders := make([]string, len(songIDs))
		for i, id := range songIDs {
			placeholders[i] = "?"
			wb.args = append(wb.args, id)
		}
		wb.clauses = append(wb.clauses, fmt.Sprintf("song_id IN (%s)", strings.Join(placeholders, ", ")))
	}
	return wb
}

// Build constructs the final WHERE clause and returns it with arguments.
// Clauses are joined with "AND". Returns ("1=1", []) if no clauses were
// added.
func (wb *WhereBuilder) Build() (string, []interface{}) {
	if len(wb.clauses) == 0 {
		return "1=1", []interface{}{}
	}
	return strings.Join(wb.clauses, " AND "), wb.args
}

// BuildWithPrefix returns the WHERE clause with a "WHERE " prefix.
func (wb *WhereBuilder) BuildWithPrefix() (string, []interface{}) {
	whereClause, args := wb.Build()
	return "WHERE " + whereClause, args
}

// IsEmpty returns true if no clauses have been added.
func (wb *WhereBuilder) IsEmpty() bool {
	return len(wb.clauses) == 0
}
