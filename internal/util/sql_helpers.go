package util

import (
	"database/sql"
	"time"
)

// StringToNullString converts a string to sql.NullString, treating the
// empty string as NULL.
func StringToNullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// NullStringToString converts sql.NullString back to a plain string.
func NullStringToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// TimeToNullTime converts a *time.Time to sql.NullTime.
func TimeToNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// NullTimeToTimePtr converts sql.NullTime back to a *time.Time.
func NullTimeToTimePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}
