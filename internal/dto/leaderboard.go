package dto

import (
	"quizapp/internal/domain"
)

// LeaderboardEntry is one ranked row of a leaderboard.
type LeaderboardEntry struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Score    int    `json:"score"`
	Rank     int    `json:"rank"`
}

// LeaderboardFromRows ranks the rows in the order given. Rows arrive sorted
// by score from the repository; ties share neither rank nor order guarantees
// beyond that sort.
func LeaderboardFromRows(rows []domain.LeaderboardRow) []LeaderboardEntry {
	entries := make([]LeaderboardEntry, 0, len(rows))
	for i, r := range rows {
		entries = append(entries, LeaderboardEntry{
			UserID:   r.UserID,
			Username: r.Username,
			Score:    r.Score,
			Rank:     i + 1,
		})
	}
	return entries
}
