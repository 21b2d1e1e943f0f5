package models

import "time"

// Result is one participant's record of a finalized match.
type Result struct {
	ID             int       `json:"id" db:"id"`
	MatchID        int       `json:"match_id" db:"match_id"`
	ParticipantID  int       `json:"participant_id" db:"participant_id"`
	Points         int       `json:"points" db:"points"`
	OpponentPoints int       `json:"opponent_points" db:"opponent_points"`
	Placement      *int      `json:"placement,omitempty" db:"placement"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// Standing is a placement row of a bracket, as read back for display.
type Standing struct {
	ParticipantID int `json:"participant_id" db:"participant_id"`
	Placement     int `json:"placement" db:"placement"`
	MatchID       int `json:"match_id" db:"match_id"`
	Round         int `json:"round" db:"round"`
}
