package models

import "time"

// Competition is the CRUD-side owner of brackets. Team competitions have one bracket overall.
type Competition struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	IsTeam    bool      `json:"is_team" db:"is_team"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

func (c *Competition) ParticipantKind() ParticipantKind {
	if c.IsTeam {
		return ParticipantTeam
	}
	return ParticipantSolo
}

// Category is a weight category of an individual competition.
type Category struct {
	ID            int    `json:"id" db:"id"`
	CompetitionID int    `json:"competition_id" db:"competition_id"`
	Name          string `json:"name" db:"name"`
}
