package models

import "time"

type RegistrationStatus string

const (
	RegistrationPending   RegistrationStatus = "pending"
	RegistrationConfirmed RegistrationStatus = "confirmed"
	RegistrationRejected  RegistrationStatus = "rejected"
)

// Registration is an athlete or team entry into a competition, owned by the CRUD layer.
type Registration struct {
	ID            int                `json:"id" db:"id"`
	CompetitionID int                `json:"competition_id" db:"competition_id"`
	CategoryID    *int               `json:"category_id,omitempty" db:"category_id"`
	AthleteID     *int               `json:"athlete_id,omitempty" db:"athlete_id"`
	TeamID        *int               `json:"team_id,omitempty" db:"team_id"`
	Status        RegistrationStatus `json:"status" db:"status"`
	CreatedAt     time.Time          `json:"created_at" db:"created_at"`
}
