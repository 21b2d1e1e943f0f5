package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type MatchStatus string

const (
	MatchStatusScheduled  MatchStatus = "SCHEDULED"
	MatchStatusInProgress MatchStatus = "IN_PROGRESS"
	MatchStatusCompleted  MatchStatus = "COMPLETED"
	MatchStatusCancelled  MatchStatus = "CANCELLED"
)

// Match is the authoritative unit of competition. Slots hold athlete IDs in solo brackets
// and team IDs in team brackets.
type Match struct {
	ID             int           `json:"id" db:"id"`
	BracketID      int           `json:"bracket_id" db:"bracket_id"`
	Round          int           `json:"round" db:"round"`
	Position       int           `json:"position" db:"position"`
	Participant1ID *int          `json:"participant1_id" db:"participant1_id"`
	Participant2ID *int          `json:"participant2_id" db:"participant2_id"`
	WinnerID       *int          `json:"winner_id,omitempty" db:"winner_id"`
	Status         MatchStatus   `json:"status" db:"status"`
	ScheduledAt    *time.Time    `json:"scheduled_at,omitempty" db:"scheduled_at"`
	Score          *MatchScore   `json:"score,omitempty" db:"score"`
	Metadata       MatchMetadata `json:"metadata" db:"metadata"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at" db:"updated_at"`
}

func (m *Match) FilledSlots() int {
	c := 0
	if m.Participant1ID != nil {
		c++
	}
	if m.Participant2ID != nil {
		c++
	}
	return c
}

// SoleParticipant returns the only occupied slot of a one-sided match.
func (m *Match) SoleParticipant() (int, bool) {
	switch {
	case m.Participant1ID != nil && m.Participant2ID == nil:
		return *m.Participant1ID, true
	case m.Participant2ID != nil && m.Participant1ID == nil:
		return *m.Participant2ID, true
	}
	return 0, false
}

func (m *Match) HasParticipant(id int) bool {
	return (m.Participant1ID != nil && *m.Participant1ID == id) ||
		(m.Participant2ID != nil && *m.Participant2ID == id)
}

// Opponent returns the other participant of a two-sided match.
func (m *Match) Opponent(id int) (int, bool) {
	if m.Participant1ID == nil || m.Participant2ID == nil {
		return 0, false
	}
	switch id {
	case *m.Participant1ID:
		return *m.Participant2ID, true
	case *m.Participant2ID:
		return *m.Participant1ID, true
	}
	return 0, false
}

func (m *Match) IsLowerBracket() bool {
	return m.Round > LowerBracketRoundOffset
}

// MatchScore is the free-form score payload of a match.
type MatchScore struct {
	Participant1 int             `json:"participant1"`
	Participant2 int             `json:"participant2"`
	Details      json.RawMessage `json:"details,omitempty"`
}

// PointsFor returns the points of the given slot owner and of their opponent.
func (s *MatchScore) PointsFor(m *Match, participantID int) (own, opponent int) {
	if s == nil {
		return 0, 0
	}
	if m.Participant2ID != nil && *m.Participant2ID == participantID {
		return s.Participant2, s.Participant1
	}
	return s.Participant1, s.Participant2
}

func (s MatchScore) Value() (driver.Value, error) {
	return jsonValue(s)
}

func (s *MatchScore) Scan(src any) error {
	return jsonScan(src, s)
}

// PendingResult is a provisional result waiting for approval.
type PendingResult struct {
	WinnerID    int         `json:"winner_id"`
	Score       *MatchScore `json:"score,omitempty"`
	SubmittedBy int         `json:"submitted_by"`
	SubmittedAt time.Time   `json:"submitted_at"`
}

// Confirmation is an independent judge stamp on a completed match.
type Confirmation struct {
	SubmitterID int       `json:"submitter_id"`
	Role        UserRole  `json:"role"`
	ConfirmedAt time.Time `json:"confirmed_at"`
	Notes       string    `json:"notes,omitempty"`
}

// MatchMetadata carries the result workflow state of a match.
type MatchMetadata struct {
	IsPending     bool           `json:"is_pending"`
	IsConfirmed   bool           `json:"is_confirmed"`
	PendingResult *PendingResult `json:"pending_result,omitempty"`
	Confirmations []Confirmation `json:"confirmations,omitempty"`
	SubmittedBy   *int           `json:"submitted_by,omitempty"`
	ApprovedAt    *time.Time     `json:"approved_at,omitempty"`
	ApprovedBy    *int           `json:"approved_by,omitempty"`
}

func (md *MatchMetadata) HasConfirmationFrom(submitterID int) bool {
	for _, c := range md.Confirmations {
		if c.SubmitterID == submitterID {
			return true
		}
	}
	return false
}

func (md MatchMetadata) Value() (driver.Value, error) {
	return jsonValue(md)
}

func (md *MatchMetadata) Scan(src any) error {
	return jsonScan(src, md)
}

// jsonValue returns a string so lib/pq sends it as text into jsonb columns.
func jsonValue(v any) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func jsonScan(src any, dst any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for json column", src)
	}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return errors.Join(errors.New("failed to decode json column"), err)
	}
	return nil
}
