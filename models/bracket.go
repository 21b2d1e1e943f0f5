package models

import "time"

type BracketType string

const (
	BracketSingleElimination BracketType = "SINGLE_ELIMINATION"
	BracketDoubleElimination BracketType = "DOUBLE_ELIMINATION"
	BracketRoundRobin        BracketType = "ROUND_ROBIN"
)

func (t BracketType) Valid() bool {
	switch t {
	case BracketSingleElimination, BracketDoubleElimination, BracketRoundRobin:
		return true
	}
	return false
}

// ParticipantKind says whether the slots of a bracket reference athletes or teams.
type ParticipantKind string

const (
	ParticipantSolo ParticipantKind = "solo"
	ParticipantTeam ParticipantKind = "team"
)

// LowerBracketRoundOffset keeps lower bracket rounds apart from upper bracket rounds.
const LowerBracketRoundOffset = 100

type Bracket struct {
	ID              int             `json:"id" db:"id"`
	CompetitionID   int             `json:"competition_id" db:"competition_id"`
	CategoryID      *int            `json:"category_id,omitempty" db:"category_id"`
	Type            BracketType     `json:"type" db:"bracket_type"`
	ParticipantKind ParticipantKind `json:"participant_kind" db:"participant_kind"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`

	Matches []Match        `json:"matches,omitempty" db:"-"`
	Nodes   []*BracketNode `json:"nodes,omitempty" db:"-"`
}

func (b *Bracket) IsTeam() bool {
	return b.ParticipantKind == ParticipantTeam
}

// BracketNode is the display shape of a bracket. Nodes are derived from matches and never stored.
type BracketNode struct {
	Round          int            `json:"round"`
	Position       int            `json:"position"`
	Participant1ID *int           `json:"participant1_id"`
	Participant2ID *int           `json:"participant2_id"`
	WinnerID       *int           `json:"winner_id,omitempty"`
	MatchID        *int           `json:"match_id,omitempty"`
	Status         MatchStatus    `json:"status,omitempty"`
	Children       []*BracketNode `json:"children,omitempty"`
}

func (n *BracketNode) IsLowerBracket() bool {
	return n.Round > LowerBracketRoundOffset
}

// FilledSlots counts the participant slots that are known.
func (n *BracketNode) FilledSlots() int {
	c := 0
	if n.Participant1ID != nil {
		c++
	}
	if n.Participant2ID != nil {
		c++
	}
	return c
}
