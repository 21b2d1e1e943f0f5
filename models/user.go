package models

type UserRole string

const (
	RoleAdmin      UserRole = "admin"
	RoleOrganizer  UserRole = "organizer"
	RoleChiefJudge UserRole = "chief_judge"
	RoleJudge      UserRole = "judge"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleOrganizer, RoleChiefJudge, RoleJudge:
		return true
	}
	return false
}

// Privileged roles finalize results directly; the rest submit provisional results.
func (r UserRole) Privileged() bool {
	switch r {
	case RoleAdmin, RoleOrganizer, RoleChiefJudge:
		return true
	}
	return false
}

// Submitter is the identity attached to a result action by the authorization layer.
type Submitter struct {
	UserID int      `json:"user_id"`
	Role   UserRole `json:"role"`
}
