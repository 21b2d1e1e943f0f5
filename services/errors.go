package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/competition-system/brackets"
	"github.com/Dosada05/competition-system/repositories"
)

var (
	// Bracket, match or category does not exist, or the match belongs to another bracket.
	ErrNotFound = errors.New("requested resource not found")

	ErrInvalidState        = errors.New("operation not allowed in the current state")
	ErrValidationFailed    = errors.New("validation failed")
	ErrPartialBatchFailure = errors.New("one or more categories failed to regenerate")
)

// EngineError carries the identifiers a caller needs to report a failure. Kind is one of the
// sentinels above and is matched by errors.Is.
type EngineError struct {
	Op         string
	Kind       error
	BracketID  int
	MatchID    int
	CategoryID *int
	Reason     string
	Err        error
}

func (e *EngineError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(e.Kind.Error())
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	var ids []string
	if e.BracketID != 0 {
		ids = append(ids, fmt.Sprintf("bracket %d", e.BracketID))
	}
	if e.MatchID != 0 {
		ids = append(ids, fmt.Sprintf("match %d", e.MatchID))
	}
	if e.CategoryID != nil {
		ids = append(ids, fmt.Sprintf("category %d", *e.CategoryID))
	}
	if len(ids) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(ids, ", "))
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *EngineError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// classify maps repository and generator errors onto the engine's error kinds.
// Unknown errors are returned unchanged.
func classify(op string, err error, e EngineError) error {
	if err == nil {
		return nil
	}
	var already *EngineError
	if errors.As(err, &already) {
		return err
	}
	switch {
	case errors.Is(err, repositories.ErrBracketNotFound),
		errors.Is(err, repositories.ErrMatchNotFound),
		errors.Is(err, repositories.ErrCompetitionNotFound),
		errors.Is(err, repositories.ErrCategoryNotFound):
		e.Kind = ErrNotFound
	case errors.Is(err, brackets.ErrUnsupportedBracketType),
		errors.Is(err, repositories.ErrMatchWinnerInvalid),
		errors.Is(err, repositories.ErrBracketScopeConflict),
		errors.Is(err, repositories.ErrMatchPositionConflict):
		e.Kind = ErrInvalidState
	case errors.Is(err, brackets.ErrNotEnoughParticipants),
		errors.Is(err, repositories.ErrMatchEmptyOpening):
		e.Kind = ErrValidationFailed
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
	e.Op = op
	e.Err = err
	return &e
}

func newError(op string, kind error, reason string, e EngineError) error {
	e.Op = op
	e.Kind = kind
	e.Reason = reason
	return &e
}
