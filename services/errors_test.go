package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Dosada05/competition-system/brackets"
	"github.com/Dosada05/competition-system/repositories"
	"github.com/Dosada05/competition-system/utils"
)

func TestClassify(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		kind error
	}{
		{name: "missing match", err: repositories.ErrMatchNotFound, kind: ErrNotFound},
		{name: "missing category", err: fmt.Errorf("lookup: %w", repositories.ErrCategoryNotFound), kind: ErrNotFound},
		{name: "unsupported type", err: brackets.ErrUnsupportedBracketType, kind: ErrInvalidState},
		{name: "too few participants", err: brackets.ErrNotEnoughParticipants, kind: ErrValidationFailed},
		{name: "concurrent regeneration", err: fmt.Errorf("tx: %w", repositories.ErrBracketScopeConflict), kind: ErrInvalidState},
		{name: "duplicate match position", err: fmt.Errorf("failed to create match at round 1 position 1: %w", repositories.ErrMatchPositionConflict), kind: ErrInvalidState},
		{name: "empty opening match", err: repositories.ErrMatchEmptyOpening, kind: ErrValidationFailed},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := classify("Op", tc.err, EngineError{BracketID: 3})
			assert.ErrorIs(t, err, tc.kind)
			assert.ErrorIs(t, err, tc.err)
			assert.Contains(t, err.Error(), "bracket 3")
		})
	}

	plain := errors.New("connection reset")
	err := classify("Op", plain, EngineError{})
	assert.ErrorIs(t, err, plain)
	assert.NotErrorIs(t, err, ErrNotFound)

	assert.NoError(t, classify("Op", nil, EngineError{}))
}

func TestEngineError_Message(t *testing.T) {
	err := newError("SubmitResult", ErrInvalidState, "match is COMPLETED", EngineError{BracketID: 4, MatchID: 17, CategoryID: utils.Ptr(2)})
	assert.Equal(t, "SubmitResult: operation not allowed in the current state: match is COMPLETED (bracket 4, match 17, category 2)", err.Error())
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestBatchResult_Err(t *testing.T) {
	assert.NoError(t, (&BatchResult{}).Err())

	cause := newError("GenerateForCategory", ErrValidationFailed, "no valid participants", EngineError{})
	r := &BatchResult{Errors: []CategoryError{{CategoryID: utils.Ptr(8), Message: cause.Error(), Err: cause}}}
	err := r.Err()
	assert.ErrorIs(t, err, ErrPartialBatchFailure)
	assert.ErrorIs(t, err, ErrValidationFailed)
}
