package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Dosada05/competition-system/events"
	"github.com/Dosada05/competition-system/models"
)

type SubmitResultInput struct {
	BracketID int                `json:"-"`
	MatchID   int                `json:"-"`
	WinnerID  int                `json:"winner_id"`
	Score     *models.MatchScore `json:"score,omitempty"`
	Submitter models.Submitter   `json:"-"`
}

type ConfirmInput struct {
	BracketID int              `json:"-"`
	MatchID   int              `json:"-"`
	Notes     string           `json:"notes,omitempty"`
	Submitter models.Submitter `json:"-"`
}

type ApproveInput struct {
	BracketID int
	MatchID   int
	Approver  models.Submitter
}

type MatchService interface {
	SubmitResult(ctx context.Context, in SubmitResultInput) (*models.Match, error)
	ConfirmResult(ctx context.Context, in ConfirmInput) (*models.Match, error)
	ApproveResult(ctx context.Context, in ApproveInput) (*models.Match, error)

	ScheduleMatch(ctx context.Context, bracketID, matchID int, at time.Time) (*models.Match, error)
	StartMatch(ctx context.Context, bracketID, matchID int) (*models.Match, error)
	CancelMatch(ctx context.Context, bracketID, matchID int) (*models.Match, error)

	GetMatch(ctx context.Context, bracketID, matchID int) (*models.Match, error)
	ListMatches(ctx context.Context, bracketID int) ([]models.Match, error)
	ListMatchResults(ctx context.Context, bracketID, matchID int) ([]models.Result, error)
	ListResults(ctx context.Context, bracketID int) ([]models.Result, error)
	ListStandings(ctx context.Context, bracketID int) ([]models.Standing, error)
}

type matchService struct {
	Dependencies
}

func NewMatchService(deps Dependencies) MatchService {
	return &matchService{Dependencies: deps}
}

// withMatch loads the bracket, takes the scope lock and runs fn on the match inside a
// transaction holding the bracket row lock.
func (s *matchService) withMatch(ctx context.Context, op string, bracketID, matchID int,
	fn func(tx *sqlx.Tx, bracket *models.Bracket, match *models.Match) error) (*models.Bracket, *models.Match, error) {
	ids := EngineError{BracketID: bracketID, MatchID: matchID}

	bracket, err := s.Brackets.GetByID(ctx, nil, bracketID)
	if err != nil {
		return nil, nil, classify(op, err, ids)
	}

	unlock := s.Locker.Lock(bracket.CompetitionID, bracket.CategoryID)
	defer unlock()

	var match *models.Match
	err = withTx(ctx, s.DB, s.Logger, func(tx *sqlx.Tx) error {
		if err := s.Brackets.LockForUpdate(ctx, tx, bracket.ID); err != nil {
			return err
		}
		m, err := s.Matches.GetByID(ctx, tx, matchID)
		if err != nil {
			return err
		}
		if m.BracketID != bracket.ID {
			return newError(op, ErrNotFound, "match belongs to another bracket", ids)
		}
		if err := fn(tx, bracket, m); err != nil {
			return err
		}
		match = m
		return nil
	})
	if err != nil {
		return nil, nil, classify(op, err, ids)
	}
	return bracket, match, nil
}

func (s *matchService) SubmitResult(ctx context.Context, in SubmitResultInput) (*models.Match, error) {
	const op = "SubmitResult"
	ids := EngineError{BracketID: in.BracketID, MatchID: in.MatchID}
	if !in.Submitter.Role.Valid() {
		return nil, newError(op, ErrValidationFailed, fmt.Sprintf("unknown role %q", in.Submitter.Role), ids)
	}
	if in.WinnerID <= 0 {
		return nil, newError(op, ErrValidationFailed, "winner is required", ids)
	}

	direct := in.Submitter.Role.Privileged()
	var advanced []models.Match
	bracket, match, err := s.withMatch(ctx, op, in.BracketID, in.MatchID, func(tx *sqlx.Tx, bracket *models.Bracket, m *models.Match) error {
		if m.Status == models.MatchStatusCompleted || m.Status == models.MatchStatusCancelled {
			return newError(op, ErrInvalidState, fmt.Sprintf("match is %s", m.Status), ids)
		}
		if m.FilledSlots() < 2 {
			return newError(op, ErrInvalidState, "match is waiting for participants", ids)
		}
		if !m.HasParticipant(in.WinnerID) {
			return newError(op, ErrValidationFailed, fmt.Sprintf("participant %d is not in the match", in.WinnerID), ids)
		}

		submitter := in.Submitter.UserID
		m.Metadata.SubmittedBy = &submitter
		if !direct {
			m.Status = models.MatchStatusInProgress
			m.Metadata.IsPending = true
			m.Metadata.IsConfirmed = false
			m.Metadata.PendingResult = &models.PendingResult{
				WinnerID:    in.WinnerID,
				Score:       in.Score,
				SubmittedBy: submitter,
				SubmittedAt: time.Now().UTC(),
			}
			return s.Matches.Update(ctx, tx, m)
		}

		winnerID := in.WinnerID
		m.WinnerID = &winnerID
		m.Score = in.Score
		m.Status = models.MatchStatusCompleted
		m.Metadata.IsPending = false
		m.Metadata.IsConfirmed = true
		m.Metadata.PendingResult = nil
		if err := s.Matches.Update(ctx, tx, m); err != nil {
			return err
		}
		var err error
		advanced, err = s.advancer().propagate(ctx, tx, bracket, m.Round, m.Position, winnerID)
		return err
	})
	if err != nil {
		return nil, err
	}

	mode := "provisional"
	if direct {
		mode = "direct"
	}
	s.Metrics.Result(mode)
	s.Logger.InfoContext(ctx, "match result submitted",
		slog.Int("bracket_id", bracket.ID),
		slog.Int("match_id", match.ID),
		slog.Int("winner_id", in.WinnerID),
		slog.String("mode", mode),
		slog.Int("submitted_by", in.Submitter.UserID))

	s.publishMatches(ctx, bracket, events.TopicMatchUpdate, *match, advanced...)
	if direct {
		s.recordPlacement(ctx, bracket, match)
	}
	return match, nil
}

func (s *matchService) ConfirmResult(ctx context.Context, in ConfirmInput) (*models.Match, error) {
	const op = "ConfirmResult"
	ids := EngineError{BracketID: in.BracketID, MatchID: in.MatchID}
	if !in.Submitter.Role.Valid() {
		return nil, newError(op, ErrValidationFailed, fmt.Sprintf("unknown role %q", in.Submitter.Role), ids)
	}

	bracket, match, err := s.withMatch(ctx, op, in.BracketID, in.MatchID, func(tx *sqlx.Tx, _ *models.Bracket, m *models.Match) error {
		if m.Status != models.MatchStatusCompleted {
			return newError(op, ErrInvalidState, "only completed matches can be confirmed", ids)
		}
		if m.Metadata.HasConfirmationFrom(in.Submitter.UserID) {
			return newError(op, ErrInvalidState, fmt.Sprintf("user %d already confirmed this match", in.Submitter.UserID), ids)
		}
		m.Metadata.Confirmations = append(m.Metadata.Confirmations, models.Confirmation{
			SubmitterID: in.Submitter.UserID,
			Role:        in.Submitter.Role,
			ConfirmedAt: time.Now().UTC(),
			Notes:       in.Notes,
		})
		return s.Matches.Update(ctx, tx, m)
	})
	if err != nil {
		return nil, err
	}

	s.Metrics.Confirmed()
	s.Logger.InfoContext(ctx, "match result confirmed",
		slog.Int("match_id", match.ID),
		slog.Int("confirmed_by", in.Submitter.UserID),
		slog.Int("confirmations", len(match.Metadata.Confirmations)))
	s.publishMatches(ctx, bracket, events.TopicMatchConfirmed, *match)
	return match, nil
}

// ApproveResult turns the pending result of a match into its final result.
func (s *matchService) ApproveResult(ctx context.Context, in ApproveInput) (*models.Match, error) {
	const op = "ApproveResult"
	ids := EngineError{BracketID: in.BracketID, MatchID: in.MatchID}

	var advanced []models.Match
	bracket, match, err := s.withMatch(ctx, op, in.BracketID, in.MatchID, func(tx *sqlx.Tx, bracket *models.Bracket, m *models.Match) error {
		pending := m.Metadata.PendingResult
		if pending == nil || !m.Metadata.IsPending {
			return newError(op, ErrInvalidState, "match has no pending result", ids)
		}
		if m.Status == models.MatchStatusCompleted || m.Status == models.MatchStatusCancelled {
			return newError(op, ErrInvalidState, fmt.Sprintf("match is %s", m.Status), ids)
		}
		if !m.HasParticipant(pending.WinnerID) {
			return newError(op, ErrInvalidState, "pending winner is no longer in the match", ids)
		}

		now := time.Now().UTC()
		winnerID, approver, submitter := pending.WinnerID, in.Approver.UserID, pending.SubmittedBy
		m.WinnerID = &winnerID
		m.Score = pending.Score
		m.Status = models.MatchStatusCompleted
		m.Metadata.IsPending = false
		m.Metadata.IsConfirmed = true
		m.Metadata.PendingResult = nil
		m.Metadata.SubmittedBy = &submitter
		m.Metadata.ApprovedAt = &now
		m.Metadata.ApprovedBy = &approver
		if err := s.Matches.Update(ctx, tx, m); err != nil {
			return err
		}
		var err error
		advanced, err = s.advancer().propagate(ctx, tx, bracket, m.Round, m.Position, winnerID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Metrics.Result("approved")
	s.Logger.InfoContext(ctx, "match result approved",
		slog.Int("bracket_id", bracket.ID),
		slog.Int("match_id", match.ID),
		slog.Int("approved_by", in.Approver.UserID))

	s.publishMatches(ctx, bracket, events.TopicMatchApproved, *match)
	s.publishMatches(ctx, bracket, events.TopicMatchUpdate, *match, advanced...)
	s.recordPlacement(ctx, bracket, match)
	return match, nil
}

func (s *matchService) ScheduleMatch(ctx context.Context, bracketID, matchID int, at time.Time) (*models.Match, error) {
	const op = "ScheduleMatch"
	ids := EngineError{BracketID: bracketID, MatchID: matchID}
	if at.IsZero() {
		return nil, newError(op, ErrValidationFailed, "scheduled time is required", ids)
	}
	return s.transition(ctx, op, bracketID, matchID, func(m *models.Match) error {
		if m.Status != models.MatchStatusScheduled {
			return newError(op, ErrInvalidState, fmt.Sprintf("cannot reschedule a %s match", m.Status), ids)
		}
		t := at.UTC()
		m.ScheduledAt = &t
		return nil
	})
}

func (s *matchService) StartMatch(ctx context.Context, bracketID, matchID int) (*models.Match, error) {
	const op = "StartMatch"
	ids := EngineError{BracketID: bracketID, MatchID: matchID}
	return s.transition(ctx, op, bracketID, matchID, func(m *models.Match) error {
		if m.Status != models.MatchStatusScheduled {
			return newError(op, ErrInvalidState, fmt.Sprintf("cannot start a %s match", m.Status), ids)
		}
		if m.FilledSlots() < 2 {
			return newError(op, ErrInvalidState, "match is waiting for participants", ids)
		}
		m.Status = models.MatchStatusInProgress
		return nil
	})
}

func (s *matchService) CancelMatch(ctx context.Context, bracketID, matchID int) (*models.Match, error) {
	const op = "CancelMatch"
	ids := EngineError{BracketID: bracketID, MatchID: matchID}
	return s.transition(ctx, op, bracketID, matchID, func(m *models.Match) error {
		switch m.Status {
		case models.MatchStatusScheduled, models.MatchStatusInProgress:
		default:
			return newError(op, ErrInvalidState, fmt.Sprintf("cannot cancel a %s match", m.Status), ids)
		}
		m.Status = models.MatchStatusCancelled
		m.Metadata.IsPending = false
		m.Metadata.PendingResult = nil
		return nil
	})
}

// transition applies a status change that never touches the winner.
func (s *matchService) transition(ctx context.Context, op string, bracketID, matchID int, apply func(m *models.Match) error) (*models.Match, error) {
	bracket, match, err := s.withMatch(ctx, op, bracketID, matchID, func(tx *sqlx.Tx, _ *models.Bracket, m *models.Match) error {
		if err := apply(m); err != nil {
			return err
		}
		return s.Matches.Update(ctx, tx, m)
	})
	if err != nil {
		return nil, err
	}
	s.Logger.InfoContext(ctx, "match updated",
		slog.String("op", op),
		slog.Int("match_id", match.ID),
		slog.String("status", string(match.Status)))
	s.publishMatches(ctx, bracket, events.TopicMatchUpdate, *match)
	return match, nil
}

func (s *matchService) publishMatches(ctx context.Context, bracket *models.Bracket, topic events.Topic, first models.Match, rest ...models.Match) {
	evs := make([]events.Event, 0, 1+len(rest))
	evs = append(evs, events.New(topic, bracket.CompetitionID, first))
	for _, m := range rest {
		evs = append(evs, events.New(topic, bracket.CompetitionID, m))
	}
	s.publish(ctx, evs...)
}

func (s *matchService) GetMatch(ctx context.Context, bracketID, matchID int) (*models.Match, error) {
	const op = "GetMatch"
	ids := EngineError{BracketID: bracketID, MatchID: matchID}
	m, err := s.Matches.GetByID(ctx, nil, matchID)
	if err != nil {
		return nil, classify(op, err, ids)
	}
	if m.BracketID != bracketID {
		return nil, newError(op, ErrNotFound, "match belongs to another bracket", ids)
	}
	return m, nil
}

func (s *matchService) ListMatches(ctx context.Context, bracketID int) ([]models.Match, error) {
	if _, err := s.Brackets.GetByID(ctx, nil, bracketID); err != nil {
		return nil, classify("ListMatches", err, EngineError{BracketID: bracketID})
	}
	matches, err := s.Matches.ListByBracket(ctx, nil, bracketID)
	if err != nil {
		return nil, fmt.Errorf("ListMatches: %w", err)
	}
	return matches, nil
}

func (s *matchService) ListMatchResults(ctx context.Context, bracketID, matchID int) ([]models.Result, error) {
	if _, err := s.GetMatch(ctx, bracketID, matchID); err != nil {
		return nil, err
	}
	results, err := s.Results.ListByMatch(ctx, nil, matchID)
	if err != nil {
		return nil, fmt.Errorf("ListMatchResults: %w", err)
	}
	return results, nil
}

func (s *matchService) ListResults(ctx context.Context, bracketID int) ([]models.Result, error) {
	if _, err := s.Brackets.GetByID(ctx, nil, bracketID); err != nil {
		return nil, classify("ListResults", err, EngineError{BracketID: bracketID})
	}
	results, err := s.Results.ListByBracket(ctx, nil, bracketID)
	if err != nil {
		return nil, fmt.Errorf("ListResults: %w", err)
	}
	return results, nil
}

// ListStandings returns the placed participants of a bracket, best placement first.
func (s *matchService) ListStandings(ctx context.Context, bracketID int) ([]models.Standing, error) {
	if _, err := s.Brackets.GetByID(ctx, nil, bracketID); err != nil {
		return nil, classify("ListStandings", err, EngineError{BracketID: bracketID})
	}
	standings, err := s.Results.ListStandings(ctx, nil, bracketID)
	if err != nil {
		return nil, fmt.Errorf("ListStandings: %w", err)
	}
	return standings, nil
}
