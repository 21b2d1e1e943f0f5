package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/competition-system/brackets"
	"github.com/Dosada05/competition-system/events"
	"github.com/Dosada05/competition-system/models"
	"github.com/Dosada05/competition-system/utils"
)

const defaultRegenerateConcurrency = 4

type GenerateInput struct {
	CompetitionID int                `json:"competition_id"`
	CategoryID    *int               `json:"category_id,omitempty"`
	Type          models.BracketType `json:"type"`
}

// CreateBracketInput is an already confirmed participant list for one bracket scope.
type CreateBracketInput struct {
	CompetitionID   int
	CategoryID      *int
	Type            models.BracketType
	ParticipantKind models.ParticipantKind
	ParticipantIDs  []int
}

type CategoryError struct {
	CategoryID *int   `json:"category_id,omitempty"`
	Message    string `json:"error"`
	Err        error  `json:"-"`
}

func (e CategoryError) Error() string { return e.Message }

func (e CategoryError) Unwrap() error { return e.Err }

// BatchResult is the outcome of a competition-wide regeneration. One category failing does
// not stop the others.
type BatchResult struct {
	Created []*models.Bracket `json:"created"`
	Errors  []CategoryError   `json:"errors"`
}

func (r *BatchResult) Err() error {
	if r == nil || len(r.Errors) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Errors))
	for _, e := range r.Errors {
		errs = append(errs, e)
	}
	return fmt.Errorf("%w: %d of %d categories: %w",
		ErrPartialBatchFailure, len(r.Errors), len(r.Errors)+len(r.Created), errors.Join(errs...))
}

type BracketService interface {
	CreateBracket(ctx context.Context, in CreateBracketInput) (*models.Bracket, error)
	GenerateForCategory(ctx context.Context, in GenerateInput) (*models.Bracket, error)
	RegenerateCompetition(ctx context.Context, competitionID int, bracketType models.BracketType) (*BatchResult, error)
	GetBracket(ctx context.Context, bracketID int) (*models.Bracket, error)
	GetBracketByScope(ctx context.Context, competitionID int, categoryID *int) (*models.Bracket, error)
	ListBrackets(ctx context.Context, competitionID int) ([]*models.Bracket, error)
}

type BracketOption func(*bracketService)

// WithGeneratorOptions passes options such as a seeded shuffle source to every generator.
func WithGeneratorOptions(opts ...brackets.Option) BracketOption {
	return func(s *bracketService) {
		s.genOpts = append(s.genOpts, opts...)
	}
}

func WithConcurrency(n int) BracketOption {
	return func(s *bracketService) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

type bracketService struct {
	Dependencies
	genOpts     []brackets.Option
	concurrency int
}

func NewBracketService(deps Dependencies, opts ...BracketOption) BracketService {
	s := &bracketService{
		Dependencies: deps,
		concurrency:  defaultRegenerateConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *bracketService) CreateBracket(ctx context.Context, in CreateBracketInput) (*models.Bracket, error) {
	const op = "CreateBracket"
	ids := utils.UniquePositive(in.ParticipantIDs)
	if len(ids) == 0 {
		return nil, newError(op, ErrValidationFailed, "no valid participants", EngineError{CategoryID: in.CategoryID})
	}
	if in.ParticipantKind == "" {
		in.ParticipantKind = models.ParticipantSolo
	}

	gen, err := brackets.NewGenerator(in.Type, s.genOpts...)
	if err != nil {
		return nil, classify(op, err, EngineError{CategoryID: in.CategoryID})
	}
	nodes, err := gen.GenerateBracket(ids)
	if err != nil {
		return nil, classify(op, err, EngineError{CategoryID: in.CategoryID})
	}

	start := time.Now()
	unlock := s.Locker.Lock(in.CompetitionID, in.CategoryID)
	defer unlock()

	var bracket *models.Bracket
	err = withTx(ctx, s.DB, s.Logger, func(tx *sqlx.Tx) error {
		var txErr error
		bracket, txErr = s.materialize(ctx, tx, in, nodes)
		return txErr
	})
	if err != nil {
		s.Logger.ErrorContext(ctx, "bracket generation failed",
			slog.Int("competition_id", in.CompetitionID),
			slog.Any("category_id", in.CategoryID),
			slog.Any("error", err))
		return nil, classify(op, err, EngineError{CategoryID: in.CategoryID})
	}

	bracket.Nodes = brackets.BuildTree(bracket.Matches)
	s.Metrics.BracketGenerated(string(bracket.Type), len(bracket.Matches), time.Since(start))
	s.Logger.InfoContext(ctx, "bracket generated",
		slog.Int("bracket_id", bracket.ID),
		slog.Int("competition_id", bracket.CompetitionID),
		slog.String("type", string(bracket.Type)),
		slog.Int("participants", len(ids)),
		slog.Int("matches", len(bracket.Matches)))

	summary := *bracket
	summary.Matches, summary.Nodes = nil, nil
	evs := []events.Event{events.New(events.TopicBracketCreated, bracket.CompetitionID, summary)}
	for _, m := range bracket.Matches {
		evs = append(evs, events.New(events.TopicMatchCreated, bracket.CompetitionID, m))
	}
	s.publish(ctx, evs...)

	return bracket, nil
}

// materialize replaces the scope's bracket with one built from nodes and resolves every bye.
func (s *bracketService) materialize(ctx context.Context, tx *sqlx.Tx, in CreateBracketInput, nodes []*models.BracketNode) (*models.Bracket, error) {
	if _, err := s.Brackets.DeleteByScope(ctx, tx, in.CompetitionID, in.CategoryID); err != nil {
		return nil, err
	}

	bracket := &models.Bracket{
		CompetitionID:   in.CompetitionID,
		CategoryID:      in.CategoryID,
		Type:            in.Type,
		ParticipantKind: in.ParticipantKind,
	}
	if err := s.Brackets.Create(ctx, tx, bracket); err != nil {
		return nil, err
	}

	var byes []*models.Match
	for _, node := range nodes {
		if node.Round == 1 && node.FilledSlots() == 0 {
			continue
		}
		match := &models.Match{
			BracketID:      bracket.ID,
			Round:          node.Round,
			Position:       node.Position,
			Participant1ID: node.Participant1ID,
			Participant2ID: node.Participant2ID,
			Status:         models.MatchStatusScheduled,
		}
		if err := s.Matches.Create(ctx, tx, match); err != nil {
			return nil, fmt.Errorf("failed to create match at round %d position %d: %w", node.Round, node.Position, err)
		}
		if match.Round == 1 && match.FilledSlots() == 1 {
			byes = append(byes, match)
		}
	}

	adv := s.advancer()
	for _, bye := range byes {
		winnerID, _ := bye.SoleParticipant()
		if err := adv.completeBye(ctx, tx, bye, winnerID); err != nil {
			return nil, err
		}
		if _, err := adv.propagate(ctx, tx, bracket, bye.Round, bye.Position, winnerID); err != nil {
			return nil, fmt.Errorf("failed to advance bye of match %d: %w", bye.ID, err)
		}
	}

	matches, err := s.Matches.ListByBracket(ctx, tx, bracket.ID)
	if err != nil {
		return nil, err
	}
	bracket.Matches = matches
	return bracket, nil
}

func (s *bracketService) GenerateForCategory(ctx context.Context, in GenerateInput) (*models.Bracket, error) {
	const op = "GenerateForCategory"
	ids := EngineError{CategoryID: in.CategoryID}

	competition, err := s.Competitions.GetByID(ctx, nil, in.CompetitionID)
	if err != nil {
		return nil, classify(op, err, ids)
	}

	var participants []int
	if competition.IsTeam {
		if in.CategoryID != nil {
			return nil, newError(op, ErrValidationFailed, "team competitions have a single bracket without category", ids)
		}
		participants, err = s.Registrations.ListConfirmedTeams(ctx, nil, competition.ID)
	} else {
		if in.CategoryID == nil {
			return nil, newError(op, ErrValidationFailed, "category is required for individual competitions", ids)
		}
		category, catErr := s.Competitions.GetCategory(ctx, nil, *in.CategoryID)
		if catErr != nil {
			return nil, classify(op, catErr, ids)
		}
		if category.CompetitionID != competition.ID {
			return nil, newError(op, ErrNotFound, "category belongs to another competition", ids)
		}
		participants, err = s.Registrations.ListConfirmedAthletes(ctx, nil, competition.ID, category.ID)
	}
	if err != nil {
		return nil, classify(op, err, ids)
	}

	return s.CreateBracket(ctx, CreateBracketInput{
		CompetitionID:   competition.ID,
		CategoryID:      in.CategoryID,
		Type:            in.Type,
		ParticipantKind: competition.ParticipantKind(),
		ParticipantIDs:  participants,
	})
}

// RegenerateCompetition rebuilds every bracket of a competition, one transaction per category.
// The returned error wraps ErrPartialBatchFailure when some categories failed; the result still
// lists the brackets that were created.
func (s *bracketService) RegenerateCompetition(ctx context.Context, competitionID int, bracketType models.BracketType) (*BatchResult, error) {
	const op = "RegenerateCompetition"

	competition, err := s.Competitions.GetByID(ctx, nil, competitionID)
	if err != nil {
		return nil, classify(op, err, EngineError{})
	}

	var scopes []*int
	if competition.IsTeam {
		scopes = []*int{nil}
	} else {
		categories, err := s.Competitions.ListCategories(ctx, nil, competitionID)
		if err != nil {
			return nil, classify(op, err, EngineError{})
		}
		for _, c := range categories {
			scopes = append(scopes, utils.Ptr(c.ID))
		}
	}

	created := make([]*models.Bracket, len(scopes))
	failures := make([]error, len(scopes))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, categoryID := range scopes {
		g.Go(func() error {
			b, err := s.GenerateForCategory(ctx, GenerateInput{
				CompetitionID: competitionID,
				CategoryID:    categoryID,
				Type:          bracketType,
			})
			if err != nil {
				s.Metrics.CategoryFailed()
				s.Logger.WarnContext(ctx, "category regeneration failed",
					slog.Int("competition_id", competitionID),
					slog.Any("category_id", categoryID),
					slog.Any("error", err))
				failures[i] = err
				return nil
			}
			created[i] = b
			return nil
		})
	}
	_ = g.Wait()

	result := &BatchResult{Created: make([]*models.Bracket, 0, len(scopes)), Errors: make([]CategoryError, 0)}
	for i := range scopes {
		if failures[i] != nil {
			result.Errors = append(result.Errors, CategoryError{CategoryID: scopes[i], Message: failures[i].Error(), Err: failures[i]})
			continue
		}
		result.Created = append(result.Created, created[i])
	}
	return result, result.Err()
}

// GetBracket loads a bracket with its matches and the tree derived from them.
func (s *bracketService) GetBracket(ctx context.Context, bracketID int) (*models.Bracket, error) {
	const op = "GetBracket"

	var (
		bracket *models.Bracket
		matches []models.Match
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		bracket, err = s.Brackets.GetByID(gCtx, nil, bracketID)
		return err
	})
	g.Go(func() error {
		var err error
		matches, err = s.Matches.ListByBracket(gCtx, nil, bracketID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, classify(op, err, EngineError{BracketID: bracketID})
	}

	bracket.Matches = matches
	bracket.Nodes = brackets.BuildTree(matches)
	if err := brackets.VerifyTree(bracket.Nodes); err != nil {
		s.Logger.WarnContext(ctx, "bracket tree inconsistent", slog.Int("bracket_id", bracketID), slog.Any("error", err))
	}
	return bracket, nil
}

func (s *bracketService) GetBracketByScope(ctx context.Context, competitionID int, categoryID *int) (*models.Bracket, error) {
	b, err := s.Brackets.GetByScope(ctx, nil, competitionID, categoryID)
	if err != nil {
		return nil, classify("GetBracketByScope", err, EngineError{CategoryID: categoryID})
	}
	return s.GetBracket(ctx, b.ID)
}

func (s *bracketService) ListBrackets(ctx context.Context, competitionID int) ([]*models.Bracket, error) {
	if _, err := s.Competitions.GetByID(ctx, nil, competitionID); err != nil {
		return nil, classify("ListBrackets", err, EngineError{})
	}
	list, err := s.Brackets.ListByCompetition(ctx, nil, competitionID)
	if err != nil {
		return nil, fmt.Errorf("ListBrackets: %w", err)
	}
	return list, nil
}
