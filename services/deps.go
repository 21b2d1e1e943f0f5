package services

import (
	"context"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/Dosada05/competition-system/events"
	"github.com/Dosada05/competition-system/metrics"
	"github.com/Dosada05/competition-system/repositories"
)

// Dependencies is shared by the bracket and match services. Both must use the same Locker.
type Dependencies struct {
	DB            *sqlx.DB
	Brackets      repositories.BracketRepository
	Matches       repositories.MatchRepository
	Results       repositories.ResultRepository
	Competitions  repositories.CompetitionRepository
	Registrations repositories.RegistrationRepository
	Locker        *ScopeLocker
	Events        events.Sink
	Metrics       *metrics.Engine
	Logger        *slog.Logger
}

// NewDependencies wires the sqlx repositories around db.
func NewDependencies(db *sqlx.DB, sink events.Sink, m *metrics.Engine, logger *slog.Logger) Dependencies {
	if sink == nil {
		sink = events.NopSink{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return Dependencies{
		DB:            db,
		Brackets:      repositories.NewBracketRepository(db),
		Matches:       repositories.NewMatchRepository(db),
		Results:       repositories.NewResultRepository(db),
		Competitions:  repositories.NewCompetitionRepository(db),
		Registrations: repositories.NewRegistrationRepository(db),
		Locker:        NewScopeLocker(),
		Events:        sink,
		Metrics:       m,
		Logger:        logger,
	}
}

func (d Dependencies) advancer() *advancer {
	return &advancer{matchRepo: d.Matches, metrics: d.Metrics, logger: d.Logger}
}

// publish delivers events after commit. Failures are logged and counted, never returned.
func (d Dependencies) publish(ctx context.Context, evs ...events.Event) {
	for _, e := range evs {
		if err := d.Events.Publish(ctx, e); err != nil {
			d.Metrics.PublishFailed(string(e.Topic))
			d.Logger.WarnContext(ctx, "failed to publish event",
				slog.String("topic", string(e.Topic)),
				slog.Int("competition_id", e.CompetitionID),
				slog.Any("error", err))
		}
	}
}
