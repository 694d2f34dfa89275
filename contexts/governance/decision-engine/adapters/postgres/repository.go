package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"girthgov/contexts/governance/decision-engine/domain/entities"
	domainerrors "girthgov/contexts/governance/decision-engine/domain/errors"
	"girthgov/contexts/governance/decision-engine/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// claimContextsSQL flips a batch of contexts to processed in one statement so
// concurrent synthesizers never claim the same row.
const claimContextsSQL = `
UPDATE decision_contexts SET processed = TRUE, processed_at = ?
WHERE id IN (
	SELECT id FROM decision_contexts
	WHERE processed = FALSE AND severity >= ?
	ORDER BY created_at ASC, id ASC
	LIMIT ?
	FOR UPDATE SKIP LOCKED
)
RETURNING id, context_type, severity, snapshot, processed, created_at, processed_at`

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) ClaimContexts(ctx context.Context, minSeverity int, limit int, claimedAt time.Time) ([]entities.DecisionContext, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []decisionContextModel
	if err := r.db.WithContext(ctx).Raw(claimContextsSQL, claimedAt.UTC(), minSeverity, limit).Scan(&rows).Error; err != nil {
		return nil, r.logError("decision_repo_claim_contexts_failed", err,
			"min_severity", minSeverity,
			"limit", limit,
		)
	}
	items := make([]entities.DecisionContext, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ContextID < items[j].ContextID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (r *Repository) ReleaseContext(ctx context.Context, contextID string) error {
	update := r.db.WithContext(ctx).
		Model(&decisionContextModel{}).
		Where("id = ?", strings.TrimSpace(contextID)).
		Updates(map[string]any{"processed": false, "processed_at": nil})
	if update.Error != nil {
		return r.logError("decision_repo_release_context_failed", update.Error, "context_id", contextID)
	}
	if update.RowsAffected == 0 {
		return domainerrors.ErrContextNotFound
	}
	return nil
}

func (r *Repository) SaveDecision(ctx context.Context, decision entities.Decision) error {
	row, err := decisionModelFromEntity(decision)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("decision_repo_save_decision_failed", err,
			"decision_id", row.DecisionID,
			"context_id", row.ContextID,
		)
	}
	return nil
}

func (r *Repository) GetDecision(ctx context.Context, decisionID string) (entities.Decision, error) {
	var row decisionModel
	err := r.db.WithContext(ctx).
		Where("decision_id = ?", strings.TrimSpace(decisionID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Decision{}, domainerrors.ErrDecisionNotFound
		}
		return entities.Decision{}, r.logError("decision_repo_get_decision_failed", err, "decision_id", decisionID)
	}
	return row.toEntity()
}

func (r *Repository) ListAwaitingPoll(ctx context.Context, limit int) ([]entities.Decision, error) {
	return r.listDecisions(ctx, "requires_governance = TRUE AND executed = FALSE AND poll_id IS NULL", limit)
}

func (r *Repository) ListAwaitingExecution(ctx context.Context, limit int) ([]entities.Decision, error) {
	return r.listDecisions(ctx, "requires_governance = FALSE AND executed = FALSE", limit)
}

func (r *Repository) listDecisions(ctx context.Context, where string, limit int) ([]entities.Decision, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []decisionModel
	if err := r.db.WithContext(ctx).
		Where(where).
		Order("created_at ASC, decision_id ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("decision_repo_list_decisions_failed", err, "filter", where)
	}
	return decisionsFromRows(rows)
}

func (r *Repository) MarkExecuted(ctx context.Context, decisionID string, at time.Time, event ports.EventEnvelope) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		update := tx.Model(&decisionModel{}).
			Where("decision_id = ? AND executed = FALSE AND poll_id IS NULL", decisionID).
			Updates(map[string]any{"executed": true, "updated_at": at.UTC()})
		if update.Error != nil {
			return update.Error
		}
		if update.RowsAffected == 0 {
			return domainerrors.ErrConflict
		}
		return appendOutboxTx(tx, event)
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrConflict) {
			return err
		}
		return r.logError("decision_repo_mark_executed_failed", err, "decision_id", decisionID)
	}
	return nil
}

func (r *Repository) SetSuccessScore(ctx context.Context, decisionID string, score float64, at time.Time) (entities.Decision, error) {
	update := r.db.WithContext(ctx).
		Model(&decisionModel{}).
		Where("decision_id = ?", decisionID).
		Updates(map[string]any{"success_score": score, "updated_at": at.UTC()})
	if update.Error != nil {
		return entities.Decision{}, r.logError("decision_repo_set_score_failed", update.Error, "decision_id", decisionID)
	}
	if update.RowsAffected == 0 {
		return entities.Decision{}, domainerrors.ErrDecisionNotFound
	}
	return r.GetDecision(ctx, decisionID)
}

func (r *Repository) ListOutcomesSince(ctx context.Context, since time.Time) ([]entities.DecisionOutcome, error) {
	var rows []decisionModel
	if err := r.db.WithContext(ctx).
		Where("executed = TRUE AND created_at >= ?", since.UTC()).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("decision_repo_list_outcomes_failed", err, "since", since.UTC())
	}
	decisions, err := decisionsFromRows(rows)
	if err != nil {
		return nil, err
	}

	pollIDs := make([]string, 0)
	for _, decision := range decisions {
		if decision.Linked() {
			pollIDs = append(pollIDs, *decision.PollID)
		}
	}
	analyses := map[string]entities.AnalysisResult{}
	if len(pollIDs) > 0 {
		var analysisRows []analysisModel
		if err := r.db.WithContext(ctx).Where("poll_id IN ?", pollIDs).Find(&analysisRows).Error; err != nil {
			return nil, r.logError("decision_repo_list_outcome_analyses_failed", err, "polls", len(pollIDs))
		}
		for _, row := range analysisRows {
			analysis, err := row.toEntity()
			if err != nil {
				return nil, err
			}
			analyses[analysis.PollID] = analysis
		}
	}

	outcomes := make([]entities.DecisionOutcome, 0, len(decisions))
	for _, decision := range decisions {
		outcome := entities.DecisionOutcome{Decision: decision}
		if decision.Linked() {
			if analysis, ok := analyses[*decision.PollID]; ok {
				copied := analysis
				outcome.Analysis = &copied
			}
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "governance/decision-engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("decision engine repository operation failed", fields...)
	return err
}

func decisionsFromRows(rows []decisionModel) ([]entities.Decision, error) {
	items := make([]entities.Decision, 0, len(rows))
	for _, row := range rows {
		item, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var (
	_ ports.ContextRepository  = (*Repository)(nil)
	_ ports.DecisionRepository = (*Repository)(nil)
	_ ports.LearningRepository = (*Repository)(nil)
)
