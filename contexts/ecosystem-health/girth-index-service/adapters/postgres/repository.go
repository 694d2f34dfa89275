package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"girthgov/contexts/ecosystem-health/girth-index-service/domain/entities"
	domainerrors "girthgov/contexts/ecosystem-health/girth-index-service/domain/errors"
	"girthgov/contexts/ecosystem-health/girth-index-service/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// claimEventsSQL marks a batch processed in one statement. SKIP LOCKED keeps
// concurrent scorers from blocking on, or double-claiming, the same rows.
const claimEventsSQL = `
UPDATE game_events SET processed_at = ?
WHERE event_id IN (
	SELECT event_id FROM game_events
	WHERE processed_at IS NULL
	ORDER BY occurred_at ASC, event_id ASC
	LIMIT ?
	FOR UPDATE SKIP LOCKED
)
RETURNING event_id, wallet, session_id, event_type, taps, evolution_level, occurred_at, received_at, processed_at`

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

func (r *Repository) AppendEvents(ctx context.Context, events []entities.GameEvent) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}
	rows := make([]gameEventModel, 0, len(events))
	for _, event := range events {
		rows = append(rows, gameEventModelFromEntity(event))
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(&rows)
	if create.Error != nil {
		return 0, r.logError("girth_repo_append_events_failed", create.Error, "batch_size", len(rows))
	}
	return int(create.RowsAffected), nil
}

func (r *Repository) ClaimUnprocessedEvents(ctx context.Context, limit int, claimedAt time.Time) ([]entities.GameEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []gameEventModel
	if err := r.db.WithContext(ctx).Raw(claimEventsSQL, claimedAt.UTC(), limit).Scan(&rows).Error; err != nil {
		return nil, r.logError("girth_repo_claim_events_failed", err, "limit", limit)
	}
	items := make([]entities.GameEvent, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].OccurredAt.Equal(items[j].OccurredAt) {
			return items[i].EventID < items[j].EventID
		}
		return items[i].OccurredAt.Before(items[j].OccurredAt)
	})
	return items, nil
}

func (r *Repository) ReleaseEvents(ctx context.Context, eventIDs []string) error {
	if len(eventIDs) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).
		Model(&gameEventModel{}).
		Where("event_id IN ?", eventIDs).
		Update("processed_at", nil).Error; err != nil {
		return r.logError("girth_repo_release_events_failed", err, "count", len(eventIDs))
	}
	return nil
}

func (r *Repository) ListEventsSince(ctx context.Context, since time.Time) ([]entities.GameEvent, error) {
	var rows []gameEventModel
	if err := r.db.WithContext(ctx).
		Where("occurred_at >= ?", since.UTC()).
		Order("occurred_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("girth_repo_list_events_since_failed", err, "since", since.UTC())
	}
	items := make([]entities.GameEvent, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) GetIndex(ctx context.Context) (entities.GirthIndex, error) {
	var row girthIndexModel
	err := r.db.WithContext(ctx).
		Where("id = ?", entities.GirthIndexID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.GirthIndex{}, domainerrors.ErrIndexNotFound
		}
		return entities.GirthIndex{}, r.logError("girth_repo_get_index_failed", err)
	}
	return row.toEntity()
}

func (r *Repository) SaveIndex(
	ctx context.Context,
	idx entities.GirthIndex,
	expectedVersion int64,
	escalations []entities.DecisionContext,
) (entities.GirthIndex, error) {
	row := girthIndexModelFromEntity(idx)
	row.Version = expectedVersion + 1

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if expectedVersion == 0 {
			create := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
			if create.Error != nil {
				return create.Error
			}
			if create.RowsAffected == 0 {
				return domainerrors.ErrVersionConflict
			}
		} else {
			update := tx.Model(&girthIndexModel{}).
				Where("id = ? AND version = ?", entities.GirthIndexID, expectedVersion).
				Updates(map[string]any{
					"resonance":        row.Resonance,
					"tap_surge":        row.TapSurge,
					"legion_morale":    row.LegionMorale,
					"oracle_stability": row.OracleStability,
					"last_updated":     row.LastUpdated,
					"version":          row.Version,
				})
			if update.Error != nil {
				return update.Error
			}
			if update.RowsAffected == 0 {
				return domainerrors.ErrVersionConflict
			}
		}
		if len(escalations) == 0 {
			return nil
		}
		contexts := make([]decisionContextModel, 0, len(escalations))
		for _, item := range escalations {
			contexts = append(contexts, decisionContextModelFromEntity(item))
		}
		return tx.Create(&contexts).Error
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrVersionConflict) {
			return entities.GirthIndex{}, err
		}
		return entities.GirthIndex{}, r.logError("girth_repo_save_index_failed", err,
			"expected_version", expectedVersion,
			"escalations", len(escalations),
		)
	}
	idx.Version = row.Version
	return idx, nil
}

func (r *Repository) LatestMetric(ctx context.Context, metricType entities.MetricType) (entities.EcosystemMetric, bool, error) {
	var row ecosystemMetricModel
	err := r.db.WithContext(ctx).
		Where("metric_type = ?", string(metricType)).
		Order("recorded_at DESC").
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.EcosystemMetric{}, false, nil
		}
		return entities.EcosystemMetric{}, false, r.logError("girth_repo_latest_metric_failed", err,
			"metric_type", string(metricType),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) AppendMetric(ctx context.Context, metric entities.EcosystemMetric) error {
	row := ecosystemMetricModelFromEntity(metric)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("girth_repo_append_metric_failed", err, "metric_id", row.ID)
	}
	return nil
}

func (r *Repository) ListMetrics(ctx context.Context, metricType entities.MetricType, limit int) ([]entities.EcosystemMetric, error) {
	tx := r.db.WithContext(ctx).Model(&ecosystemMetricModel{})
	if strings.TrimSpace(string(metricType)) != "" {
		tx = tx.Where("metric_type = ?", string(metricType))
	}
	var rows []ecosystemMetricModel
	if err := tx.Order("recorded_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, r.logError("girth_repo_list_metrics_failed", err, "metric_type", string(metricType))
	}
	items := make([]entities.EcosystemMetric, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) AppendDecisionContext(ctx context.Context, decisionContext entities.DecisionContext) error {
	row := decisionContextModelFromEntity(decisionContext)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("girth_repo_append_context_failed", err,
			"context_id", row.ID,
			"context_type", row.ContextType,
		)
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "ecosystem-health/girth-index-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("girth index repository operation failed", fields...)
	return err
}

type gameEventModel struct {
	EventID        string     `gorm:"column:event_id;primaryKey"`
	Wallet         string     `gorm:"column:wallet"`
	SessionID      string     `gorm:"column:session_id"`
	EventType      string     `gorm:"column:event_type"`
	Taps           int        `gorm:"column:taps"`
	EvolutionLevel int        `gorm:"column:evolution_level"`
	OccurredAt     time.Time  `gorm:"column:occurred_at"`
	ReceivedAt     time.Time  `gorm:"column:received_at"`
	ProcessedAt    *time.Time `gorm:"column:processed_at"`
}

func (gameEventModel) TableName() string {
	return "game_events"
}

func gameEventModelFromEntity(event entities.GameEvent) gameEventModel {
	return gameEventModel{
		EventID:        strings.TrimSpace(event.EventID),
		Wallet:         strings.TrimSpace(event.Wallet),
		SessionID:      strings.TrimSpace(event.SessionID),
		EventType:      string(event.Type),
		Taps:           event.Taps,
		EvolutionLevel: event.EvolutionLevel,
		OccurredAt:     event.OccurredAt.UTC(),
		ReceivedAt:     event.ReceivedAt.UTC(),
		ProcessedAt:    normalizeOptionalTime(event.ProcessedAt),
	}
}

func (m gameEventModel) toEntity() entities.GameEvent {
	return entities.GameEvent{
		EventID:        m.EventID,
		Wallet:         m.Wallet,
		SessionID:      m.SessionID,
		Type:           entities.EventType(m.EventType),
		Taps:           m.Taps,
		EvolutionLevel: m.EvolutionLevel,
		OccurredAt:     m.OccurredAt.UTC(),
		ReceivedAt:     m.ReceivedAt.UTC(),
		ProcessedAt:    normalizeOptionalTime(m.ProcessedAt),
	}
}

type girthIndexModel struct {
	ID              string    `gorm:"column:id;primaryKey"`
	Resonance       float64   `gorm:"column:resonance"`
	TapSurge        string    `gorm:"column:tap_surge"`
	LegionMorale    string    `gorm:"column:legion_morale"`
	OracleStability string    `gorm:"column:oracle_stability"`
	LastUpdated     time.Time `gorm:"column:last_updated"`
	Version         int64     `gorm:"column:version"`
}

func (girthIndexModel) TableName() string {
	return "girth_index"
}

func girthIndexModelFromEntity(idx entities.GirthIndex) girthIndexModel {
	return girthIndexModel{
		ID:              entities.GirthIndexID,
		Resonance:       idx.Resonance,
		TapSurge:        idx.TapSurge.String(),
		LegionMorale:    idx.LegionMorale.String(),
		OracleStability: idx.OracleStability.String(),
		LastUpdated:     idx.LastUpdated.UTC(),
		Version:         idx.Version,
	}
}

func (m girthIndexModel) toEntity() (entities.GirthIndex, error) {
	surge, err := entities.ParseTapSurgeTier(m.TapSurge)
	if err != nil {
		return entities.GirthIndex{}, err
	}
	morale, err := entities.ParseLegionMoraleTier(m.LegionMorale)
	if err != nil {
		return entities.GirthIndex{}, err
	}
	stability, err := entities.ParseOracleStabilityTier(m.OracleStability)
	if err != nil {
		return entities.GirthIndex{}, err
	}
	return entities.GirthIndex{
		Resonance:       m.Resonance,
		TapSurge:        surge,
		LegionMorale:    morale,
		OracleStability: stability,
		LastUpdated:     m.LastUpdated.UTC(),
		Version:         m.Version,
	}, nil
}

type ecosystemMetricModel struct {
	ID            string    `gorm:"column:id;primaryKey"`
	MetricType    string    `gorm:"column:metric_type"`
	Value         float64   `gorm:"column:value"`
	RawValue      float64   `gorm:"column:raw_value"`
	PreviousValue *float64  `gorm:"column:previous_value"`
	Severity      float64   `gorm:"column:severity"`
	Source        string    `gorm:"column:source"`
	RecordedAt    time.Time `gorm:"column:recorded_at"`
}

func (ecosystemMetricModel) TableName() string {
	return "ecosystem_metrics"
}

func ecosystemMetricModelFromEntity(metric entities.EcosystemMetric) ecosystemMetricModel {
	return ecosystemMetricModel{
		ID:            metric.MetricID,
		MetricType:    string(metric.Type),
		Value:         metric.Value,
		RawValue:      metric.RawValue,
		PreviousValue: metric.PreviousValue,
		Severity:      metric.Severity,
		Source:        metric.Source,
		RecordedAt:    metric.Timestamp.UTC(),
	}
}

func (m ecosystemMetricModel) toEntity() entities.EcosystemMetric {
	return entities.EcosystemMetric{
		MetricID:      m.ID,
		Type:          entities.MetricType(m.MetricType),
		Value:         m.Value,
		RawValue:      m.RawValue,
		PreviousValue: m.PreviousValue,
		Severity:      m.Severity,
		Source:        m.Source,
		Timestamp:     m.RecordedAt.UTC(),
	}
}

// decisionContextModel is the write side of decision_contexts; the governance
// decision engine owns the claim side.
type decisionContextModel struct {
	ID          string     `gorm:"column:id;primaryKey"`
	ContextType string     `gorm:"column:context_type"`
	Severity    int        `gorm:"column:severity"`
	Snapshot    []byte     `gorm:"column:snapshot"`
	Processed   bool       `gorm:"column:processed"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	ProcessedAt *time.Time `gorm:"column:processed_at"`
}

func (decisionContextModel) TableName() string {
	return "decision_contexts"
}

func decisionContextModelFromEntity(item entities.DecisionContext) decisionContextModel {
	return decisionContextModel{
		ID:          strings.TrimSpace(item.ContextID),
		ContextType: item.Type,
		Severity:    item.Severity,
		Snapshot:    append([]byte(nil), item.Snapshot...),
		CreatedAt:   item.CreatedAt.UTC(),
	}
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	normalized := value.UTC()
	return &normalized
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var (
	_ ports.EventRepository       = (*Repository)(nil)
	_ ports.IndexRepository       = (*Repository)(nil)
	_ ports.MetricRepository      = (*Repository)(nil)
	_ ports.DecisionContextWriter = (*Repository)(nil)
)
