package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"girthgov/contexts/governance/voting-ledger/domain/entities"
	domainerrors "girthgov/contexts/governance/voting-ledger/domain/errors"
	"girthgov/contexts/governance/voting-ledger/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
	settingsRowID         = "global"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{db: db, logger: logger}
}

func (r *Repository) LastVote(ctx context.Context, wallet string, pollID string) (entities.Vote, bool, error) {
	var row voteModel
	err := r.db.WithContext(ctx).
		Where("wallet = ?", strings.TrimSpace(wallet)).
		Where("poll_id = ?", strings.TrimSpace(pollID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Vote{}, false, nil
		}
		return entities.Vote{}, false, r.logError("voting_ledger_repo_last_vote_failed", err,
			"wallet", strings.TrimSpace(wallet),
			"poll_id", strings.TrimSpace(pollID),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) GetWallet(ctx context.Context, wallet string) (entities.WalletLedger, bool, error) {
	var row walletLedgerModel
	err := r.db.WithContext(ctx).
		Where("wallet = ?", strings.TrimSpace(wallet)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.WalletLedger{Wallet: strings.TrimSpace(wallet)}, false, nil
		}
		return entities.WalletLedger{}, false, r.logError("voting_ledger_repo_get_wallet_failed", err,
			"wallet", strings.TrimSpace(wallet),
		)
	}
	return row.toEntity(), true, nil
}

// RecordVote replaces the wallet's vote on the poll, moves the option tally and
// credits the wallet ledger in one transaction.
func (r *Repository) RecordVote(ctx context.Context, write ports.VoteWrite) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if write.Superseded != nil {
			removed := tx.
				Where("id = ?", write.Superseded.VoteID).
				Where("wallet = ? AND poll_id = ?", write.Vote.Wallet, write.Vote.PollID).
				Delete(&voteModel{})
			if removed.Error != nil {
				return removed.Error
			}
			if removed.RowsAffected == 0 {
				return domainerrors.ErrConflict
			}
			if err := tx.Model(&optionTallyModel{}).
				Where("option_id = ? AND votes_count > 0", write.Superseded.OptionID).
				UpdateColumn("votes_count", gorm.Expr("votes_count - 1")).Error; err != nil {
				return err
			}
		}

		row := voteModelFromEntity(write.Vote)
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrConflict
			}
			return err
		}
		tallied := tx.Model(&optionTallyModel{}).
			Where("option_id = ? AND poll_id = ?", write.Vote.OptionID, write.Vote.PollID).
			UpdateColumn("votes_count", gorm.Expr("votes_count + 1"))
		if tallied.Error != nil {
			return tallied.Error
		}
		if tallied.RowsAffected == 0 {
			return domainerrors.ErrOptionNotInPoll
		}

		ledger := walletLedgerModelFromEntity(write.Ledger, write.Vote.VotedAt)
		if write.ExpectedStreak == 0 {
			created := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "wallet"}},
				DoNothing: true,
			}).Create(&ledger)
			if created.Error != nil {
				return created.Error
			}
			if created.RowsAffected == 0 {
				return domainerrors.ErrConflict
			}
		} else {
			updated := tx.Model(&walletLedgerModel{}).
				Where("wallet = ? AND streak = ?", ledger.Wallet, write.ExpectedStreak).
				Updates(map[string]any{
					"streak":         ledger.Streak,
					"reward_balance": ledger.RewardBalance,
					"last_vote_at":   ledger.LastVoteAt,
					"updated_at":     ledger.UpdatedAt,
				})
			if updated.Error != nil {
				return updated.Error
			}
			if updated.RowsAffected == 0 {
				return domainerrors.ErrConflict
			}
		}
		return appendOutboxTx(tx, write.Event)
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrConflict) || errors.Is(err, domainerrors.ErrOptionNotInPoll) {
			return err
		}
		return r.logError("voting_ledger_repo_record_vote_failed", err,
			"vote_id", write.Vote.VoteID,
			"poll_id", write.Vote.PollID,
			"wallet", write.Vote.Wallet,
		)
	}
	return nil
}

func (r *Repository) CountVotes(ctx context.Context, pollID string) (map[string]int, error) {
	var rows []struct {
		OptionID string
		Total    int
	}
	if err := r.db.WithContext(ctx).
		Model(&voteModel{}).
		Select("option_id, COUNT(*) AS total").
		Where("poll_id = ?", strings.TrimSpace(pollID)).
		Group("option_id").
		Scan(&rows).Error; err != nil {
		return nil, r.logError("voting_ledger_repo_count_votes_failed", err, "poll_id", strings.TrimSpace(pollID))
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.OptionID] = row.Total
	}
	return counts, nil
}

func (r *Repository) GetPollForVoting(ctx context.Context, pollID string) (entities.PollSnapshot, error) {
	var poll pollProjectionModel
	err := r.db.WithContext(ctx).
		Where("poll_id = ?", strings.TrimSpace(pollID)).
		First(&poll).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.PollSnapshot{}, domainerrors.ErrPollNotFound
		}
		return entities.PollSnapshot{}, r.logError("voting_ledger_repo_get_poll_failed", err,
			"poll_id", strings.TrimSpace(pollID),
		)
	}
	var optionIDs []string
	if err := r.db.WithContext(ctx).
		Model(&optionTallyModel{}).
		Where("poll_id = ?", poll.PollID).
		Order("position ASC").
		Pluck("option_id", &optionIDs).Error; err != nil {
		return entities.PollSnapshot{}, r.logError("voting_ledger_repo_get_poll_options_failed", err,
			"poll_id", poll.PollID,
		)
	}
	return entities.PollSnapshot{
		PollID:        poll.PollID,
		Status:        poll.Status,
		VotingStart:   poll.VotingStart.UTC(),
		VotingEnd:     poll.VotingEnd.UTC(),
		RewardPerVote: poll.RewardPerVote,
		OptionIDs:     optionIDs,
	}, nil
}

func (r *Repository) GetVotingSettings(ctx context.Context) (entities.VotingSettings, error) {
	var row settingsProjectionModel
	err := r.db.WithContext(ctx).
		Where("id = ?", settingsRowID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.DefaultVotingSettings(), nil
		}
		return entities.VotingSettings{}, r.logError("voting_ledger_repo_get_settings_failed", err)
	}
	return entities.VotingSettings{CooldownHours: row.VoteCooldownHours, BaseReward: row.BaseReward}, nil
}

func (r *Repository) Get(ctx context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	var row idempotencyModel
	err := r.db.WithContext(ctx).
		Where("key = ?", strings.TrimSpace(key)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.IdempotencyRecord{}, false, nil
		}
		return ports.IdempotencyRecord{}, false, r.logError("voting_ledger_repo_idempotency_get_failed", err,
			"idempotency_key", strings.TrimSpace(key),
		)
	}
	if !row.ExpiresAt.IsZero() && now.UTC().After(row.ExpiresAt.UTC()) {
		if err := r.db.WithContext(ctx).
			Where("key = ?", row.Key).
			Delete(&idempotencyModel{}).Error; err != nil {
			return ports.IdempotencyRecord{}, false, r.logError("voting_ledger_repo_idempotency_expire_failed", err,
				"idempotency_key", row.Key,
			)
		}
		return ports.IdempotencyRecord{}, false, nil
	}
	var receipt entities.VoteReceipt
	if err := json.Unmarshal(row.Receipt, &receipt); err != nil {
		return ports.IdempotencyRecord{}, false, r.logError("voting_ledger_repo_idempotency_decode_failed", err,
			"idempotency_key", row.Key,
		)
	}
	return ports.IdempotencyRecord{
		Key:         row.Key,
		RequestHash: row.RequestHash,
		Receipt:     receipt,
		ExpiresAt:   row.ExpiresAt.UTC(),
	}, true, nil
}

func (r *Repository) Put(ctx context.Context, record ports.IdempotencyRecord) error {
	receipt, err := json.Marshal(record.Receipt)
	if err != nil {
		return err
	}
	row := idempotencyModel{
		Key:         strings.TrimSpace(record.Key),
		RequestHash: strings.TrimSpace(record.RequestHash),
		VoteID:      record.Receipt.VoteID,
		Receipt:     receipt,
		ExpiresAt:   record.ExpiresAt.UTC(),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("voting_ledger_repo_idempotency_put_failed", create.Error, "idempotency_key", row.Key)
	}
	if create.RowsAffected > 0 {
		return nil
	}

	var existing idempotencyModel
	if err := r.db.WithContext(ctx).
		Where("key = ?", row.Key).
		First(&existing).Error; err != nil {
		return r.logError("voting_ledger_repo_idempotency_load_existing_failed", err, "idempotency_key", row.Key)
	}
	if existing.RequestHash != row.RequestHash || existing.VoteID != row.VoteID {
		return domainerrors.ErrIdempotencyConflict
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("voting_ledger_repo_list_pending_outbox_failed", err, "limit", limit)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("voting_ledger_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConflict
	}
	return nil
}

func appendOutboxTx(tx *gorm.DB, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row).Error
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "governance/voting-ledger",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("voting ledger repository operation failed", fields...)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var (
	_ ports.VoteRepository   = (*Repository)(nil)
	_ ports.PollReader       = (*Repository)(nil)
	_ ports.SettingsReader   = (*Repository)(nil)
	_ ports.IdempotencyStore = (*Repository)(nil)
	_ ports.OutboxRepository = (*Repository)(nil)
)
