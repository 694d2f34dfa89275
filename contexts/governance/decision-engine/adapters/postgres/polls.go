package postgresadapter

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"girthgov/contexts/governance/decision-engine/domain/entities"
	domainerrors "girthgov/contexts/governance/decision-engine/domain/errors"
	"girthgov/contexts/governance/decision-engine/ports"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreatePollForDecision links the decision last with WHERE poll_id IS NULL; a
// zero row count rolls back everything written before it.
func (r *Repository) CreatePollForDecision(ctx context.Context, draft ports.PollDraft, at time.Time) error {
	poll := pollModelFromEntity(draft.Poll)
	options, err := pollOptionModelsFromEntity(draft.Poll)
	if err != nil {
		return err
	}
	announcement := commentaryModelFromEntity(draft.Announcement)

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&poll).Error; err != nil {
			return err
		}
		if err := tx.Create(&options).Error; err != nil {
			return err
		}
		if err := tx.Create(&announcement).Error; err != nil {
			return err
		}
		for _, event := range draft.Events {
			if err := appendOutboxTx(tx, event); err != nil {
				return err
			}
		}
		for _, action := range draft.AdminActions {
			row := adminActionModelFromEntity(action)
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		link := tx.Model(&decisionModel{}).
			Where("decision_id = ? AND poll_id IS NULL", poll.DecisionID).
			Updates(map[string]any{
				"poll_id":        poll.PollID,
				"executed":       true,
				"autonomy_level": poll.AutonomyLevel,
				"updated_at":     at.UTC(),
			})
		if link.Error != nil {
			return link.Error
		}
		if link.RowsAffected == 0 {
			return domainerrors.ErrDecisionAlreadyLinked
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrDecisionAlreadyLinked) {
			return err
		}
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("decision_repo_create_poll_failed", err,
			"poll_id", poll.PollID,
			"decision_id", poll.DecisionID,
		)
	}
	return nil
}

func (r *Repository) GetPoll(ctx context.Context, pollID string) (entities.Poll, error) {
	var row pollModel
	err := r.db.WithContext(ctx).
		Where("poll_id = ?", strings.TrimSpace(pollID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Poll{}, domainerrors.ErrPollNotFound
		}
		return entities.Poll{}, r.logError("decision_repo_get_poll_failed", err, "poll_id", pollID)
	}
	polls, err := r.attachOptions(r.db.WithContext(ctx), []pollModel{row})
	if err != nil {
		return entities.Poll{}, err
	}
	return polls[0], nil
}

func (r *Repository) ListPolls(ctx context.Context, status *entities.PollStatus, limit int) ([]entities.Poll, error) {
	if limit <= 0 {
		limit = 100
	}
	tx := r.db.WithContext(ctx).Model(&pollModel{})
	if status != nil {
		tx = tx.Where("status = ?", status.String())
	}
	var rows []pollModel
	if err := tx.Order("created_at DESC, poll_id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, r.logError("decision_repo_list_polls_failed", err)
	}
	return r.attachOptions(r.db.WithContext(ctx), rows)
}

func (r *Repository) ListClosablePolls(ctx context.Context, from time.Time, to time.Time, limit int) ([]entities.Poll, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []pollModel
	if err := r.db.WithContext(ctx).
		Where("voting_end BETWEEN ? AND ?", from.UTC(), to.UTC()).
		Where("status NOT IN ?", []string{entities.PollClosed.String(), entities.PollAdminCancelled.String()}).
		Order("voting_end ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("decision_repo_list_closable_failed", err,
			"from", from.UTC(),
			"to", to.UTC(),
		)
	}
	return r.attachOptions(r.db.WithContext(ctx), rows)
}

func (r *Repository) ListUnanalyzedPolls(ctx context.Context, limit int) ([]entities.Poll, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []pollModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", entities.PollClosed.String()).
		Where("EXISTS (SELECT 1 FROM poll_completions c WHERE c.poll_id = polls.poll_id)").
		Where("NOT EXISTS (SELECT 1 FROM poll_analyses a WHERE a.poll_id = polls.poll_id)").
		Order("updated_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("decision_repo_list_unanalyzed_failed", err)
	}
	return r.attachOptions(r.db.WithContext(ctx), rows)
}

// CountVotes reads the votes table written by the voting ledger.
func (r *Repository) CountVotes(ctx context.Context, pollID string) (map[string]int, error) {
	var rows []struct {
		OptionID string
		Total    int
	}
	if err := r.db.WithContext(ctx).
		Table("votes").
		Select("option_id, COUNT(*) AS total").
		Where("poll_id = ?", pollID).
		Group("option_id").
		Scan(&rows).Error; err != nil {
		return nil, r.logError("decision_repo_count_votes_failed", err, "poll_id", pollID)
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.OptionID] = row.Total
	}
	return counts, nil
}

func (r *Repository) ClosePoll(ctx context.Context, completion entities.PollCompletionEvent, events []ports.EventEnvelope) error {
	row, err := completionModelFromEntity(completion)
	if err != nil {
		return err
	}
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		update := tx.Model(&pollModel{}).
			Where("poll_id = ? AND status NOT IN ?", completion.PollID,
				[]string{entities.PollClosed.String(), entities.PollAdminCancelled.String()}).
			Updates(map[string]any{
				"status":     entities.PollClosed.String(),
				"updated_at": completion.CompletedAt.UTC(),
			})
		if update.Error != nil {
			return update.Error
		}
		if update.RowsAffected == 0 {
			return domainerrors.ErrPollAlreadyClosed
		}
		create := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
		if create.Error != nil {
			return create.Error
		}
		if create.RowsAffected == 0 {
			return domainerrors.ErrPollAlreadyClosed
		}
		for _, event := range events {
			if err := appendOutboxTx(tx, event); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrPollAlreadyClosed) {
			return err
		}
		return r.logError("decision_repo_close_poll_failed", err, "poll_id", completion.PollID)
	}
	return nil
}

func (r *Repository) TransitionPoll(
	ctx context.Context,
	pollID string,
	allowed []entities.PollStatus,
	next entities.PollStatus,
	patch entities.PollPatch,
	at time.Time,
) (entities.Poll, error) {
	allowedNames := make([]string, 0, len(allowed))
	for _, status := range allowed {
		allowedNames = append(allowedNames, status.String())
	}
	updates := map[string]any{
		"status":     next.String(),
		"updated_at": at.UTC(),
	}
	if patch.Title != nil {
		updates["title"] = *patch.Title
	}
	if patch.VotingEnd != nil {
		updates["voting_end"] = patch.VotingEnd.UTC()
	}

	update := r.db.WithContext(ctx).
		Model(&pollModel{}).
		Where("poll_id = ? AND status IN ?", pollID, allowedNames).
		Updates(updates)
	if update.Error != nil {
		return entities.Poll{}, r.logError("decision_repo_transition_poll_failed", update.Error,
			"poll_id", pollID,
			"next", next.String(),
		)
	}
	if update.RowsAffected == 0 {
		if _, err := r.GetPoll(ctx, pollID); err != nil {
			return entities.Poll{}, err
		}
		return entities.Poll{}, domainerrors.ErrInvalidTransition
	}
	return r.GetPoll(ctx, pollID)
}

func (r *Repository) ListCommentary(ctx context.Context, pollID string) ([]entities.PollCommentary, error) {
	if _, err := r.GetPoll(ctx, pollID); err != nil {
		return nil, err
	}
	var rows []commentaryModel
	if err := r.db.WithContext(ctx).
		Where("poll_id = ?", pollID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("decision_repo_list_commentary_failed", err, "poll_id", pollID)
	}
	items := make([]entities.PollCommentary, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) SaveAnalysis(
	ctx context.Context,
	analysis entities.AnalysisResult,
	commentary entities.PollCommentary,
	events []ports.EventEnvelope,
) error {
	row, err := analysisModelFromEntity(analysis)
	if err != nil {
		return err
	}
	note := commentaryModelFromEntity(commentary)
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		if err := tx.Create(&note).Error; err != nil {
			return err
		}
		for _, event := range events {
			if err := appendOutboxTx(tx, event); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("decision_repo_save_analysis_failed", err, "poll_id", analysis.PollID)
	}
	return nil
}

func (r *Repository) GetAnalysis(ctx context.Context, pollID string) (entities.AnalysisResult, bool, error) {
	var row analysisModel
	err := r.db.WithContext(ctx).Where("poll_id = ?", pollID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.AnalysisResult{}, false, nil
		}
		return entities.AnalysisResult{}, false, r.logError("decision_repo_get_analysis_failed", err, "poll_id", pollID)
	}
	analysis, err := row.toEntity()
	if err != nil {
		return entities.AnalysisResult{}, false, err
	}
	return analysis, true, nil
}

func (r *Repository) attachOptions(tx *gorm.DB, rows []pollModel) ([]entities.Poll, error) {
	if len(rows) == 0 {
		return []entities.Poll{}, nil
	}
	pollIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		pollIDs = append(pollIDs, row.PollID)
	}
	var optionRows []pollOptionModel
	if err := tx.Where("poll_id IN ?", pollIDs).Order("position ASC").Find(&optionRows).Error; err != nil {
		return nil, r.logError("decision_repo_list_options_failed", err, "polls", len(pollIDs))
	}
	byPoll := make(map[string][]entities.PollOption, len(rows))
	for _, optionRow := range optionRows {
		option, err := optionRow.toEntity()
		if err != nil {
			return nil, err
		}
		byPoll[option.PollID] = append(byPoll[option.PollID], option)
	}

	polls := make([]entities.Poll, 0, len(rows))
	for _, row := range rows {
		poll, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		poll.Options = byPoll[poll.PollID]
		sort.Slice(poll.Options, func(i, j int) bool { return poll.Options[i].Position < poll.Options[j].Position })
		polls = append(polls, poll)
	}
	return polls, nil
}

var (
	_ ports.PollRepository     = (*Repository)(nil)
	_ ports.VoteCounter        = (*Repository)(nil)
	_ ports.AnalysisRepository = (*Repository)(nil)
)
