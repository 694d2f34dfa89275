package httpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"girthgov/contexts/governance/decision-engine/application/commands"
	"girthgov/contexts/governance/decision-engine/application/queries"
	"girthgov/contexts/governance/decision-engine/domain/entities"
	domainerrors "girthgov/contexts/governance/decision-engine/domain/errors"
	httptransport "girthgov/contexts/governance/decision-engine/transport/http"
)

const learningReportWindow = 7 * 24 * time.Hour

type Handler struct {
	Admin      commands.AdminUseCase
	Polls      queries.PollQueries
	Governance queries.GovernanceQueries
	Logger     *slog.Logger
}

func (h Handler) ListPollsHandler(ctx context.Context, status string, limit int) (httptransport.ListPollsResponse, error) {
	items, err := h.Polls.ListPolls(ctx, status, limit)
	if err != nil {
		return httptransport.ListPollsResponse{}, err
	}
	resp := httptransport.ListPollsResponse{Items: make([]httptransport.PollDTO, 0, len(items))}
	for _, item := range items {
		resp.Items = append(resp.Items, mapPoll(item))
	}
	return resp, nil
}

func (h Handler) GetPollHandler(ctx context.Context, pollID string) (httptransport.GetPollResponse, error) {
	poll, err := h.Polls.GetPoll(ctx, pollID)
	if err != nil {
		return httptransport.GetPollResponse{}, err
	}
	return httptransport.GetPollResponse{Poll: mapPoll(poll)}, nil
}

func (h Handler) ListCommentaryHandler(ctx context.Context, pollID string) (httptransport.ListCommentaryResponse, error) {
	items, err := h.Polls.Commentary(ctx, pollID)
	if err != nil {
		return httptransport.ListCommentaryResponse{}, err
	}
	resp := httptransport.ListCommentaryResponse{Items: make([]httptransport.CommentaryDTO, 0, len(items))}
	for _, item := range items {
		resp.Items = append(resp.Items, httptransport.CommentaryDTO{
			CommentaryID: item.CommentaryID,
			Kind:         string(item.Kind),
			Body:         item.Body,
			Fallback:     item.Fallback,
			CreatedAt:    item.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return resp, nil
}

func (h Handler) GetPollAnalysisHandler(ctx context.Context, pollID string) (httptransport.PollAnalysisResponse, error) {
	analysis, found, err := h.Governance.PollAnalysis(ctx, pollID)
	if err != nil {
		return httptransport.PollAnalysisResponse{}, err
	}
	if !found {
		return httptransport.PollAnalysisResponse{}, domainerrors.ErrPollNotFound
	}
	return httptransport.PollAnalysisResponse{
		PollID:            analysis.PollID,
		WinnerOptionID:    analysis.WinnerOptionID,
		ConsensusStrength: analysis.ConsensusStrength,
		ControversyScore:  analysis.ControversyScore,
		Recommendation: httptransport.RecommendationDTO{
			Priority:       analysis.Recommendation.Priority.String(),
			Complexity:     analysis.Recommendation.Complexity,
			Effort:         analysis.Recommendation.Effort,
			Resources:      analysis.Recommendation.Resources,
			Risks:          analysis.Recommendation.Risks,
			SuccessMetrics: analysis.Recommendation.SuccessMetrics,
			Confidence:     analysis.Recommendation.Confidence,
		},
		Confidence: analysis.Confidence,
		Fallback:   analysis.Fallback,
	}, nil
}

func (h Handler) ApprovePollHandler(ctx context.Context, actorID string, pollID string, req httptransport.ApprovePollRequest) (httptransport.GetPollResponse, error) {
	poll, err := h.Admin.ApprovePoll(ctx, actorID, pollID, req.Note)
	if err != nil {
		return httptransport.GetPollResponse{}, err
	}
	return httptransport.GetPollResponse{Poll: mapPoll(poll)}, nil
}

func (h Handler) RejectPollHandler(ctx context.Context, actorID string, pollID string, req httptransport.RejectPollRequest) (httptransport.GetPollResponse, error) {
	poll, err := h.Admin.RejectPoll(ctx, actorID, pollID, req.Reason)
	if err != nil {
		return httptransport.GetPollResponse{}, err
	}
	return httptransport.GetPollResponse{Poll: mapPoll(poll)}, nil
}

func (h Handler) OverridePollHandler(ctx context.Context, actorID string, pollID string, req httptransport.OverridePollRequest) (httptransport.GetPollResponse, error) {
	cmd := commands.OverridePollCommand{
		Kind:   entities.OverrideKind(strings.ToLower(strings.TrimSpace(req.Action))),
		Reason: req.Reason,
		Title:  req.Title,
	}
	if req.VotingEnd != nil {
		parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(*req.VotingEnd))
		if err != nil {
			return httptransport.GetPollResponse{}, domainerrors.ErrInvalidOverride
		}
		cmd.VotingEnd = &parsed
	}
	poll, err := h.Admin.OverridePoll(ctx, actorID, pollID, cmd)
	if err != nil {
		return httptransport.GetPollResponse{}, err
	}
	return httptransport.GetPollResponse{Poll: mapPoll(poll)}, nil
}

func (h Handler) EmergencyBrakeHandler(ctx context.Context, actorID string, req httptransport.EmergencyBrakeRequest) (httptransport.EmergencyBrakeResponse, error) {
	cmd := commands.BrakeCommand{Reason: req.Reason}
	switch strings.ToLower(strings.TrimSpace(req.Action)) {
	case "engage", "activate":
		cmd.Engage = true
		cmd.Duration = time.Duration(req.DurationHours * float64(time.Hour))
	case "release", "deactivate":
	default:
		return httptransport.EmergencyBrakeResponse{}, domainerrors.ErrInvalidBrakeRequest
	}
	brake, err := h.Admin.SetEmergencyBrake(ctx, actorID, cmd)
	if err != nil {
		return httptransport.EmergencyBrakeResponse{}, err
	}
	return mapBrake(brake), nil
}

func (h Handler) GetEmergencyBrakeHandler(ctx context.Context) (httptransport.EmergencyBrakeResponse, error) {
	brake, err := h.Governance.Brake(ctx)
	if err != nil {
		return httptransport.EmergencyBrakeResponse{}, err
	}
	return mapBrake(brake), nil
}

func (h Handler) UpdateConfigHandler(ctx context.Context, actorID string, req httptransport.UpdateConfigRequest) (httptransport.GovernanceSettingsResponse, error) {
	settings, err := h.Admin.UpdateConfig(ctx, actorID, req.Knob, req.Value)
	if err != nil {
		return httptransport.GovernanceSettingsResponse{}, err
	}
	return mapSettings(settings), nil
}

func (h Handler) GetConfigHandler(ctx context.Context) (httptransport.GovernanceSettingsResponse, error) {
	settings, err := h.Governance.Settings(ctx)
	if err != nil {
		return httptransport.GovernanceSettingsResponse{}, err
	}
	return mapSettings(settings), nil
}

func (h Handler) ScoreDecisionHandler(ctx context.Context, actorID string, decisionID string, req httptransport.ScoreDecisionRequest) (httptransport.DecisionResponse, error) {
	decision, err := h.Admin.ScoreDecision(ctx, actorID, decisionID, req.Score)
	if err != nil {
		return httptransport.DecisionResponse{}, err
	}
	return mapDecision(decision), nil
}

func (h Handler) GetDecisionHandler(ctx context.Context, decisionID string) (httptransport.DecisionResponse, error) {
	decision, err := h.Governance.Decision(ctx, decisionID)
	if err != nil {
		return httptransport.DecisionResponse{}, err
	}
	return mapDecision(decision), nil
}

func (h Handler) ListAdminActionsHandler(ctx context.Context, limit int) (httptransport.ListAdminActionsResponse, error) {
	items, err := h.Governance.AdminActions(ctx, limit)
	if err != nil {
		return httptransport.ListAdminActionsResponse{}, err
	}
	resp := httptransport.ListAdminActionsResponse{Items: make([]httptransport.AdminActionDTO, 0, len(items))}
	for _, item := range items {
		dto := httptransport.AdminActionDTO{
			ActionID:   item.ActionID,
			ActorID:    item.ActorID,
			Action:     string(item.Action),
			TargetID:   item.TargetID,
			OccurredAt: item.OccurredAt.UTC().Format(time.RFC3339),
		}
		if len(item.Payload) > 0 {
			var payload map[string]any
			if err := json.Unmarshal(item.Payload, &payload); err == nil {
				dto.Payload = payload
			}
		}
		resp.Items = append(resp.Items, dto)
	}
	return resp, nil
}

func (h Handler) LearningReportHandler(ctx context.Context, limit int) (httptransport.LearningReportResponse, error) {
	patterns, err := h.Governance.Patterns(ctx, limit)
	if err != nil {
		return httptransport.LearningReportResponse{}, err
	}
	stages, err := h.Governance.StagePerformance(ctx, learningReportWindow)
	if err != nil {
		return httptransport.LearningReportResponse{}, err
	}
	resp := httptransport.LearningReportResponse{
		Patterns: make([]httptransport.LearningPatternDTO, 0, len(patterns)),
		Stages:   make([]httptransport.StagePerformanceDTO, 0, len(stages)),
	}
	for _, item := range patterns {
		resp.Patterns = append(resp.Patterns, httptransport.LearningPatternDTO{
			PatternID:               item.PatternID,
			Type:                    string(item.Type),
			Category:                string(item.Category),
			Description:             item.Description,
			Confidence:              item.Confidence,
			Evidence:                item.Evidence,
			RecommendedImprovements: item.RecommendedImprovements,
			Fallback:                item.Fallback,
			CreatedAt:               item.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	for _, item := range stages {
		resp.Stages = append(resp.Stages, httptransport.StagePerformanceDTO(item))
	}
	return resp, nil
}

func mapPoll(poll entities.Poll) httptransport.PollDTO {
	dto := httptransport.PollDTO{
		PollID:        poll.PollID,
		DecisionID:    poll.DecisionID,
		Title:         poll.Title,
		Description:   poll.Description,
		Options:       make([]httptransport.PollOptionDTO, 0, len(poll.Options)),
		VotingStart:   poll.VotingStart.UTC().Format(time.RFC3339),
		VotingEnd:     poll.VotingEnd.UTC().Format(time.RFC3339),
		Status:        poll.Status.String(),
		RewardPerVote: poll.RewardPerVote,
		AutonomyLevel: poll.AutonomyLevel.String(),
	}
	for _, option := range poll.Options {
		dto.Options = append(dto.Options, httptransport.PollOptionDTO{
			OptionID:     option.OptionID,
			Position:     option.Position,
			Text:         option.Text,
			Impact:       option.Impact,
			Stakeholders: option.Stakeholders,
			VotesCount:   option.VotesCount,
		})
	}
	return dto
}

func mapBrake(brake entities.EmergencyBrake) httptransport.EmergencyBrakeResponse {
	resp := httptransport.EmergencyBrakeResponse{
		Active:      brake.Active,
		Reason:      brake.Reason,
		ActivatedBy: brake.ActivatedBy,
		Version:     brake.Version,
	}
	if brake.ActivatedAt != nil {
		resp.ActivatedAt = brake.ActivatedAt.UTC().Format(time.RFC3339)
	}
	if brake.ExpiresAt != nil {
		resp.ExpiresAt = brake.ExpiresAt.UTC().Format(time.RFC3339)
	}
	return resp
}

func mapSettings(settings entities.GovernanceSettings) httptransport.GovernanceSettingsResponse {
	return httptransport.GovernanceSettingsResponse{
		ConfidenceThreshold: settings.ConfidenceThreshold,
		VotingDurationHours: settings.VotingDurationHours,
		VoteCooldownHours:   settings.VoteCooldownHours,
		BaseReward:          settings.BaseReward,
		MinContextSeverity:  settings.MinContextSeverity,
		Version:             settings.Version,
	}
}

func mapDecision(decision entities.Decision) httptransport.DecisionResponse {
	return httptransport.DecisionResponse{
		DecisionID:         decision.DecisionID,
		ContextID:          decision.ContextID,
		Category:           string(decision.Category),
		Severity:           decision.Severity,
		Reasoning:          decision.Reasoning,
		Confidence:         decision.Confidence,
		RequiresGovernance: decision.RequiresGovernance,
		AutonomyLevel:      decision.AutonomyLevel.String(),
		PollID:             decision.PollID,
		Executed:           decision.Executed,
		SuccessScore:       decision.SuccessScore,
		Fallback:           decision.Fallback,
	}
}
