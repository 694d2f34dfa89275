package httpserver

import (
	"errors"
	"net/http"

	decisiondomainerrors "girthgov/contexts/governance/decision-engine/domain/errors"
	decisionhttp "girthgov/contexts/governance/decision-engine/transport/http"
)

func (s *Server) handleApprovePoll(w http.ResponseWriter, r *http.Request, actorID string) {
	var req decisionhttp.ApprovePollRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeGovernanceError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
			return
		}
	}
	resp, err := s.modules.Decisions.Handler.ApprovePollHandler(r.Context(), actorID, r.PathValue("poll_id"), req)
	if err != nil {
		s.writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRejectPoll(w http.ResponseWriter, r *http.Request, actorID string) {
	var req decisionhttp.RejectPollRequest
	if err := decodeJSON(r, &req); err != nil {
		writeGovernanceError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.modules.Decisions.Handler.RejectPollHandler(r.Context(), actorID, r.PathValue("poll_id"), req)
	if err != nil {
		s.writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleOverridePoll(w http.ResponseWriter, r *http.Request, actorID string) {
	var req decisionhttp.OverridePollRequest
	if err := decodeJSON(r, &req); err != nil {
		writeGovernanceError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.modules.Decisions.Handler.OverridePollHandler(r.Context(), actorID, r.PathValue("poll_id"), req)
	if err != nil {
		s.writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEmergencyBrake(w http.ResponseWriter, r *http.Request, actorID string) {
	var req decisionhttp.EmergencyBrakeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeGovernanceError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.modules.Decisions.Handler.EmergencyBrakeHandler(r.Context(), actorID, req)
	if err != nil {
		s.writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetEmergencyBrake(w http.ResponseWriter, r *http.Request, _ string) {
	resp, err := s.modules.Decisions.Handler.GetEmergencyBrakeHandler(r.Context())
	if err != nil {
		s.writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request, actorID string) {
	var req decisionhttp.UpdateConfigRequest
	if err := decodeJSON(r, &req); err != nil {
		writeGovernanceError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.modules.Decisions.Handler.UpdateConfigHandler(r.Context(), actorID, req)
	if err != nil {
		s.writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request, _ string) {
	resp, err := s.modules.Decisions.Handler.GetConfigHandler(r.Context())
	if err != nil {
		s.writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleScoreDecision(w http.ResponseWriter, r *http.Request, actorID string) {
	var req decisionhttp.ScoreDecisionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeGovernanceError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.modules.Decisions.Handler.ScoreDecisionHandler(r.Context(), actorID, r.PathValue("decision_id"), req)
	if err != nil {
		s.writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetDecision(w http.ResponseWriter, r *http.Request, _ string) {
	resp, err := s.modules.Decisions.Handler.GetDecisionHandler(r.Context(), r.PathValue("decision_id"))
	if err != nil {
		s.writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListAdminActions(w http.ResponseWriter, r *http.Request, _ string) {
	limit, ok := parseLimit(r)
	if !ok {
		writeGovernanceError(w, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative integer")
		return
	}
	resp, err := s.modules.Decisions.Handler.ListAdminActionsHandler(r.Context(), limit)
	if err != nil {
		s.writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLearningReport(w http.ResponseWriter, r *http.Request, _ string) {
	limit, ok := parseLimit(r)
	if !ok {
		writeGovernanceError(w, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative integer")
		return
	}
	resp, err := s.modules.Decisions.Handler.LearningReportHandler(r.Context(), limit)
	if err != nil {
		s.writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRunStage(w http.ResponseWriter, r *http.Request, actorID string) {
	if s.opts.Stages == nil {
		writeGovernanceError(w, http.StatusServiceUnavailable, "stages_unavailable", "stage runner is not configured")
		return
	}
	stage := r.PathValue("stage")
	report, err := s.opts.Stages.RunStage(r.Context(), stage)
	if err != nil && report.Stage == "" {
		s.writeGovernanceDomainError(w, err)
		return
	}
	s.logger.Info("pipeline stage triggered",
		"event", "http_stage_triggered",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"stage", stage,
		"actor_id", actorID,
		"skipped", report.Skipped,
	)
	status := http.StatusOK
	if err != nil {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, report)
}

func (s *Server) writeGovernanceDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, decisiondomainerrors.ErrPollNotFound),
		errors.Is(err, decisiondomainerrors.ErrDecisionNotFound),
		errors.Is(err, decisiondomainerrors.ErrContextNotFound),
		errors.Is(err, decisiondomainerrors.ErrUnknownStage):
		writeGovernanceError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, decisiondomainerrors.ErrInvalidOverride),
		errors.Is(err, decisiondomainerrors.ErrInvalidConfigChange),
		errors.Is(err, decisiondomainerrors.ErrInvalidBrakeRequest),
		errors.Is(err, decisiondomainerrors.ErrInvalidScore),
		errors.Is(err, decisiondomainerrors.ErrInvalidAdminInput),
		errors.Is(err, decisiondomainerrors.ErrInvalidProposal):
		writeGovernanceError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, decisiondomainerrors.ErrPollAlreadyClosed),
		errors.Is(err, decisiondomainerrors.ErrInvalidTransition):
		writeGovernanceError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, decisiondomainerrors.ErrDecisionAlreadyLinked),
		errors.Is(err, decisiondomainerrors.ErrVersionConflict),
		errors.Is(err, decisiondomainerrors.ErrConflict):
		writeGovernanceError(w, http.StatusConflict, "conflict", err.Error())
	default:
		s.logger.Error("governance request failed",
			"event", "http_governance_request_failed",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"error", err.Error(),
		)
		writeGovernanceError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
