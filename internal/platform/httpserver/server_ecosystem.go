package httpserver

import (
	"errors"
	"net/http"

	girthdomainerrors "girthgov/contexts/ecosystem-health/girth-index-service/domain/errors"
	girthhttp "girthgov/contexts/ecosystem-health/girth-index-service/transport/http"
)

func (s *Server) handleIngestEvents(w http.ResponseWriter, r *http.Request) {
	var req girthhttp.IngestEventsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeEcosystemError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.modules.Girth.Handler.IngestEventsHandler(r.Context(), req)
	if err != nil {
		s.writeEcosystemDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, resp)
}

func (s *Server) handleGetGirthIndex(w http.ResponseWriter, r *http.Request) {
	resp, err := s.modules.Girth.Handler.GetGirthIndexHandler(r.Context())
	if err != nil {
		s.writeEcosystemDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListMetrics(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(r)
	if !ok {
		writeEcosystemError(w, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative integer")
		return
	}
	resp, err := s.modules.Girth.Handler.ListMetricsHandler(r.Context(), r.URL.Query().Get("type"), limit)
	if err != nil {
		s.writeEcosystemDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeEcosystemDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, girthdomainerrors.ErrInvalidEventInput),
		errors.Is(err, girthdomainerrors.ErrInvalidMetricType):
		writeEcosystemError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, girthdomainerrors.ErrEventBatchTooLarge):
		writeEcosystemError(w, http.StatusRequestEntityTooLarge, "batch_too_large", err.Error())
	case errors.Is(err, girthdomainerrors.ErrIndexNotFound):
		writeEcosystemError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, girthdomainerrors.ErrVersionConflict),
		errors.Is(err, girthdomainerrors.ErrConflict):
		writeEcosystemError(w, http.StatusConflict, "conflict", err.Error())
	default:
		s.logger.Error("ecosystem request failed",
			"event", "http_ecosystem_request_failed",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"error", err.Error(),
		)
		writeEcosystemError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeEcosystemError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, girthhttp.ErrorResponse{Code: code, Message: message})
}
