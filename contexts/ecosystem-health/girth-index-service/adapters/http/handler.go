package httpadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"girthgov/contexts/ecosystem-health/girth-index-service/application/commands"
	"girthgov/contexts/ecosystem-health/girth-index-service/application/queries"
	"girthgov/contexts/ecosystem-health/girth-index-service/domain/entities"
	domainerrors "girthgov/contexts/ecosystem-health/girth-index-service/domain/errors"
	httptransport "girthgov/contexts/ecosystem-health/girth-index-service/transport/http"
)

type Handler struct {
	IngestEvents commands.IngestEventsUseCase
	Queries      queries.IndexQueries
	Logger       *slog.Logger
}

func (h Handler) IngestEventsHandler(
	ctx context.Context,
	req httptransport.IngestEventsRequest,
) (httptransport.IngestEventsResponse, error) {
	inputs := make([]commands.EventInput, 0, len(req.Events))
	for _, item := range req.Events {
		var occurredAt time.Time
		if raw := strings.TrimSpace(item.OccurredAt); raw != "" {
			parsed, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return httptransport.IngestEventsResponse{}, domainerrors.ErrInvalidEventInput
			}
			occurredAt = parsed
		}
		inputs = append(inputs, commands.EventInput{
			EventID:        item.EventID,
			Wallet:         item.Wallet,
			SessionID:      item.SessionID,
			Type:           item.EventType,
			Taps:           item.Taps,
			EvolutionLevel: item.EvolutionLevel,
			OccurredAt:     occurredAt,
		})
	}
	result, err := h.IngestEvents.Execute(ctx, commands.IngestEventsCommand{Events: inputs})
	if err != nil {
		return httptransport.IngestEventsResponse{}, err
	}
	return httptransport.IngestEventsResponse{
		Accepted:   result.Accepted,
		Duplicates: result.Duplicates,
	}, nil
}

func (h Handler) GetGirthIndexHandler(ctx context.Context) (httptransport.GirthIndexResponse, error) {
	idx, err := h.Queries.CurrentIndex(ctx)
	if err != nil {
		return httptransport.GirthIndexResponse{}, err
	}
	return httptransport.GirthIndexResponse{Index: mapIndex(idx)}, nil
}

func (h Handler) ListMetricsHandler(
	ctx context.Context,
	metricType string,
	limit int,
) (httptransport.ListMetricsResponse, error) {
	items, err := h.Queries.RecentMetrics(ctx, strings.TrimSpace(metricType), limit)
	if err != nil {
		return httptransport.ListMetricsResponse{}, err
	}
	resp := httptransport.ListMetricsResponse{Items: make([]httptransport.EcosystemMetricDTO, 0, len(items))}
	for _, item := range items {
		resp.Items = append(resp.Items, httptransport.EcosystemMetricDTO{
			MetricID:      item.MetricID,
			MetricType:    string(item.Type),
			Value:         item.Value,
			RawValue:      item.RawValue,
			PreviousValue: item.PreviousValue,
			Severity:      item.Severity,
			Source:        item.Source,
			Timestamp:     item.Timestamp.UTC().Format(time.RFC3339),
		})
	}
	return resp, nil
}

func mapIndex(idx entities.GirthIndex) httptransport.GirthIndexDTO {
	return httptransport.GirthIndexDTO{
		Resonance:       idx.Resonance,
		TapSurge:        idx.TapSurge.String(),
		LegionMorale:    idx.LegionMorale.String(),
		OracleStability: idx.OracleStability.String(),
		LastUpdated:     idx.LastUpdated.UTC().Format(time.RFC3339),
		Version:         idx.Version,
	}
}
