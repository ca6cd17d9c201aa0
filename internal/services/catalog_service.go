package services

import (
	"context"
	"log/slog"

	"eventhub/internal/backend"
	"eventhub/models"
	"eventhub/monitoring"
)

type CatalogService struct {
	backend backend.Client
	monitor *monitoring.Monitor
}

func NewCatalogService(client backend.Client, monitor *monitoring.Monitor) *CatalogService {
	return &CatalogService{backend: client, monitor: monitor}
}

// ListEvents returns the events matching filter. A failed query is logged
// and shows up as an empty catalog.
func (s *CatalogService) ListEvents(ctx context.Context, filter models.EventFilter) []*models.Event {
	events, err := s.backend.ListEvents(ctx, filter)
	if err != nil {
		slog.Error("Failed to list events", "search", filter.Search, "category", filter.Category, "error", err)
		s.monitor.TrackCatalogQuery("error")
		return []*models.Event{}
	}

	s.monitor.TrackCatalogQuery("ok")
	return events
}

func (s *CatalogService) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	return s.backend.GetEvent(ctx, id)
}
