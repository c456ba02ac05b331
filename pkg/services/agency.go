package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/contractorkingdom/stl-admin/pkg/models"
)

// Agencies serves reads and creates of agency records.
type Agencies struct {
	agencies AgencyStore
	logger   *slog.Logger
}

func NewAgencies(agencies AgencyStore, logger *slog.Logger) *Agencies {
	return &Agencies{
		agencies: agencies,
		logger:   logger,
	}
}

// List returns all agencies ordered by name, without credential fields.
func (a *Agencies) List(ctx context.Context) ([]models.Agency, error) {
	return a.agencies.List(ctx)
}

// Create stores a new agency. All fields are trimmed; a duplicate name
// surfaces as a conflict from the store.
func (a *Agencies) Create(ctx context.Context, agency *models.Agency) (*models.Agency, error) {
	agency.Name = strings.TrimSpace(agency.Name)
	agency.N8NInstanceURL = strings.TrimSpace(agency.N8NInstanceURL)
	agency.N8NAPIKey = strings.TrimSpace(agency.N8NAPIKey)
	agency.OpenAIAPIKey = strings.TrimSpace(agency.OpenAIAPIKey)
	agency.TwilioAPIKey = strings.TrimSpace(agency.TwilioAPIKey)

	created, err := a.agencies.Insert(ctx, agency)
	if err != nil {
		return nil, err
	}

	a.logger.Info("created agency", "agency_id", created.ID, "name", created.Name)

	return created, nil
}
