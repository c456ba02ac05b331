package store

import (
	"context"
	"net/url"

	"github.com/contractorkingdom/stl-admin/pkg/models"
)

// Agencies reads and writes agency records.
type Agencies struct {
	store *Store
}

// List returns all agencies ordered by name. API-key columns are never
// selected here; listings only expose the instance URL.
func (r *Agencies) List(ctx context.Context) ([]models.Agency, error) {
	params := url.Values{}
	params.Set("select", "id,name,n8n_instance_url,created_at,updated_at")
	params.Set("order", "name.asc")

	agencies := []models.Agency{}
	if err := r.store.get(ctx, "ListAgencies", "agencies", params, &agencies); err != nil {
		return nil, err
	}

	return agencies, nil
}

// Insert creates an agency and returns the stored row. A duplicate name
// surfaces as ErrConflict via the store's unique constraint.
func (r *Agencies) Insert(ctx context.Context, agency *models.Agency) (*models.Agency, error) {
	row := map[string]any{
		"name":             agency.Name,
		"n8n_instance_url": agency.N8NInstanceURL,
		"n8n_api_key":      agency.N8NAPIKey,
		"openai_api_key":   agency.OpenAIAPIKey,
		"twilio_api_key":   agency.TwilioAPIKey,
	}

	var created models.Agency
	if err := r.store.insert(ctx, "InsertAgency", "agencies", row, &created); err != nil {
		return nil, err
	}

	return &created, nil
}
