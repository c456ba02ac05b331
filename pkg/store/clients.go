package store

import (
	"context"
	"errors"
	"net/url"

	"github.com/contractorkingdom/stl-admin/pkg/models"
)

// Clients reads and writes client records.
type Clients struct {
	store *Store
}

// List returns all clients, newest first.
func (r *Clients) List(ctx context.Context) ([]models.Client, error) {
	params := url.Values{}
	params.Set("select", "*")
	params.Set("order", "created_at.desc")
	params.Set("limit", "1000")

	clients := []models.Client{}
	if err := r.store.get(ctx, "ListClients", "clients", params, &clients); err != nil {
		return nil, err
	}

	return clients, nil
}

// GetByID fetches one client, returning ErrClientNotFound when absent.
func (r *Clients) GetByID(ctx context.Context, id string) (*models.Client, error) {
	params := url.Values{}
	params.Set("select", "*")
	params.Set("id", eq(id))
	params.Set("limit", "1")

	var rows []models.Client
	if err := r.store.get(ctx, "GetClient", "clients", params, &rows); err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, ErrClientNotFound
	}

	return &rows[0], nil
}

// GetByName fetches one client by its display name.
func (r *Clients) GetByName(ctx context.Context, name string) (*models.Client, error) {
	return r.getByColumn(ctx, "name", name)
}

// GetByBusinessName fetches one client by its business name.
func (r *Clients) GetByBusinessName(ctx context.Context, businessName string) (*models.Client, error) {
	return r.getByColumn(ctx, "business_name", businessName)
}

func (r *Clients) getByColumn(ctx context.Context, column, value string) (*models.Client, error) {
	params := url.Values{}
	params.Set("select", "*")
	params.Set(column, eq(value))
	params.Set("limit", "1")

	var rows []models.Client
	if err := r.store.get(ctx, "GetClient", "clients", params, &rows); err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, ErrClientNotFound
	}

	return &rows[0], nil
}

// Insert creates a client record with an explicit id.
func (r *Clients) Insert(ctx context.Context, client *models.Client) (*models.Client, error) {
	row := map[string]any{
		"id":             client.ID,
		"name":           client.Name,
		"business_name":  client.BusinessName,
		"owner_name":     client.OwnerName,
		"business_phone": client.BusinessPhone,
		"twilio_number":  client.TwilioNumber,
		"website":        client.Website,
	}

	if client.AgencyID != "" {
		row["agency_id"] = client.AgencyID
	}

	var created models.Client
	if err := r.store.insert(ctx, "InsertClient", "clients", row, &created); err != nil {
		return nil, err
	}

	return &created, nil
}

// Update patches the mutable fields of an existing client.
func (r *Clients) Update(ctx context.Context, id string, fields map[string]any) error {
	fields["updated_at"] = nowUTC()

	params := url.Values{}
	params.Set("id", eq(id))

	return r.store.update(ctx, "UpdateClient", "clients", params, fields, nil)
}

// Delete removes a client and every workflow row referencing it. The workflow
// rows are removed explicitly first so the cascade does not depend on the
// remote schema's ON DELETE rule.
func (r *Clients) Delete(ctx context.Context, id string) error {
	workflowParams := url.Values{}
	workflowParams.Set("client_id", eq(id))

	if err := r.store.delete(ctx, "DeleteClientWorkflows", "workflows", workflowParams); err != nil {
		// Tolerate an already-empty workflows table; anything else aborts
		// before touching the client row.
		var storeErr *StoreError
		if !errors.As(err, &storeErr) || storeErr.Code != codeMissingTable {
			return err
		}
	}

	params := url.Values{}
	params.Set("id", eq(id))

	return r.store.delete(ctx, "DeleteClient", "clients", params)
}

// Count returns the exact number of client rows.
func (r *Clients) Count(ctx context.Context) (int64, error) {
	return r.store.count(ctx, "CountClients", "clients")
}
