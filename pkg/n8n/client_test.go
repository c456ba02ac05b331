package n8n_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/contractorkingdom/stl-admin/pkg/n8n"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*n8n.Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return n8n.NewClient(server.URL, "test-key", slog.Default()), server
}

func TestClient_SendsAPIKeyHeader(t *testing.T) {
	t.Parallel()

	var gotKey string

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-N8N-API-KEY")
		_, _ = w.Write([]byte(`{"id": "wf-1", "name": "Test"}`))
	})

	_, err := client.GetWorkflow(context.Background(), "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "test-key", gotKey)
}

func TestClient_ListWorkflows_AcceptedShapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want int
	}{
		{"bare array", `[{"id": "a", "name": "A"}, {"id": "b", "name": "B"}]`, 2},
		{"data envelope", `{"data": [{"id": "a", "name": "A"}]}`, 1},
		{"workflows envelope", `{"workflows": [{"id": "a", "name": "A"}]}`, 1},
		{"empty array", `[]`, 0},
		{"empty data envelope", `{"data": []}`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/v1/workflows", r.URL.Path)
				_, _ = w.Write([]byte(tt.body))
			})

			workflows, err := client.ListWorkflows(context.Background())
			require.NoError(t, err)
			assert.Len(t, workflows, tt.want)
		})
	}
}

func TestClient_ListWorkflows_UnexpectedShape(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"items": []}`))
	})

	_, err := client.ListWorkflows(context.Background())
	assert.ErrorIs(t, err, n8n.ErrUnexpectedListFormat)
}

func TestClient_CreateWorkflow_PayloadOmitsServerOwnedFields(t *testing.T) {
	t.Parallel()

	var payload map[string]any

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		_, _ = w.Write([]byte(`{"id": "created-1", "name": "Acme - STL"}`))
	})

	doc := &n8n.Document{
		ID:     "should-not-be-sent",
		Name:   "Acme - STL",
		Active: true,
		Nodes:  []n8n.Node{{"name": "Lead Form", "type": n8n.NodeTypeWebhook}},
	}

	created, err := client.CreateWorkflow(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "created-1", created.ID)

	assert.NotContains(t, payload, "id")
	assert.NotContains(t, payload, "active")
	assert.NotContains(t, payload, "createdAt")
	assert.Equal(t, "Acme - STL", payload["name"])

	// Absent collections are sent as empty objects, not omitted.
	assert.Equal(t, map[string]any{}, payload["connections"])
	assert.Equal(t, map[string]any{}, payload["settings"])
}

func TestClient_CreateWorkflow_MissingIDInResponse(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"name": "No ID"}`))
	})

	_, err := client.CreateWorkflow(context.Background(), &n8n.Document{Name: "No ID"})
	assert.ErrorIs(t, err, n8n.ErrMissingWorkflowID)
}

func TestClient_GetWorkflow_NotFound(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.GetWorkflow(context.Background(), "missing")
	assert.ErrorIs(t, err, n8n.ErrWorkflowNotFound)
	assert.True(t, n8n.IsNotFound(err))
}

func TestClient_UpstreamErrorCarriesStatusAndBody(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`upstream exploded`))
	})

	_, err := client.GetWorkflow(context.Background(), "wf-1")

	apiErr, ok := n8n.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Contains(t, apiErr.Body, "upstream exploded")
}

func TestClient_SetActive(t *testing.T) {
	t.Parallel()

	var (
		gotMethod string
		gotPath   string
		gotBody   map[string]bool
	)

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{}`))
	})

	require.NoError(t, client.SetActive(context.Background(), "wf-1", true))
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/api/v1/workflows/wf-1", gotPath)
	assert.Equal(t, map[string]bool{"active": true}, gotBody)
}

func TestClient_Activate(t *testing.T) {
	t.Parallel()

	var gotPath string

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.Equal(t, http.MethodPost, r.Method)
		_, _ = w.Write([]byte(`{}`))
	})

	require.NoError(t, client.Activate(context.Background(), "wf-1"))
	assert.Equal(t, "/api/v1/workflows/wf-1/activate", gotPath)
}

func TestClient_URLHelpers(t *testing.T) {
	t.Parallel()

	client := n8n.NewClient("https://n8n.test/", "key", slog.Default())

	assert.Equal(t, "https://n8n.test", client.BaseURL())
	assert.Equal(t, "https://n8n.test/workflow/wf-1", client.EditorURL("wf-1"))
	assert.Equal(t, "https://n8n.test/webhook/hook-1", client.WebhookURL("hook-1"))
}
