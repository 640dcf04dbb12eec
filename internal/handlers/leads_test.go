package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relaycrm/api/internal/middleware"
	"relaycrm/api/internal/models"
	"relaycrm/api/internal/repository"
	"relaycrm/api/internal/service"
)

type memLeadStore struct {
	leads  map[string]models.Lead
	nextID int
	clock  time.Time
}

func newMemLeadStore() *memLeadStore {
	return &memLeadStore{
		leads: make(map[string]models.Lead),
		clock: time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
}

// List matches the store's contract: newest created first.
func (s *memLeadStore) List(_ context.Context, ownerID string) ([]models.Lead, error) {
	var out []models.Lead
	for _, lead := range s.leads {
		if lead.OwnerID == ownerID {
			out = append(out, lead)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *memLeadStore) GetByID(_ context.Context, id string) (models.Lead, error) {
	lead, ok := s.leads[id]
	if !ok {
		return models.Lead{}, repository.ErrLeadNotFound
	}
	return lead, nil
}

func (s *memLeadStore) Create(_ context.Context, lead models.Lead) (models.Lead, error) {
	s.nextID++
	lead.ID = string(rune('a' + s.nextID - 1))
	if lead.Status == "" {
		lead.Status = models.LeadStatusNew
	}
	s.clock = s.clock.Add(time.Second)
	lead.CreatedAt = s.clock
	lead.UpdatedAt = s.clock
	s.leads[lead.ID] = lead
	return lead, nil
}

func (s *memLeadStore) Update(_ context.Context, id string, update models.LeadUpdate) (models.Lead, error) {
	lead, ok := s.leads[id]
	if !ok {
		return models.Lead{}, repository.ErrLeadNotFound
	}
	if update.FirstName != nil {
		lead.FirstName = *update.FirstName
	}
	if update.Status != nil {
		lead.Status = *update.Status
	}
	if update.Value != nil {
		lead.Value = *update.Value
	}
	lead.UpdatedAt = time.Now().UTC()
	s.leads[id] = lead
	return lead, nil
}

func (s *memLeadStore) UpdateStatus(_ context.Context, id string, status models.LeadStatus) error {
	lead, ok := s.leads[id]
	if !ok {
		return repository.ErrLeadNotFound
	}
	lead.Status = status
	s.leads[id] = lead
	return nil
}

func (s *memLeadStore) Delete(_ context.Context, id string) error {
	if _, ok := s.leads[id]; !ok {
		return repository.ErrLeadNotFound
	}
	delete(s.leads, id)
	return nil
}

type memClientStore struct {
	clients map[string]models.Client
	nextID  int
}

func newMemClientStore() *memClientStore {
	return &memClientStore{clients: make(map[string]models.Client)}
}

func (s *memClientStore) Create(_ context.Context, client models.Client) (models.Client, error) {
	s.nextID++
	client.ID = string(rune('A' + s.nextID - 1))
	s.clients[client.ID] = client
	return client, nil
}

func (s *memClientStore) Delete(_ context.Context, id string) error {
	delete(s.clients, id)
	return nil
}

// asUser replaces the auth middleware so handler behavior can be exercised
// without a database-backed session.
func asUser(user models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUser, user)
		c.Next()
	}
}

func newLeadTestRouter(leads *memLeadStore, clients *memClientStore, user models.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := HandlerSet{
		log:       zerolog.Nop(),
		leads:     leads,
		converter: service.NewConversionService(leads, clients, zerolog.Nop()),
	}

	engine := gin.New()
	group := engine.Group("/v1/leads")
	group.Use(asUser(user))
	group.GET("", h.ListLeads)
	group.POST("", h.CreateLead)
	group.GET("/:id", h.GetLead)
	group.PATCH("/:id", h.UpdateLead)
	group.DELETE("/:id", h.DeleteLead)
	group.POST("/:id/convert", h.ConvertLead)
	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestCreateAndGetLead(t *testing.T) {
	user := models.User{ID: "user-1", Email: "ada@example.com"}
	engine := newLeadTestRouter(newMemLeadStore(), newMemClientStore(), user)

	rec := doJSON(t, engine, http.MethodPost, "/v1/leads", gin.H{
		"firstName": "Grace",
		"lastName":  "Hopper",
		"email":     "grace@example.com",
		"company":   "Navy",
		"value":     2500,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		Lead leadResponse `json:"lead"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "user-1", created.Lead.OwnerID)
	assert.Equal(t, "new", created.Lead.Status)
	assert.NotNil(t, created.Lead.Tags)

	rec = doJSON(t, engine, http.MethodGet, "/v1/leads/"+created.Lead.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestListLeadsNewestFirst(t *testing.T) {
	leads := newMemLeadStore()
	engine := newLeadTestRouter(leads, newMemClientStore(), models.User{ID: "user-1"})

	var createdIDs []string
	for _, name := range []string{"First", "Second", "Third"} {
		lead, err := leads.Create(context.Background(), models.Lead{
			OwnerID:   "user-1",
			FirstName: name,
			Email:     name + "@example.com",
		})
		require.NoError(t, err)
		createdIDs = append(createdIDs, lead.ID)
	}

	rec := doJSON(t, engine, http.MethodGet, "/v1/leads", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Leads []leadResponse `json:"leads"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Leads, 3)

	// Most recently created comes back first.
	assert.Equal(t, createdIDs[2], resp.Leads[0].ID)
	assert.Equal(t, createdIDs[1], resp.Leads[1].ID)
	assert.Equal(t, createdIDs[0], resp.Leads[2].ID)
}

func TestCreateLeadValidation(t *testing.T) {
	user := models.User{ID: "user-1"}
	engine := newLeadTestRouter(newMemLeadStore(), newMemClientStore(), user)

	// Missing required email.
	rec := doJSON(t, engine, http.MethodPost, "/v1/leads", gin.H{"firstName": "Grace"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown status value.
	rec = doJSON(t, engine, http.MethodPost, "/v1/leads", gin.H{
		"firstName": "Grace",
		"email":     "grace@example.com",
		"status":    "lost",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetLeadHidesOtherOwners(t *testing.T) {
	leads := newMemLeadStore()
	other, err := leads.Create(context.Background(), models.Lead{OwnerID: "user-2", FirstName: "X", Email: "x@example.com"})
	require.NoError(t, err)

	engine := newLeadTestRouter(leads, newMemClientStore(), models.User{ID: "user-1"})

	rec := doJSON(t, engine, http.MethodGet, "/v1/leads/"+other.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteLead(t *testing.T) {
	leads := newMemLeadStore()
	lead, err := leads.Create(context.Background(), models.Lead{OwnerID: "user-1", FirstName: "G", Email: "g@example.com"})
	require.NoError(t, err)

	engine := newLeadTestRouter(leads, newMemClientStore(), models.User{ID: "user-1"})

	rec := doJSON(t, engine, http.MethodDelete, "/v1/leads/"+lead.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, engine, http.MethodDelete, "/v1/leads/"+lead.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConvertLeadEndpoint(t *testing.T) {
	leads := newMemLeadStore()
	clients := newMemClientStore()
	lead, err := leads.Create(context.Background(), models.Lead{
		OwnerID:   "user-1",
		FirstName: "Grace",
		LastName:  "Hopper",
		Email:     "grace@example.com",
		Status:    models.LeadStatusQualified,
	})
	require.NoError(t, err)

	engine := newLeadTestRouter(leads, clients, models.User{ID: "user-1"})

	rec := doJSON(t, engine, http.MethodPost, "/v1/leads/"+lead.ID+"/convert", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Client clientResponse `json:"client"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Grace Hopper", resp.Client.Name)
	assert.Equal(t, "active", resp.Client.Status)

	updated, err := leads.GetByID(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LeadStatusConverted, updated.Status)
}
