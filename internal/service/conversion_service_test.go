package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relaycrm/api/internal/models"
	"relaycrm/api/internal/repository"
)

type fakeConversionLeads struct {
	lead          models.Lead
	getErr        error
	updateErr     error
	updatedStatus models.LeadStatus
	updateCalls   int
}

func (f *fakeConversionLeads) GetByID(_ context.Context, id string) (models.Lead, error) {
	if f.getErr != nil {
		return models.Lead{}, f.getErr
	}
	return f.lead, nil
}

func (f *fakeConversionLeads) UpdateStatus(_ context.Context, _ string, status models.LeadStatus) error {
	f.updateCalls++
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updatedStatus = status
	return nil
}

type fakeConversionClients struct {
	created   []models.Client
	deleted   []string
	createErr error
	deleteErr error
	nextID    string
}

func (f *fakeConversionClients) Create(_ context.Context, client models.Client) (models.Client, error) {
	if f.createErr != nil {
		return models.Client{}, f.createErr
	}
	client.ID = f.nextID
	f.created = append(f.created, client)
	return client, nil
}

func (f *fakeConversionClients) Delete(_ context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func testLead() models.Lead {
	return models.Lead{
		ID:        "lead-1",
		OwnerID:   "user-1",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Phone:     "555-0100",
		Company:   "Analytical Engines",
		Status:    models.LeadStatusQualified,
	}
}

func TestConvertCreatesClientAndMarksLead(t *testing.T) {
	leads := &fakeConversionLeads{lead: testLead()}
	clients := &fakeConversionClients{nextID: "client-1"}
	svc := NewConversionService(leads, clients, zerolog.Nop())

	client, err := svc.Convert(context.Background(), "lead-1", "user-1")
	require.NoError(t, err)

	assert.Equal(t, "client-1", client.ID)
	assert.Equal(t, "user-1", client.OwnerID)
	assert.Equal(t, "Ada Lovelace", client.Name)
	assert.Equal(t, "ada@example.com", client.Email)
	assert.Equal(t, models.ClientStatusActive, client.Status)
	require.NotNil(t, client.ConvertedFromLeadID)
	assert.Equal(t, "lead-1", *client.ConvertedFromLeadID)

	assert.Equal(t, models.LeadStatusConverted, leads.updatedStatus)
	assert.Empty(t, clients.deleted)
}

func TestConvertMissingLeadWritesNothing(t *testing.T) {
	leads := &fakeConversionLeads{getErr: repository.ErrLeadNotFound}
	clients := &fakeConversionClients{nextID: "client-1"}
	svc := NewConversionService(leads, clients, zerolog.Nop())

	_, err := svc.Convert(context.Background(), "missing", "user-1")
	require.ErrorIs(t, err, repository.ErrLeadNotFound)

	assert.Empty(t, clients.created)
	assert.Zero(t, leads.updateCalls)
}

func TestConvertCompensatesFailedLeadUpdate(t *testing.T) {
	leads := &fakeConversionLeads{lead: testLead(), updateErr: errors.New("store down")}
	clients := &fakeConversionClients{nextID: "client-1"}
	svc := NewConversionService(leads, clients, zerolog.Nop())

	_, err := svc.Convert(context.Background(), "lead-1", "user-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrConversionIncomplete)

	require.Len(t, clients.created, 1)
	assert.Equal(t, []string{"client-1"}, clients.deleted)
}

func TestConvertReportsIncompleteWhenCompensationFails(t *testing.T) {
	leads := &fakeConversionLeads{lead: testLead(), updateErr: errors.New("store down")}
	clients := &fakeConversionClients{nextID: "client-1", deleteErr: errors.New("also down")}
	svc := NewConversionService(leads, clients, zerolog.Nop())

	_, err := svc.Convert(context.Background(), "lead-1", "user-1")
	require.ErrorIs(t, err, ErrConversionIncomplete)
	assert.Contains(t, err.Error(), "client-1")
}
