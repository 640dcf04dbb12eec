package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"relaycrm/api/internal/models"
)

// ErrConversionIncomplete reports the partial-failure case where the client
// row was created but the lead could not be marked converted and the
// compensating delete of the client also failed. Callers can distinguish this
// from a failure where nothing was written.
var ErrConversionIncomplete = errors.New("conversion incomplete")

type conversionLeadStore interface {
	GetByID(ctx context.Context, id string) (models.Lead, error)
	UpdateStatus(ctx context.Context, id string, status models.LeadStatus) error
}

type conversionClientStore interface {
	Create(ctx context.Context, client models.Client) (models.Client, error)
	Delete(ctx context.Context, id string) error
}

// ConversionService turns a lead into a client and marks the lead converted.
// The two writes are not transactional; a failed lead update is compensated
// by deleting the just-created client.
type ConversionService struct {
	leads   conversionLeadStore
	clients conversionClientStore
	log     zerolog.Logger
}

func NewConversionService(leads conversionLeadStore, clients conversionClientStore, log zerolog.Logger) *ConversionService {
	return &ConversionService{
		leads:   leads,
		clients: clients,
		log:     log,
	}
}

func (s *ConversionService) Convert(ctx context.Context, leadID string, actingUserID string) (models.Client, error) {
	lead, err := s.leads.GetByID(ctx, leadID)
	if err != nil {
		return models.Client{}, err
	}

	client, err := s.clients.Create(ctx, models.Client{
		OwnerID:             actingUserID,
		Name:                lead.FullName(),
		Email:               lead.Email,
		Phone:               lead.Phone,
		Company:             lead.Company,
		Status:              models.ClientStatusActive,
		ConvertedFromLeadID: &lead.ID,
	})
	if err != nil {
		return models.Client{}, err
	}

	if err := s.leads.UpdateStatus(ctx, leadID, models.LeadStatusConverted); err != nil {
		if compErr := s.clients.Delete(ctx, client.ID); compErr != nil {
			s.log.Error().Err(compErr).
				Str("lead_id", leadID).
				Str("client_id", client.ID).
				Msg("conversion compensation failed")
			return models.Client{}, fmt.Errorf("%w: lead %s not updated, orphan client %s: %v",
				ErrConversionIncomplete, leadID, client.ID, err)
		}
		return models.Client{}, err
	}

	return client, nil
}
