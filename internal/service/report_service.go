package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"relaycrm/api/internal/models"
)

type reportLeadLister interface {
	List(ctx context.Context, ownerID string) ([]models.Lead, error)
}

type reportClientLister interface {
	List(ctx context.Context, ownerID string) ([]models.Client, error)
}

type reportProjectLister interface {
	List(ctx context.Context, ownerID string) ([]models.Project, error)
}

// ReportService computes the dashboard summary from the full owned entity
// sets. The three fetches run concurrently and are joined before any
// computation. Results are cached per owner with a short TTL; cache failures
// never fail the request.
type ReportService struct {
	leads    reportLeadLister
	clients  reportClientLister
	projects reportProjectLister
	cache    *redis.Client
	cacheTTL time.Duration
	log      zerolog.Logger
}

func NewReportService(
	leads reportLeadLister,
	clients reportClientLister,
	projects reportProjectLister,
	cache *redis.Client,
	cacheTTL time.Duration,
	log zerolog.Logger,
) *ReportService {
	return &ReportService{
		leads:    leads,
		clients:  clients,
		projects: projects,
		cache:    cache,
		cacheTTL: cacheTTL,
		log:      log,
	}
}

func (s *ReportService) Summary(ctx context.Context, ownerID string) (models.ReportSummary, error) {
	cacheKey := fmt.Sprintf("reports:summary:%s", ownerID)

	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, cacheKey).Bytes(); err == nil {
			var cached models.ReportSummary
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		}
	}

	var (
		leads    []models.Lead
		clients  []models.Client
		projects []models.Project
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		leads, err = s.leads.List(gctx, ownerID)
		return err
	})
	g.Go(func() error {
		var err error
		clients, err = s.clients.List(gctx, ownerID)
		return err
	})
	g.Go(func() error {
		var err error
		projects, err = s.projects.List(gctx, ownerID)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.ReportSummary{}, err
	}

	summary := buildSummary(leads, clients, projects)

	if s.cache != nil {
		if raw, err := json.Marshal(summary); err == nil {
			if err := s.cache.Set(ctx, cacheKey, raw, s.cacheTTL).Err(); err != nil {
				s.log.Warn().Err(err).Str("owner_id", ownerID).Msg("cache report summary failed")
			}
		}
	}

	return summary, nil
}

func buildSummary(leads []models.Lead, clients []models.Client, projects []models.Project) models.ReportSummary {
	summary := models.ReportSummary{
		TotalLeads: len(leads),
		Projects:   make(map[models.ProjectStatus]int),
	}
	for i := range summary.Months {
		summary.Months[i].Leads = make(map[models.LeadStatus]int)
	}

	converted := 0
	for _, lead := range leads {
		if lead.Status == models.LeadStatusConverted {
			converted++
		}
		if lead.Status != models.LeadStatusNew && lead.Status != models.LeadStatusConverted {
			summary.InProgressLeads++
		}
		month := int(lead.CreatedAt.Month()) - 1
		summary.Months[month].Leads[lead.Status]++
	}
	if summary.TotalLeads > 0 {
		summary.ConversionRate = int(math.Round(float64(converted) / float64(summary.TotalLeads) * 100))
	}

	var dealTotal float64
	dealCount := 0
	for _, client := range clients {
		if client.Status == models.ClientStatusActive {
			summary.ActiveClients++
		}
		month := int(client.CreatedAt.Month()) - 1
		if client.ContractValue != nil {
			summary.Months[month].ContractValue += *client.ContractValue
			if *client.ContractValue > 0 {
				dealTotal += *client.ContractValue
				dealCount++
			}
		}
	}
	if dealCount > 0 {
		summary.AverageDealSize = math.Round(dealTotal / float64(dealCount))
	}

	for _, project := range projects {
		summary.Projects[project.Status]++
	}

	return summary
}
