package service

import (
	"context"
	"strings"
	"time"

	orgdomain "github.com/smallbiznis/offerly/internal/organization/domain"
	"github.com/smallbiznis/offerly/internal/orgcontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo orgdomain.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo orgdomain.Repository
}

func NewService(p ServiceParam) orgdomain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("organization.service"),
		repo: p.Repo,
	}
}

func (s *Service) Get(ctx context.Context) (*orgdomain.Response, error) {
	org, err := s.resolve(ctx)
	if err != nil {
		return nil, err
	}
	return buildResponse(org), nil
}

func (s *Service) Update(ctx context.Context, req orgdomain.UpdateRequest) (*orgdomain.Response, error) {
	org, err := s.resolve(ctx)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, orgdomain.ErrInvalidName
		}
		org.Name = name
	}
	if req.Address != nil {
		org.Address = strings.TrimSpace(*req.Address)
	}
	if req.City != nil {
		org.City = strings.TrimSpace(*req.City)
	}
	if req.Country != nil {
		org.Country = strings.TrimSpace(*req.Country)
	}
	if req.TaxID != nil {
		org.TaxID = strings.TrimSpace(*req.TaxID)
	}
	if req.Email != nil {
		org.Email = strings.TrimSpace(*req.Email)
	}
	if req.Phone != nil {
		org.Phone = strings.TrimSpace(*req.Phone)
	}
	org.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, s.db, org); err != nil {
		return nil, err
	}
	return buildResponse(org), nil
}

func (s *Service) resolve(ctx context.Context) (*orgdomain.Organization, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, orgdomain.ErrInvalidOrganization
	}
	org, err := s.repo.FindByID(ctx, s.db, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, orgdomain.ErrNotFound
	}
	return org, nil
}

func buildResponse(org *orgdomain.Organization) *orgdomain.Response {
	return &orgdomain.Response{
		ID:      org.ID.String(),
		Name:    org.Name,
		Address: org.Address,
		City:    org.City,
		Country: org.Country,
		TaxID:   org.TaxID,
		Email:   org.Email,
		Phone:   org.Phone,
	}
}
