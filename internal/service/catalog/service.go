package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/dentalize/scheduler-api/internal/model"
	"github.com/dentalize/scheduler-api/internal/repository"
	apperrors "github.com/dentalize/scheduler-api/pkg/errors"
)

// Service manages the treatment catalog. Single entries are kept in a
// short-lived in-process cache because the scheduler consults them on
// every booking that defaults its end time.
type Service struct {
	repo  repository.ServiceRepository
	cache *gocache.Cache
}

func NewService(repo repository.ServiceRepository) *Service {
	return &Service{
		repo:  repo,
		cache: gocache.New(5*time.Minute, 10*time.Minute),
	}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	if cached, ok := s.cache.Get(id.String()); ok {
		return cached.(*model.Service), nil
	}

	svc, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cache.Set(id.String(), svc, gocache.DefaultExpiration)
	return svc, nil
}

func (s *Service) List(ctx context.Context) ([]*model.Service, error) {
	return s.repo.List(ctx)
}

func (s *Service) Create(ctx context.Context, req *model.CreateServiceRequest) (*model.Service, error) {
	color := req.Color
	if color == "" {
		color = model.DefaultServiceColor
	}

	svc := &model.Service{
		Name:        req.Name,
		Description: req.Description,
		Duration:    req.Duration,
		Price:       req.Price,
		Color:       color,
	}
	if err := s.repo.Create(ctx, svc); err != nil {
		return nil, err
	}
	return svc, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateServiceRequest) (*model.Service, error) {
	svc, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	svc.Name = req.Name
	svc.Description = req.Description
	svc.Duration = req.Duration
	svc.Price = req.Price
	if req.Color != "" {
		svc.Color = req.Color
	}

	if err := s.repo.Update(ctx, svc); err != nil {
		return nil, err
	}

	s.cache.Delete(id.String())
	return svc, nil
}

// Delete is idempotent: removing an already-removed entry succeeds.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if apperrors.IsCode(err, apperrors.ErrNotFound) {
			return nil
		}
		return err
	}

	s.cache.Delete(id.String())
	return nil
}
