package client

import (
	"context"

	"github.com/google/uuid"

	"github.com/dentalize/scheduler-api/internal/model"
	"github.com/dentalize/scheduler-api/internal/repository"
	apperrors "github.com/dentalize/scheduler-api/pkg/errors"
)

// Service manages patient records.
type Service struct {
	repo repository.ClientRepository
}

func NewService(repo repository.ClientRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Client, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*model.Client, error) {
	return s.repo.List(ctx)
}

func (s *Service) Create(ctx context.Context, req *model.CreateClientRequest) (*model.Client, error) {
	client := &model.Client{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		CPF:         req.CPF,
		Notes:       req.Notes,
		Description: req.Description,
	}
	if err := s.repo.Create(ctx, client); err != nil {
		return nil, err
	}
	return client, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateClientRequest) (*model.Client, error) {
	client, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	client.Name = req.Name
	client.Email = req.Email
	client.Phone = req.Phone
	client.CPF = req.CPF
	client.Notes = req.Notes
	client.Description = req.Description

	if err := s.repo.Update(ctx, client); err != nil {
		return nil, err
	}
	return client, nil
}

// Delete is idempotent: removing an already-removed record succeeds.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.repo.Delete(ctx, id)
	if err != nil && !apperrors.IsCode(err, apperrors.ErrNotFound) {
		return err
	}
	return nil
}
