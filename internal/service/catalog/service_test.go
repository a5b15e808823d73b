package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dentalize/scheduler-api/internal/model"
	apperrors "github.com/dentalize/scheduler-api/pkg/errors"
)

type fakeServiceRepo struct {
	services map[uuid.UUID]*model.Service
	gets     int
}

func newFakeServiceRepo() *fakeServiceRepo {
	return &fakeServiceRepo{services: make(map[uuid.UUID]*model.Service)}
}

func (r *fakeServiceRepo) Create(ctx context.Context, service *model.Service) error {
	service.ID = uuid.New()
	stored := *service
	r.services[service.ID] = &stored
	return nil
}

func (r *fakeServiceRepo) Get(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	r.gets++
	svc, ok := r.services[id]
	if !ok {
		return nil, apperrors.NewNotFound("service", nil)
	}
	found := *svc
	return &found, nil
}

func (r *fakeServiceRepo) Update(ctx context.Context, service *model.Service) error {
	if _, ok := r.services[service.ID]; !ok {
		return apperrors.NewNotFound("service", nil)
	}
	stored := *service
	r.services[service.ID] = &stored
	return nil
}

func (r *fakeServiceRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.services[id]; !ok {
		return apperrors.NewNotFound("service", nil)
	}
	delete(r.services, id)
	return nil
}

func (r *fakeServiceRepo) List(ctx context.Context) ([]*model.Service, error) {
	var out []*model.Service
	for _, svc := range r.services {
		out = append(out, svc)
	}
	return out, nil
}

func TestCreateServiceDefaultsColor(t *testing.T) {
	svc := NewService(newFakeServiceRepo())

	created, err := svc.Create(context.Background(), &model.CreateServiceRequest{
		Name:     "Cleaning",
		Duration: 30,
	})
	require.NoError(t, err)
	assert.Equal(t, model.DefaultServiceColor, created.Color)

	colored, err := svc.Create(context.Background(), &model.CreateServiceRequest{
		Name:     "Whitening",
		Duration: 60,
		Color:    "#FF0000",
	})
	require.NoError(t, err)
	assert.Equal(t, "#FF0000", colored.Color)
}

func TestGetServiceCaches(t *testing.T) {
	repo := newFakeServiceRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), &model.CreateServiceRequest{
		Name:     "Cleaning",
		Duration: 30,
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		got, err := svc.Get(context.Background(), created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Cleaning", got.Name)
	}
	assert.Equal(t, 1, repo.gets)
}

func TestUpdateServiceBustsCache(t *testing.T) {
	repo := newFakeServiceRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), &model.CreateServiceRequest{
		Name:     "Cleaning",
		Duration: 30,
	})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), created.ID)
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), created.ID, &model.UpdateServiceRequest{
		Name:     "Deep cleaning",
		Duration: 45,
	})
	require.NoError(t, err)
	assert.Equal(t, 45, updated.Duration)

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Deep cleaning", got.Name)
	assert.Equal(t, 45, got.Duration)
}

func TestDeleteServiceIdempotent(t *testing.T) {
	repo := newFakeServiceRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), &model.CreateServiceRequest{
		Name:     "Cleaning",
		Duration: 30,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), created.ID))
	assert.NoError(t, svc.Delete(context.Background(), created.ID))
}
