package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/dentalize/scheduler-api/internal/repository"
)

type taskRepository struct {
	BaseRepository
}

type clientRepository struct {
	BaseRepository
}

type serviceRepository struct {
	BaseRepository
}

type userRepository struct {
	BaseRepository
}

type tokenRepository struct {
	BaseRepository
}

type outboxRepository struct {
	BaseRepository
}

func NewTaskRepository(db *sqlx.DB) repository.TaskRepository {
	return &taskRepository{NewBaseRepository(db)}
}

func NewClientRepository(db *sqlx.DB) repository.ClientRepository {
	return &clientRepository{NewBaseRepository(db)}
}

func NewServiceRepository(db *sqlx.DB) repository.ServiceRepository {
	return &serviceRepository{NewBaseRepository(db)}
}

func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &userRepository{NewBaseRepository(db)}
}

func NewTokenRepository(db *sqlx.DB) repository.TokenRepository {
	return &tokenRepository{NewBaseRepository(db)}
}

func NewOutboxRepository(db *sqlx.DB) repository.OutboxRepository {
	return &outboxRepository{NewBaseRepository(db)}
}
