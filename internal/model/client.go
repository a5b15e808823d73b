package model

// Client is a patient record. Reference data only: it carries no
// scheduling invariants.
type Client struct {
	Base
	Name        string  `db:"name" json:"name"`
	Email       *string `db:"email" json:"email,omitempty"`
	Phone       *string `db:"phone" json:"phone,omitempty"`
	CPF         *string `db:"cpf" json:"cpf,omitempty"`
	Notes       *string `db:"notes" json:"notes,omitempty"`
	Description *string `db:"description" json:"description,omitempty"`
}

type CreateClientRequest struct {
	Name        string  `json:"name" binding:"required,min=2" validate:"required,min=2"`
	Email       *string `json:"email" binding:"omitempty,email" validate:"omitempty,email"`
	Phone       *string `json:"phone"`
	CPF         *string `json:"cpf"`
	Notes       *string `json:"notes"`
	Description *string `json:"description"`
}

type UpdateClientRequest = CreateClientRequest
