package model

// DefaultServiceColor is used when a service is created without a color.
const DefaultServiceColor = "#3B82F6"

// Service is a catalog entry (cleaning, filling, root canal …). Duration is
// in minutes and is only consulted to default a task's end time.
type Service struct {
	Base
	Name        string  `db:"name" json:"name"`
	Description *string `db:"description" json:"description,omitempty"`
	Duration    int     `db:"duration" json:"duration"`
	Price       float64 `db:"price" json:"price"`
	Color       string  `db:"color" json:"color"`
}

type CreateServiceRequest struct {
	Name        string  `json:"name" binding:"required,min=2" validate:"required,min=2"`
	Description *string `json:"description"`
	Duration    int     `json:"duration" binding:"required,min=1" validate:"required,min=1"`
	Price       float64 `json:"price" binding:"min=0" validate:"min=0"`
	Color       string  `json:"color"`
}

type UpdateServiceRequest = CreateServiceRequest
