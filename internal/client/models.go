package client

import (
	"time"

	"github.com/flowmatrix/roiportal/internal/store"
)

// Client is a customer company (the tenant).
type Client struct {
	ID              string    `json:"id"`
	CompanyName     string    `json:"company_name"`
	Industry        *string   `json:"industry"`
	AvgEmployeeWage *float64  `json:"avg_employee_wage"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CreateClientInput holds the fields required to create a client.
type CreateClientInput struct {
	CompanyName     string   `json:"company_name"`
	Industry        *string  `json:"industry"`
	AvgEmployeeWage *float64 `json:"avg_employee_wage"`
}

// UpdateClientInput is a PATCH body.
type UpdateClientInput struct {
	CompanyName     store.Optional[string]  `json:"company_name"`
	Industry        store.Optional[string]  `json:"industry"`
	AvgEmployeeWage store.Optional[float64] `json:"avg_employee_wage"`
}
