package models

import "time"

// Material is a stocked consumable. Stock is depleted by procedure lines.
type Material struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Name       string    `json:"name"`
	Category   *string   `json:"category,omitempty"`
	Unit       *string   `json:"unit,omitempty"`
	Measures   *string   `json:"measures,omitempty"`
	Stock      float64   `json:"stock"`
	Price      float64   `json:"price"`
	Expiration *string   `json:"expiration,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Machine is equipment billed per session.
type Machine struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	Name            string    `json:"name"`
	Brand           *string   `json:"brand,omitempty"`
	Category        *string   `json:"category,omitempty"`
	Quantity        int       `json:"quantity"`
	CostPerSession  float64   `json:"cost_per_session"`
	MachineValue    *float64  `json:"machine_value,omitempty"`
	Description     *string   `json:"description,omitempty"`
	AcquisitionDate *string   `json:"acquisition_date,omitempty"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
