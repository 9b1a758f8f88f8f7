package models

import "time"

// Patient belongs to exactly one clinician.
type Patient struct {
	ID             int64     `json:"id"`
	DoctorID       int64     `json:"doctor_id"`
	Name           string    `json:"name"`
	Birthday       *string   `json:"birthday,omitempty"`
	Gender         *string   `json:"gender,omitempty"`
	Email          *string   `json:"email,omitempty"`
	Whatsapp       *string   `json:"whatsapp,omitempty"`
	PlaceOfService *string   `json:"place_of_service,omitempty"`
	Occupation     *string   `json:"occupation,omitempty"`
	CPFCNPJ        *string   `json:"cpf_cnpj,omitempty"`
	RG             *string   `json:"rg,omitempty"`
	Address        *string   `json:"address,omitempty"`
	HealthPlan     *string   `json:"health_plan,omitempty"`
	Weight         *string   `json:"weight,omitempty"`
	Height         *string   `json:"height,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
