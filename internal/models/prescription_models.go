package models

import "time"

type Prescription struct {
	ID                   int64              `json:"id"`
	PatientID            int64              `json:"patient_id"`
	DoctorID             int64              `json:"doctor_id"`
	Title                string             `json:"title"`
	Date                 string             `json:"date"`
	PosologyPhytotherapy *string            `json:"posology_phytotherapy,omitempty"`
	PosologySupplement   *string            `json:"posology_supplement,omitempty"`
	PosologyMedication   *string            `json:"posology_medication,omitempty"`
	Notes                *string            `json:"notes,omitempty"`
	Items                []PrescriptionItem `json:"items"`
	CreatedAt            time.Time          `json:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at"`
}

type PrescriptionItem struct {
	ID             int64   `json:"id"`
	PrescriptionID int64   `json:"prescription_id"`
	Type           string  `json:"type"`
	Name           string  `json:"name"`
	Dosage         *string `json:"dosage,omitempty"`
	Frequency      *string `json:"frequency,omitempty"`
	Duration       *string `json:"duration,omitempty"`
	Notes          *string `json:"notes,omitempty"`
}
