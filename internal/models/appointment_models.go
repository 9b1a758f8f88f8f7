package models

import "time"

type Appointment struct {
	ID             int64      `json:"id"`
	DoctorID       int64      `json:"doctor_id"`
	PatientID      int64      `json:"patient_id"`
	Type           *string    `json:"type,omitempty"`
	Status         string     `json:"status"`
	PlaceOfService *string    `json:"place_of_service,omitempty"`
	Service        *string    `json:"service,omitempty"`
	OnlineService  bool       `json:"online_service"`
	StartTime      time.Time  `json:"start_time"`
	EndTime        *time.Time `json:"end_time,omitempty"`
	Timezone       *string    `json:"timezone,omitempty"`
	Description    *string    `json:"description,omitempty"`
	Missed         bool       `json:"missed"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// AppointmentFieldUpdate is one column assignment of a partial update.
type AppointmentFieldUpdate struct {
	Column string
	Value  interface{}
}
