package models

import (
	"encoding/json"
	"time"
)

const DefaultNoteType = "EVOLUTION"

type MedicalRecord struct {
	ID          int64           `json:"id"`
	PatientID   int64           `json:"patient_id"`
	DoctorID    int64           `json:"doctor_id"`
	NoteType    string          `json:"note_type"`
	Content     string          `json:"content"`
	Attachments json.RawMessage `json:"attachments"`
	CreatedAt   time.Time       `json:"created_at"`
}

type Anamnesis struct {
	ID        int64           `json:"id"`
	PatientID int64           `json:"patient_id"`
	DoctorID  int64           `json:"doctor_id"`
	Specialty string          `json:"specialty"`
	Content   json.RawMessage `json:"content"`
	CreatedAt time.Time       `json:"created_at"`
}
