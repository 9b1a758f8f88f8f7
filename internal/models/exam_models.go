package models

import "time"

const ExamOrderStatusDraft = "DRAFT"

// Exam is an uploaded result document.
type Exam struct {
	ID        int64     `json:"id"`
	PatientID int64     `json:"patient_id"`
	DoctorID  int64     `json:"doctor_id"`
	FileName  string    `json:"file_name"`
	FileURL   string    `json:"file_url"`
	ObjectKey *string   `json:"-"`
	ExamDate  *string   `json:"exam_date,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ExamOrder is a request for exams, written before results exist.
type ExamOrder struct {
	ID          int64           `json:"id"`
	PatientID   int64           `json:"patient_id"`
	DoctorID    int64           `json:"doctor_id"`
	Status      string          `json:"status"`
	Notes       *string         `json:"notes,omitempty"`
	RequestedAt time.Time       `json:"requested_at"`
	DueDate     *string         `json:"due_date,omitempty"`
	Items       []ExamOrderItem `json:"items"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type ExamOrderItem struct {
	ID           int64   `json:"id"`
	OrderID      int64   `json:"order_id"`
	ExamCode     *string `json:"exam_code,omitempty"`
	ExamName     string  `json:"exam_name"`
	Observations *string `json:"observations,omitempty"`
}
