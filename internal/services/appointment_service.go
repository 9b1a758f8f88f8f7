package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"clinic_backend/internal/models"
	"clinic_backend/internal/repositories"
	"clinic_backend/pkg/utils"
)

const DefaultAppointmentStatus = "SCHEDULED"

type CreateAppointmentRequest struct {
	PatientID      int64      `json:"patient_id" binding:"required"`
	Type           *string    `json:"type"`
	Status         string     `json:"status"`
	PlaceOfService *string    `json:"place_of_service"`
	Service        *string    `json:"service"`
	OnlineService  bool       `json:"online_service"`
	StartTime      time.Time  `json:"start_time" binding:"required"`
	EndTime        *time.Time `json:"end_time"`
	Timezone       *string    `json:"timezone"`
	Description    *string    `json:"description"`
}

// UpdateAppointmentRequest only carries the fields a partial update may change.
type UpdateAppointmentRequest struct {
	Type           *string    `json:"type"`
	Status         *string    `json:"status"`
	PlaceOfService *string    `json:"place_of_service"`
	Service        *string    `json:"service"`
	OnlineService  *bool      `json:"online_service"`
	StartTime      *time.Time `json:"start_time"`
	EndTime        *time.Time `json:"end_time"`
	Timezone       *string    `json:"timezone"`
	Description    *string    `json:"description"`
	Missed         *bool      `json:"missed"`
}

func (r UpdateAppointmentRequest) fields() []models.AppointmentFieldUpdate {
	var out []models.AppointmentFieldUpdate
	add := func(column string, set bool, value interface{}) {
		if set {
			out = append(out, models.AppointmentFieldUpdate{Column: column, Value: value})
		}
	}
	add("type", r.Type != nil, r.Type)
	add("status", r.Status != nil, r.Status)
	add("place_of_service", r.PlaceOfService != nil, r.PlaceOfService)
	add("service", r.Service != nil, r.Service)
	add("online_service", r.OnlineService != nil, r.OnlineService)
	add("start_time", r.StartTime != nil, r.StartTime)
	add("end_time", r.EndTime != nil, r.EndTime)
	add("timezone", r.Timezone != nil, r.Timezone)
	add("description", r.Description != nil, r.Description)
	add("missed", r.Missed != nil, r.Missed)
	return out
}

type AppointmentService interface {
	CreateAppointment(ctx context.Context, doctorID int64, req CreateAppointmentRequest) (*models.Appointment, error)
	ListAppointments(ctx context.Context, doctorID int64) ([]models.Appointment, error)
	UpdateAppointment(ctx context.Context, doctorID, id int64, req UpdateAppointmentRequest) (*models.Appointment, error)
	DeleteAppointment(ctx context.Context, doctorID, id int64) error
}

type appointmentService struct {
	appointmentRepo repositories.AppointmentRepository
	patientRepo     repositories.PatientRepository
	db              *sql.DB
}

func NewAppointmentService(appointmentRepo repositories.AppointmentRepository, patientRepo repositories.PatientRepository, db *sql.DB) AppointmentService {
	return &appointmentService{appointmentRepo: appointmentRepo, patientRepo: patientRepo, db: db}
}

func (s *appointmentService) CreateAppointment(ctx context.Context, doctorID int64, req CreateAppointmentRequest) (*models.Appointment, error) {
	if req.EndTime != nil && req.EndTime.Before(req.StartTime) {
		return nil, validationError("end_time must not be before start_time")
	}
	if err := ensurePatient(ctx, s.patientRepo, doctorID, req.PatientID); err != nil {
		return nil, err
	}

	status := strings.TrimSpace(req.Status)
	if status == "" {
		status = DefaultAppointmentStatus
	}
	a := &models.Appointment{
		DoctorID:       doctorID,
		PatientID:      req.PatientID,
		Type:           utils.BlankToNil(req.Type),
		Status:         status,
		PlaceOfService: utils.BlankToNil(req.PlaceOfService),
		Service:        utils.BlankToNil(req.Service),
		OnlineService:  req.OnlineService,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		Timezone:       utils.BlankToNil(req.Timezone),
		Description:    req.Description,
	}
	if _, err := s.appointmentRepo.CreateAppointment(ctx, s.db, a); err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", classifyWriteError(err))
	}
	return a, nil
}

func (s *appointmentService) ListAppointments(ctx context.Context, doctorID int64) ([]models.Appointment, error) {
	list, err := s.appointmentRepo.ListAppointments(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return list, nil
}

func (s *appointmentService) UpdateAppointment(ctx context.Context, doctorID, id int64, req UpdateAppointmentRequest) (*models.Appointment, error) {
	fields := req.fields()
	if len(fields) == 0 {
		return nil, ErrNothingToUpdate
	}
	a, err := s.appointmentRepo.UpdateAppointment(ctx, s.db, doctorID, id, fields)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("failed to update appointment: %w", classifyWriteError(err))
	}
	return a, nil
}

func (s *appointmentService) DeleteAppointment(ctx context.Context, doctorID, id int64) error {
	if err := s.appointmentRepo.DeleteAppointment(ctx, s.db, doctorID, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrAppointmentNotFound
		}
		return fmt.Errorf("failed to delete appointment: %w", err)
	}
	return nil
}
