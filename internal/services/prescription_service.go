package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"clinic_backend/internal/models"
	"clinic_backend/internal/repositories"
	"clinic_backend/pkg/utils"
)

type PrescriptionItemRequest struct {
	Type      string  `json:"type"`
	Name      string  `json:"name"`
	Dosage    *string `json:"dosage"`
	Frequency *string `json:"frequency"`
	Duration  *string `json:"duration"`
	Notes     *string `json:"notes"`
}

type PrescriptionRequest struct {
	PatientID            int64                     `json:"patient_id" binding:"required"`
	Title                string                    `json:"title" binding:"required"`
	Date                 string                    `json:"date" binding:"required"`
	PosologyPhytotherapy *string                   `json:"posology_phytotherapy"`
	PosologySupplement   *string                   `json:"posology_supplement"`
	PosologyMedication   *string                   `json:"posology_medication"`
	Notes                *string                   `json:"notes"`
	Items                []PrescriptionItemRequest `json:"items"`
}

type PrescriptionService interface {
	CreatePrescription(ctx context.Context, doctorID int64, req PrescriptionRequest) (*models.Prescription, error)
	ListPrescriptions(ctx context.Context, doctorID int64, patientID *int64) ([]models.Prescription, error)
	UpdatePrescription(ctx context.Context, doctorID, id int64, req PrescriptionRequest) (*models.Prescription, error)
	DeletePrescription(ctx context.Context, doctorID, id int64) error
}

type prescriptionService struct {
	prescriptionRepo repositories.PrescriptionRepository
	patientRepo      repositories.PatientRepository
	db               *sql.DB
}

func NewPrescriptionService(prescriptionRepo repositories.PrescriptionRepository, patientRepo repositories.PatientRepository, db *sql.DB) PrescriptionService {
	return &prescriptionService{prescriptionRepo: prescriptionRepo, patientRepo: patientRepo, db: db}
}

func (s *prescriptionService) header(doctorID int64, req PrescriptionRequest) (*models.Prescription, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, validationError("title is required")
	}
	if !utils.IsISODate(req.Date) {
		return nil, validationError("date must be YYYY-MM-DD")
	}
	return &models.Prescription{
		PatientID:            req.PatientID,
		DoctorID:             doctorID,
		Title:                title,
		Date:                 req.Date,
		PosologyPhytotherapy: utils.BlankToNil(req.PosologyPhytotherapy),
		PosologySupplement:   utils.BlankToNil(req.PosologySupplement),
		PosologyMedication:   utils.BlankToNil(req.PosologyMedication),
		Notes:                utils.BlankToNil(req.Notes),
	}, nil
}

// insertItems skips items without both a type and a name.
func (s *prescriptionService) insertItems(ctx context.Context, tx *sql.Tx, prescriptionID int64, items []PrescriptionItemRequest) error {
	for _, it := range items {
		itemType, name := strings.TrimSpace(it.Type), strings.TrimSpace(it.Name)
		if itemType == "" || name == "" {
			continue
		}
		item := &models.PrescriptionItem{
			PrescriptionID: prescriptionID,
			Type:           itemType,
			Name:           name,
			Dosage:         utils.BlankToNil(it.Dosage),
			Frequency:      utils.BlankToNil(it.Frequency),
			Duration:       utils.BlankToNil(it.Duration),
			Notes:          utils.BlankToNil(it.Notes),
		}
		if _, err := s.prescriptionRepo.CreateItem(ctx, tx, item); err != nil {
			return fmt.Errorf("failed to create prescription item: %w", classifyWriteError(err))
		}
	}
	return nil
}

func (s *prescriptionService) CreatePrescription(ctx context.Context, doctorID int64, req PrescriptionRequest) (*models.Prescription, error) {
	p, err := s.header(doctorID, req)
	if err != nil {
		return nil, err
	}
	if err := ensurePatient(ctx, s.patientRepo, doctorID, req.PatientID); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer rollback(tx, "CreatePrescription")

	if _, err := s.prescriptionRepo.CreatePrescription(ctx, tx, p); err != nil {
		return nil, fmt.Errorf("failed to create prescription: %w", classifyWriteError(err))
	}
	if err := s.insertItems(ctx, tx, p.ID, req.Items); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit prescription: %w", err)
	}
	return s.reload(ctx, doctorID, p.ID)
}

func (s *prescriptionService) reload(ctx context.Context, doctorID, id int64) (*models.Prescription, error) {
	p, err := s.prescriptionRepo.GetPrescription(ctx, doctorID, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrPrescriptionNotFound
		}
		return nil, fmt.Errorf("failed to load prescription: %w", err)
	}
	return p, nil
}

func (s *prescriptionService) ListPrescriptions(ctx context.Context, doctorID int64, patientID *int64) ([]models.Prescription, error) {
	list, err := s.prescriptionRepo.ListPrescriptions(ctx, doctorID, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list prescriptions: %w", err)
	}
	return list, nil
}

// UpdatePrescription rewrites the header and replaces every item.
func (s *prescriptionService) UpdatePrescription(ctx context.Context, doctorID, id int64, req PrescriptionRequest) (*models.Prescription, error) {
	p, err := s.header(doctorID, req)
	if err != nil {
		return nil, err
	}
	p.ID = id

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer rollback(tx, "UpdatePrescription")

	if err := s.prescriptionRepo.UpdatePrescription(ctx, tx, p); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrPrescriptionNotFound
		}
		return nil, fmt.Errorf("failed to update prescription: %w", classifyWriteError(err))
	}
	if err := s.prescriptionRepo.DeleteItems(ctx, tx, id); err != nil {
		return nil, fmt.Errorf("failed to replace prescription items: %w", err)
	}
	if err := s.insertItems(ctx, tx, id, req.Items); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit prescription: %w", err)
	}
	return s.reload(ctx, doctorID, id)
}

func (s *prescriptionService) DeletePrescription(ctx context.Context, doctorID, id int64) error {
	if err := s.prescriptionRepo.DeletePrescription(ctx, s.db, doctorID, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrPrescriptionNotFound
		}
		return fmt.Errorf("failed to delete prescription: %w", err)
	}
	return nil
}
