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

type CreatePatientRequest struct {
	Name           string  `json:"name" binding:"required"`
	Birthday       *string `json:"birthday"`
	Gender         *string `json:"gender"`
	Email          *string `json:"email"`
	Whatsapp       *string `json:"whatsapp"`
	PlaceOfService *string `json:"place_of_service"`
	Occupation     *string `json:"occupation"`
	CPFCNPJ        *string `json:"cpf_cnpj"`
	RG             *string `json:"rg"`
	Address        *string `json:"address"`
	HealthPlan     *string `json:"health_plan"`
	Weight         *string `json:"weight"`
	Height         *string `json:"height"`
}

type PatientService interface {
	CreatePatient(ctx context.Context, doctorID int64, req CreatePatientRequest) (*models.Patient, error)
	GetPatient(ctx context.Context, doctorID, patientID int64) (*models.Patient, error)
	ListPatients(ctx context.Context, doctorID int64) ([]models.Patient, error)
}

type patientService struct {
	patientRepo repositories.PatientRepository
	db          *sql.DB
}

func NewPatientService(patientRepo repositories.PatientRepository, db *sql.DB) PatientService {
	return &patientService{patientRepo: patientRepo, db: db}
}

func (s *patientService) CreatePatient(ctx context.Context, doctorID int64, req CreatePatientRequest) (*models.Patient, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, validationError("name is required")
	}
	birthday := utils.BlankToNil(req.Birthday)
	if birthday != nil && !utils.IsISODate(*birthday) {
		return nil, validationError("birthday must be YYYY-MM-DD")
	}
	email := utils.BlankToNil(req.Email)
	if email != nil && !utils.IsValidEmail(*email) {
		return nil, validationError("email is invalid")
	}

	p := &models.Patient{
		DoctorID:       doctorID,
		Name:           name,
		Birthday:       birthday,
		Gender:         utils.BlankToNil(req.Gender),
		Email:          email,
		Whatsapp:       utils.BlankToNil(req.Whatsapp),
		PlaceOfService: utils.BlankToNil(req.PlaceOfService),
		Occupation:     utils.BlankToNil(req.Occupation),
		CPFCNPJ:        utils.BlankToNil(req.CPFCNPJ),
		RG:             utils.BlankToNil(req.RG),
		Address:        utils.BlankToNil(req.Address),
		HealthPlan:     utils.BlankToNil(req.HealthPlan),
		Weight:         utils.BlankToNil(req.Weight),
		Height:         utils.BlankToNil(req.Height),
	}
	if _, err := s.patientRepo.CreatePatient(ctx, s.db, p); err != nil {
		return nil, fmt.Errorf("failed to create patient: %w", classifyWriteError(err))
	}
	return p, nil
}

func (s *patientService) GetPatient(ctx context.Context, doctorID, patientID int64) (*models.Patient, error) {
	p, err := s.patientRepo.GetPatientByID(ctx, doctorID, patientID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return p, nil
}

func (s *patientService) ListPatients(ctx context.Context, doctorID int64) ([]models.Patient, error) {
	patients, err := s.patientRepo.ListPatients(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}

// ensurePatient fails with ErrPatientNotFound unless the patient belongs to doctorID.
func ensurePatient(ctx context.Context, repo repositories.PatientRepository, doctorID, patientID int64) error {
	ok, err := repo.PatientBelongsTo(ctx, doctorID, patientID)
	if err != nil {
		return fmt.Errorf("failed to check patient: %w", err)
	}
	if !ok {
		return ErrPatientNotFound
	}
	return nil
}
