package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"clinic_backend/internal/models"
	"clinic_backend/internal/repositories"
)

type CreateRecordRequest struct {
	NoteType    string          `json:"note_type"`
	Content     string          `json:"content" binding:"required"`
	Attachments json.RawMessage `json:"attachments"`
}

type CreateAnamnesisRequest struct {
	Specialty string          `json:"specialty" binding:"required"`
	Content   json.RawMessage `json:"content" binding:"required"`
}

type MedicalRecordService interface {
	CreateRecord(ctx context.Context, doctorID, patientID int64, req CreateRecordRequest) (*models.MedicalRecord, error)
	ListRecords(ctx context.Context, doctorID, patientID int64) ([]models.MedicalRecord, error)
	CreateAnamnesis(ctx context.Context, doctorID, patientID int64, req CreateAnamnesisRequest) (*models.Anamnesis, error)
	ListAnamneses(ctx context.Context, doctorID, patientID int64) ([]models.Anamnesis, error)
}

type medicalRecordService struct {
	recordRepo  repositories.MedicalRecordRepository
	patientRepo repositories.PatientRepository
	db          *sql.DB
}

func NewMedicalRecordService(recordRepo repositories.MedicalRecordRepository, patientRepo repositories.PatientRepository, db *sql.DB) MedicalRecordService {
	return &medicalRecordService{recordRepo: recordRepo, patientRepo: patientRepo, db: db}
}

// jsonKind returns the first significant byte of raw, or 0 when raw is empty or null.
func jsonKind(raw json.RawMessage) byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return 0
	}
	return trimmed[0]
}

func (s *medicalRecordService) CreateRecord(ctx context.Context, doctorID, patientID int64, req CreateRecordRequest) (*models.MedicalRecord, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, validationError("content is required")
	}
	attachments := json.RawMessage(`[]`)
	switch jsonKind(req.Attachments) {
	case 0:
	case '[':
		attachments = req.Attachments
	default:
		return nil, validationError("attachments must be a JSON array")
	}
	noteType := strings.ToUpper(strings.TrimSpace(req.NoteType))
	if noteType == "" {
		noteType = models.DefaultNoteType
	}

	if err := ensurePatient(ctx, s.patientRepo, doctorID, patientID); err != nil {
		return nil, err
	}
	rec := &models.MedicalRecord{
		PatientID:   patientID,
		DoctorID:    doctorID,
		NoteType:    noteType,
		Content:     content,
		Attachments: attachments,
	}
	if _, err := s.recordRepo.CreateRecord(ctx, s.db, rec); err != nil {
		return nil, fmt.Errorf("failed to create medical record: %w", classifyWriteError(err))
	}
	return rec, nil
}

func (s *medicalRecordService) ListRecords(ctx context.Context, doctorID, patientID int64) ([]models.MedicalRecord, error) {
	if err := ensurePatient(ctx, s.patientRepo, doctorID, patientID); err != nil {
		return nil, err
	}
	list, err := s.recordRepo.ListRecords(ctx, doctorID, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list medical records: %w", err)
	}
	return list, nil
}

func (s *medicalRecordService) CreateAnamnesis(ctx context.Context, doctorID, patientID int64, req CreateAnamnesisRequest) (*models.Anamnesis, error) {
	specialty := strings.ToUpper(strings.TrimSpace(req.Specialty))
	if specialty == "" {
		return nil, validationError("specialty is required")
	}
	if jsonKind(req.Content) != '{' {
		return nil, validationError("content must be a JSON object")
	}
	if err := ensurePatient(ctx, s.patientRepo, doctorID, patientID); err != nil {
		return nil, err
	}
	a := &models.Anamnesis{
		PatientID: patientID,
		DoctorID:  doctorID,
		Specialty: specialty,
		Content:   req.Content,
	}
	if _, err := s.recordRepo.CreateAnamnesis(ctx, s.db, a); err != nil {
		return nil, fmt.Errorf("failed to create anamnesis: %w", classifyWriteError(err))
	}
	return a, nil
}

func (s *medicalRecordService) ListAnamneses(ctx context.Context, doctorID, patientID int64) ([]models.Anamnesis, error) {
	if err := ensurePatient(ctx, s.patientRepo, doctorID, patientID); err != nil {
		return nil, err
	}
	list, err := s.recordRepo.ListAnamneses(ctx, doctorID, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list anamneses: %w", err)
	}
	return list, nil
}
