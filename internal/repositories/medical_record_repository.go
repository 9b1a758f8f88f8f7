package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"clinic_backend/internal/models"
)

// MedicalRecordRepository stores clinical notes and anamneses.
type MedicalRecordRepository interface {
	CreateRecord(ctx context.Context, executor SQLExecutor, rec *models.MedicalRecord) (int64, error)
	ListRecords(ctx context.Context, doctorID, patientID int64) ([]models.MedicalRecord, error)
	CreateAnamnesis(ctx context.Context, executor SQLExecutor, a *models.Anamnesis) (int64, error)
	ListAnamneses(ctx context.Context, doctorID, patientID int64) ([]models.Anamnesis, error)
}

type medicalRecordRepository struct {
	db *sql.DB
}

func NewMedicalRecordRepository(db *sql.DB) MedicalRecordRepository {
	return &medicalRecordRepository{db: db}
}

func (r *medicalRecordRepository) CreateRecord(ctx context.Context, executor SQLExecutor, rec *models.MedicalRecord) (int64, error) {
	query := `INSERT INTO medical_records (patient_id, doctor_id, note_type, content, attachments)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id, created_at`
	err := executor.QueryRowContext(ctx, query,
		rec.PatientID, rec.DoctorID, rec.NoteType, rec.Content, string(rec.Attachments),
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return 0, wrapDBError(err, "creating medical record")
	}
	return rec.ID, nil
}

func (r *medicalRecordRepository) ListRecords(ctx context.Context, doctorID, patientID int64) ([]models.MedicalRecord, error) {
	query := `SELECT id, patient_id, doctor_id, note_type, content, attachments, created_at
	          FROM medical_records
	          WHERE patient_id = $1 AND doctor_id = $2
	          ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, patientID, doctorID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing medical records: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	records := []models.MedicalRecord{}
	for rows.Next() {
		var rec models.MedicalRecord
		var attachments []byte
		if err := rows.Scan(&rec.ID, &rec.PatientID, &rec.DoctorID, &rec.NoteType, &rec.Content, &attachments, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning medical record: %v", ErrDatabaseError, err)
		}
		rec.Attachments = json.RawMessage(attachments)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating medical records: %v", ErrDatabaseError, err)
	}
	return records, nil
}

func (r *medicalRecordRepository) CreateAnamnesis(ctx context.Context, executor SQLExecutor, a *models.Anamnesis) (int64, error) {
	query := `INSERT INTO anamneses (patient_id, doctor_id, specialty, content)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id, created_at`
	err := executor.QueryRowContext(ctx, query,
		a.PatientID, a.DoctorID, a.Specialty, string(a.Content),
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return 0, wrapDBError(err, "creating anamnesis")
	}
	return a.ID, nil
}

func (r *medicalRecordRepository) ListAnamneses(ctx context.Context, doctorID, patientID int64) ([]models.Anamnesis, error) {
	query := `SELECT id, patient_id, doctor_id, specialty, content, created_at
	          FROM anamneses
	          WHERE patient_id = $1 AND doctor_id = $2
	          ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, patientID, doctorID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing anamneses: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	list := []models.Anamnesis{}
	for rows.Next() {
		var a models.Anamnesis
		var content []byte
		if err := rows.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.Specialty, &content, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning anamnesis: %v", ErrDatabaseError, err)
		}
		a.Content = json.RawMessage(content)
		list = append(list, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating anamneses: %v", ErrDatabaseError, err)
	}
	return list, nil
}
