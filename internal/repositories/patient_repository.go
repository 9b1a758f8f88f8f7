package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"clinic_backend/internal/models"
)

// PatientRepository reads and writes patients scoped by clinician.
type PatientRepository interface {
	CreatePatient(ctx context.Context, executor SQLExecutor, p *models.Patient) (int64, error)
	GetPatientByID(ctx context.Context, doctorID, patientID int64) (*models.Patient, error)
	ListPatients(ctx context.Context, doctorID int64) ([]models.Patient, error)
	PatientBelongsTo(ctx context.Context, doctorID, patientID int64) (bool, error)
}

type patientRepository struct {
	db *sql.DB
}

func NewPatientRepository(db *sql.DB) PatientRepository {
	return &patientRepository{db: db}
}

const patientColumns = `id, doctor_id, name, to_char(birthday, 'YYYY-MM-DD'), gender, email, whatsapp,
	place_of_service, occupation, cpf_cnpj, rg, address, health_plan, weight, height, created_at, updated_at`

func scanPatient(row scanner) (*models.Patient, error) {
	p := &models.Patient{}
	err := row.Scan(&p.ID, &p.DoctorID, &p.Name, &p.Birthday, &p.Gender, &p.Email, &p.Whatsapp,
		&p.PlaceOfService, &p.Occupation, &p.CPFCNPJ, &p.RG, &p.Address, &p.HealthPlan, &p.Weight, &p.Height,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *patientRepository) CreatePatient(ctx context.Context, executor SQLExecutor, p *models.Patient) (int64, error) {
	query := `INSERT INTO patients
	            (doctor_id, name, birthday, gender, email, whatsapp, place_of_service,
	             occupation, cpf_cnpj, rg, address, health_plan, weight, height)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	          RETURNING id, created_at, updated_at`
	err := executor.QueryRowContext(ctx, query,
		p.DoctorID, p.Name, p.Birthday, p.Gender, p.Email, p.Whatsapp, p.PlaceOfService,
		p.Occupation, p.CPFCNPJ, p.RG, p.Address, p.HealthPlan, p.Weight, p.Height,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return 0, wrapDBError(err, "creating patient")
	}
	return p.ID, nil
}

func (r *patientRepository) GetPatientByID(ctx context.Context, doctorID, patientID int64) (*models.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = $1 AND doctor_id = $2`
	p, err := scanPatient(r.db.QueryRowContext(ctx, query, patientID, doctorID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting patient %d: %v", ErrDatabaseError, patientID, err)
	}
	return p, nil
}

func (r *patientRepository) ListPatients(ctx context.Context, doctorID int64) ([]models.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE doctor_id = $1 ORDER BY name ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query, doctorID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing patients: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	patients := []models.Patient{}
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning patient: %v", ErrDatabaseError, err)
		}
		patients = append(patients, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating patients: %v", ErrDatabaseError, err)
	}
	return patients, nil
}

func (r *patientRepository) PatientBelongsTo(ctx context.Context, doctorID, patientID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM patients WHERE id = $1 AND doctor_id = $2)`, patientID, doctorID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: checking patient ownership: %v", ErrDatabaseError, err)
	}
	return exists, nil
}
