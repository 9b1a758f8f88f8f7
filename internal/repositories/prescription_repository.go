package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"clinic_backend/internal/models"

	"github.com/lib/pq"
)

// PrescriptionRepository stores prescriptions and their items.
type PrescriptionRepository interface {
	CreatePrescription(ctx context.Context, executor SQLExecutor, p *models.Prescription) (int64, error)
	UpdatePrescription(ctx context.Context, executor SQLExecutor, p *models.Prescription) error
	DeletePrescription(ctx context.Context, executor SQLExecutor, doctorID, id int64) error
	CreateItem(ctx context.Context, executor SQLExecutor, item *models.PrescriptionItem) (int64, error)
	DeleteItems(ctx context.Context, executor SQLExecutor, prescriptionID int64) error
	GetPrescription(ctx context.Context, doctorID, id int64) (*models.Prescription, error)
	ListPrescriptions(ctx context.Context, doctorID int64, patientID *int64) ([]models.Prescription, error)
}

type prescriptionRepository struct {
	db *sql.DB
}

func NewPrescriptionRepository(db *sql.DB) PrescriptionRepository {
	return &prescriptionRepository{db: db}
}

const prescriptionColumns = `id, patient_id, doctor_id, title, to_char(date, 'YYYY-MM-DD'),
	posology_phytotherapy, posology_supplement, posology_medication, notes, created_at, updated_at`

func scanPrescription(row scanner) (*models.Prescription, error) {
	p := &models.Prescription{}
	err := row.Scan(&p.ID, &p.PatientID, &p.DoctorID, &p.Title, &p.Date,
		&p.PosologyPhytotherapy, &p.PosologySupplement, &p.PosologyMedication, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Items = []models.PrescriptionItem{}
	return p, nil
}

func (r *prescriptionRepository) CreatePrescription(ctx context.Context, executor SQLExecutor, p *models.Prescription) (int64, error) {
	query := `INSERT INTO prescriptions
	            (patient_id, doctor_id, title, date, posology_phytotherapy, posology_supplement, posology_medication, notes)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id, created_at, updated_at`
	err := executor.QueryRowContext(ctx, query,
		p.PatientID, p.DoctorID, p.Title, p.Date, p.PosologyPhytotherapy, p.PosologySupplement, p.PosologyMedication, p.Notes,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return 0, wrapDBError(err, "creating prescription")
	}
	return p.ID, nil
}

func (r *prescriptionRepository) UpdatePrescription(ctx context.Context, executor SQLExecutor, p *models.Prescription) error {
	query := `UPDATE prescriptions
	          SET title = $1, date = $2, posology_phytotherapy = $3, posology_supplement = $4,
	              posology_medication = $5, notes = $6, updated_at = NOW()
	          WHERE id = $7 AND doctor_id = $8`
	result, err := executor.ExecContext(ctx, query,
		p.Title, p.Date, p.PosologyPhytotherapy, p.PosologySupplement, p.PosologyMedication, p.Notes, p.ID, p.DoctorID)
	if err != nil {
		return wrapDBError(err, "updating prescription")
	}
	return requireAffected(result, "updating prescription")
}

func (r *prescriptionRepository) DeletePrescription(ctx context.Context, executor SQLExecutor, doctorID, id int64) error {
	result, err := executor.ExecContext(ctx, `DELETE FROM prescriptions WHERE id = $1 AND doctor_id = $2`, id, doctorID)
	if err != nil {
		return wrapDBError(err, "deleting prescription")
	}
	return requireAffected(result, "deleting prescription")
}

func (r *prescriptionRepository) CreateItem(ctx context.Context, executor SQLExecutor, item *models.PrescriptionItem) (int64, error) {
	query := `INSERT INTO prescription_items (prescription_id, type, name, dosage, frequency, duration, notes)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`
	err := executor.QueryRowContext(ctx, query,
		item.PrescriptionID, item.Type, item.Name, item.Dosage, item.Frequency, item.Duration, item.Notes,
	).Scan(&item.ID)
	if err != nil {
		return 0, wrapDBError(err, "creating prescription item")
	}
	return item.ID, nil
}

func (r *prescriptionRepository) DeleteItems(ctx context.Context, executor SQLExecutor, prescriptionID int64) error {
	if _, err := executor.ExecContext(ctx, `DELETE FROM prescription_items WHERE prescription_id = $1`, prescriptionID); err != nil {
		return wrapDBError(err, "deleting prescription items")
	}
	return nil
}

func (r *prescriptionRepository) GetPrescription(ctx context.Context, doctorID, id int64) (*models.Prescription, error) {
	query := `SELECT ` + prescriptionColumns + ` FROM prescriptions WHERE id = $1 AND doctor_id = $2`
	p, err := scanPrescription(r.db.QueryRowContext(ctx, query, id, doctorID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting prescription %d: %v", ErrDatabaseError, id, err)
	}
	byID := map[int64]*models.Prescription{p.ID: p}
	if err := r.attachItems(ctx, byID); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *prescriptionRepository) ListPrescriptions(ctx context.Context, doctorID int64, patientID *int64) ([]models.Prescription, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + prescriptionColumns + ` FROM prescriptions WHERE doctor_id = $1`)
	args := []interface{}{doctorID}
	if patientID != nil {
		queryBuilder.WriteString(` AND patient_id = $2`)
		args = append(args, *patientID)
	}
	queryBuilder.WriteString(` ORDER BY date DESC, id DESC`)

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: listing prescriptions: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	var list []*models.Prescription
	byID := map[int64]*models.Prescription{}
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning prescription: %v", ErrDatabaseError, err)
		}
		list = append(list, p)
		byID[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating prescriptions: %v", ErrDatabaseError, err)
	}
	rows.Close()

	if err := r.attachItems(ctx, byID); err != nil {
		return nil, err
	}
	out := make([]models.Prescription, 0, len(list))
	for _, p := range list {
		out = append(out, *p)
	}
	return out, nil
}

// attachItems loads the items of every prescription in byID with a single query.
func (r *prescriptionRepository) attachItems(ctx context.Context, byID map[int64]*models.Prescription) error {
	if len(byID) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	query := `SELECT id, prescription_id, type, name, dosage, frequency, duration, notes
	          FROM prescription_items WHERE prescription_id = ANY($1) ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("%w: listing prescription items: %v", ErrDatabaseError, err)
	}
	defer rows.Close()
	for rows.Next() {
		var it models.PrescriptionItem
		if err := rows.Scan(&it.ID, &it.PrescriptionID, &it.Type, &it.Name, &it.Dosage, &it.Frequency, &it.Duration, &it.Notes); err != nil {
			return fmt.Errorf("%w: scanning prescription item: %v", ErrDatabaseError, err)
		}
		if p, ok := byID[it.PrescriptionID]; ok {
			p.Items = append(p.Items, it)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: iterating prescription items: %v", ErrDatabaseError, err)
	}
	return nil
}
