package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"clinic_backend/internal/models"
)

// AppointmentRepository persists a clinician's agenda.
type AppointmentRepository interface {
	CreateAppointment(ctx context.Context, executor SQLExecutor, a *models.Appointment) (int64, error)
	ListAppointments(ctx context.Context, doctorID int64) ([]models.Appointment, error)
	UpdateAppointment(ctx context.Context, executor SQLExecutor, doctorID, id int64, fields []models.AppointmentFieldUpdate) (*models.Appointment, error)
	DeleteAppointment(ctx context.Context, executor SQLExecutor, doctorID, id int64) error
}

type appointmentRepository struct {
	db *sql.DB
}

func NewAppointmentRepository(db *sql.DB) AppointmentRepository {
	return &appointmentRepository{db: db}
}

const appointmentColumns = `id, doctor_id, patient_id, type, status, place_of_service, service, online_service,
	start_time, end_time, timezone, description, missed, created_at, updated_at`

// appointmentUpdatable lists the only columns a partial update may touch.
var appointmentUpdatable = map[string]bool{
	"type": true, "status": true, "place_of_service": true, "service": true, "online_service": true,
	"start_time": true, "end_time": true, "timezone": true, "description": true, "missed": true,
}

func scanAppointment(row scanner) (*models.Appointment, error) {
	a := &models.Appointment{}
	err := row.Scan(&a.ID, &a.DoctorID, &a.PatientID, &a.Type, &a.Status, &a.PlaceOfService, &a.Service,
		&a.OnlineService, &a.StartTime, &a.EndTime, &a.Timezone, &a.Description, &a.Missed, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *appointmentRepository) CreateAppointment(ctx context.Context, executor SQLExecutor, a *models.Appointment) (int64, error) {
	query := `INSERT INTO appointments
	            (doctor_id, patient_id, type, status, place_of_service, service, online_service,
	             start_time, end_time, timezone, description)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	          RETURNING id, missed, created_at, updated_at`
	err := executor.QueryRowContext(ctx, query,
		a.DoctorID, a.PatientID, a.Type, a.Status, a.PlaceOfService, a.Service, a.OnlineService,
		a.StartTime, a.EndTime, a.Timezone, a.Description,
	).Scan(&a.ID, &a.Missed, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return 0, wrapDBError(err, "creating appointment")
	}
	return a.ID, nil
}

func (r *appointmentRepository) ListAppointments(ctx context.Context, doctorID int64) ([]models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE doctor_id = $1 ORDER BY start_time DESC`
	rows, err := r.db.QueryContext(ctx, query, doctorID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing appointments: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	appointments := []models.Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning appointment: %v", ErrDatabaseError, err)
		}
		appointments = append(appointments, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating appointments: %v", ErrDatabaseError, err)
	}
	return appointments, nil
}

func (r *appointmentRepository) UpdateAppointment(ctx context.Context, executor SQLExecutor, doctorID, id int64, fields []models.AppointmentFieldUpdate) (*models.Appointment, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no fields to update", ErrDatabaseError)
	}

	var setClauses []string
	var args []interface{}
	argCounter := 1
	for _, f := range fields {
		if !appointmentUpdatable[f.Column] {
			return nil, fmt.Errorf("%w: column %q is not updatable", ErrDatabaseError, f.Column)
		}
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", f.Column, argCounter))
		args = append(args, f.Value)
		argCounter++
	}
	setClauses = append(setClauses, "updated_at = NOW()")
	args = append(args, id, doctorID)

	query := fmt.Sprintf(`UPDATE appointments SET %s WHERE id = $%d AND doctor_id = $%d RETURNING %s`,
		strings.Join(setClauses, ", "), argCounter, argCounter+1, appointmentColumns)

	a, err := scanAppointment(executor.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, wrapDBError(err, "updating appointment")
	}
	return a, nil
}

func (r *appointmentRepository) DeleteAppointment(ctx context.Context, executor SQLExecutor, doctorID, id int64) error {
	result, err := executor.ExecContext(ctx, `DELETE FROM appointments WHERE id = $1 AND doctor_id = $2`, id, doctorID)
	if err != nil {
		return wrapDBError(err, "deleting appointment")
	}
	return requireAffected(result, "deleting appointment")
}
