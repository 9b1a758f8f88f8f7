package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"clinic_backend/internal/models"

	"github.com/lib/pq"
)

// ExamRepository stores uploaded exam documents and exam orders.
type ExamRepository interface {
	CreateExam(ctx context.Context, executor SQLExecutor, e *models.Exam) (int64, error)
	ListExams(ctx context.Context, doctorID, patientID int64) ([]models.Exam, error)

	CreateOrder(ctx context.Context, executor SQLExecutor, o *models.ExamOrder) (int64, error)
	UpdateOrder(ctx context.Context, executor SQLExecutor, doctorID, id int64, notes, status *string) error
	DeleteOrder(ctx context.Context, executor SQLExecutor, doctorID, id int64) error
	CreateOrderItem(ctx context.Context, executor SQLExecutor, item *models.ExamOrderItem) (int64, error)
	DeleteOrderItems(ctx context.Context, executor SQLExecutor, orderID int64) error
	GetOrder(ctx context.Context, doctorID, id int64) (*models.ExamOrder, error)
	ListOrdersByPatient(ctx context.Context, doctorID, patientID int64) ([]models.ExamOrder, error)
}

type examRepository struct {
	db *sql.DB
}

func NewExamRepository(db *sql.DB) ExamRepository {
	return &examRepository{db: db}
}

func (r *examRepository) CreateExam(ctx context.Context, executor SQLExecutor, e *models.Exam) (int64, error) {
	query := `INSERT INTO exams (patient_id, doctor_id, file_name, file_url, object_key, exam_date)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id, created_at`
	err := executor.QueryRowContext(ctx, query,
		e.PatientID, e.DoctorID, e.FileName, e.FileURL, e.ObjectKey, e.ExamDate,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return 0, wrapDBError(err, "creating exam")
	}
	return e.ID, nil
}

func (r *examRepository) ListExams(ctx context.Context, doctorID, patientID int64) ([]models.Exam, error) {
	query := `SELECT id, patient_id, doctor_id, file_name, file_url, object_key, to_char(exam_date, 'YYYY-MM-DD'), created_at
	          FROM exams
	          WHERE patient_id = $1 AND doctor_id = $2
	          ORDER BY exam_date DESC NULLS LAST, created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, patientID, doctorID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing exams: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	exams := []models.Exam{}
	for rows.Next() {
		var e models.Exam
		if err := rows.Scan(&e.ID, &e.PatientID, &e.DoctorID, &e.FileName, &e.FileURL, &e.ObjectKey, &e.ExamDate, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning exam: %v", ErrDatabaseError, err)
		}
		exams = append(exams, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating exams: %v", ErrDatabaseError, err)
	}
	return exams, nil
}

func (r *examRepository) CreateOrder(ctx context.Context, executor SQLExecutor, o *models.ExamOrder) (int64, error) {
	query := `INSERT INTO exam_orders (patient_id, doctor_id, status, notes, due_date)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id, requested_at, created_at, updated_at`
	err := executor.QueryRowContext(ctx, query,
		o.PatientID, o.DoctorID, o.Status, o.Notes, o.DueDate,
	).Scan(&o.ID, &o.RequestedAt, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return 0, wrapDBError(err, "creating exam order")
	}
	return o.ID, nil
}

// UpdateOrder keeps the stored value for every nil argument.
func (r *examRepository) UpdateOrder(ctx context.Context, executor SQLExecutor, doctorID, id int64, notes, status *string) error {
	query := `UPDATE exam_orders
	          SET notes = COALESCE($1, notes), status = COALESCE($2, status), updated_at = NOW()
	          WHERE id = $3 AND doctor_id = $4`
	result, err := executor.ExecContext(ctx, query, notes, status, id, doctorID)
	if err != nil {
		return wrapDBError(err, "updating exam order")
	}
	return requireAffected(result, "updating exam order")
}

func (r *examRepository) DeleteOrder(ctx context.Context, executor SQLExecutor, doctorID, id int64) error {
	result, err := executor.ExecContext(ctx, `DELETE FROM exam_orders WHERE id = $1 AND doctor_id = $2`, id, doctorID)
	if err != nil {
		return wrapDBError(err, "deleting exam order")
	}
	return requireAffected(result, "deleting exam order")
}

func (r *examRepository) CreateOrderItem(ctx context.Context, executor SQLExecutor, item *models.ExamOrderItem) (int64, error) {
	query := `INSERT INTO exam_order_items (order_id, exam_code, exam_name, observations)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id`
	err := executor.QueryRowContext(ctx, query, item.OrderID, item.ExamCode, item.ExamName, item.Observations).Scan(&item.ID)
	if err != nil {
		return 0, wrapDBError(err, "creating exam order item")
	}
	return item.ID, nil
}

func (r *examRepository) DeleteOrderItems(ctx context.Context, executor SQLExecutor, orderID int64) error {
	if _, err := executor.ExecContext(ctx, `DELETE FROM exam_order_items WHERE order_id = $1`, orderID); err != nil {
		return wrapDBError(err, "deleting exam order items")
	}
	return nil
}

const examOrderColumns = `id, patient_id, doctor_id, status, notes, requested_at, to_char(due_date, 'YYYY-MM-DD'), created_at, updated_at`

func scanExamOrder(row scanner) (*models.ExamOrder, error) {
	o := &models.ExamOrder{}
	err := row.Scan(&o.ID, &o.PatientID, &o.DoctorID, &o.Status, &o.Notes, &o.RequestedAt, &o.DueDate, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.Items = []models.ExamOrderItem{}
	return o, nil
}

func (r *examRepository) GetOrder(ctx context.Context, doctorID, id int64) (*models.ExamOrder, error) {
	query := `SELECT ` + examOrderColumns + ` FROM exam_orders WHERE id = $1 AND doctor_id = $2`
	o, err := scanExamOrder(r.db.QueryRowContext(ctx, query, id, doctorID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting exam order %d: %v", ErrDatabaseError, id, err)
	}
	if err := r.attachOrderItems(ctx, map[int64]*models.ExamOrder{o.ID: o}); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *examRepository) ListOrdersByPatient(ctx context.Context, doctorID, patientID int64) ([]models.ExamOrder, error) {
	query := `SELECT ` + examOrderColumns + ` FROM exam_orders
	          WHERE patient_id = $1 AND doctor_id = $2
	          ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, patientID, doctorID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing exam orders: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	var list []*models.ExamOrder
	byID := map[int64]*models.ExamOrder{}
	for rows.Next() {
		o, err := scanExamOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning exam order: %v", ErrDatabaseError, err)
		}
		list = append(list, o)
		byID[o.ID] = o
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating exam orders: %v", ErrDatabaseError, err)
	}
	rows.Close()

	if err := r.attachOrderItems(ctx, byID); err != nil {
		return nil, err
	}
	out := make([]models.ExamOrder, 0, len(list))
	for _, o := range list {
		out = append(out, *o)
	}
	return out, nil
}

func (r *examRepository) attachOrderItems(ctx context.Context, byID map[int64]*models.ExamOrder) error {
	if len(byID) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	query := `SELECT id, order_id, exam_code, exam_name, observations
	          FROM exam_order_items WHERE order_id = ANY($1) ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("%w: listing exam order items: %v", ErrDatabaseError, err)
	}
	defer rows.Close()
	for rows.Next() {
		var it models.ExamOrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ExamCode, &it.ExamName, &it.Observations); err != nil {
			return fmt.Errorf("%w: scanning exam order item: %v", ErrDatabaseError, err)
		}
		if o, ok := byID[it.OrderID]; ok {
			o.Items = append(o.Items, it)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: iterating exam order items: %v", ErrDatabaseError, err)
	}
	return nil
}
