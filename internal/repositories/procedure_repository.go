package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"clinic_backend/internal/models"
)

// ProcedureRepository persists procedures, their lines and attachments.
// Every read and write is scoped by the owning account id.
type ProcedureRepository interface {
	CreateProcedure(ctx context.Context, executor SQLExecutor, p *models.Procedure) (int64, error)
	CreateAttachment(ctx context.Context, executor SQLExecutor, procedureID int64, beforeURL, afterURL *string) error
	CreateItem(ctx context.Context, executor SQLExecutor, item *models.ProcedureItem) (int64, error)
	CreateMachineLine(ctx context.Context, executor SQLExecutor, line *models.ProcedureMachine) (int64, error)
	DeleteProcedure(ctx context.Context, executor SQLExecutor, userID, id int64) error

	GetProcedureHeader(ctx context.Context, userID, id int64) (*models.Procedure, error)
	GetProcedure(ctx context.Context, userID, id int64) (*models.Procedure, error)
	ListProcedures(ctx context.Context, userID int64, filters models.ProcedureFilters) ([]models.Procedure, error)

	// RecomputeTotals calls the database-side totals routine when it is installed.
	// It reports whether the routine ran.
	RecomputeTotals(ctx context.Context, id int64) (bool, error)
}

type procedureRepository struct {
	db *sql.DB
}

func NewProcedureRepository(db *sql.DB) ProcedureRepository {
	return &procedureRepository{db: db}
}

func (r *procedureRepository) CreateProcedure(ctx context.Context, executor SQLExecutor, p *models.Procedure) (int64, error) {
	query := `INSERT INTO procedures
	            (user_id, professional_id, patient_id, name, date_procedure,
	             final_price, profit_percent, notes, mode)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id, created_at, updated_at`
	err := executor.QueryRowContext(ctx, query,
		p.UserID, p.ProfessionalID, p.PatientID, p.Name, p.DateProcedure,
		p.FinalPrice, p.ProfitPercent, p.Notes, string(p.Mode),
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return 0, wrapDBError(err, "creating procedure")
	}
	p.IsBudget = p.Mode.IsBudget()
	return p.ID, nil
}

func (r *procedureRepository) CreateAttachment(ctx context.Context, executor SQLExecutor, procedureID int64, beforeURL, afterURL *string) error {
	query := `INSERT INTO procedure_attachments (procedure_id, before_url, after_url) VALUES ($1, $2, $3)`
	if _, err := executor.ExecContext(ctx, query, procedureID, beforeURL, afterURL); err != nil {
		return wrapDBError(err, "creating procedure attachment")
	}
	return nil
}

func (r *procedureRepository) CreateItem(ctx context.Context, executor SQLExecutor, item *models.ProcedureItem) (int64, error) {
	query := `INSERT INTO procedure_items
	            (procedure_id, user_id, material_id, manual_name, quantity, unit_cost, total_cost)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`
	err := executor.QueryRowContext(ctx, query,
		item.ProcedureID, item.UserID, item.MaterialID, item.ManualName,
		item.Quantity, item.UnitCost, item.TotalCost,
	).Scan(&item.ID)
	if err != nil {
		return 0, wrapDBError(err, "creating procedure item")
	}
	return item.ID, nil
}

func (r *procedureRepository) CreateMachineLine(ctx context.Context, executor SQLExecutor, line *models.ProcedureMachine) (int64, error) {
	query := `INSERT INTO procedure_machines
	            (procedure_id, user_id, machine_id, manual_name, cost_per_session)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id`
	err := executor.QueryRowContext(ctx, query,
		line.ProcedureID, line.UserID, line.MachineID, line.ManualName, line.CostPerSession,
	).Scan(&line.ID)
	if err != nil {
		return 0, wrapDBError(err, "creating procedure machine")
	}
	return line.ID, nil
}

// DeleteProcedure removes the lines, the attachment and the header. Stock is not restored.
func (r *procedureRepository) DeleteProcedure(ctx context.Context, executor SQLExecutor, userID, id int64) error {
	if _, err := executor.ExecContext(ctx, `DELETE FROM procedure_items WHERE procedure_id = $1 AND user_id = $2`, id, userID); err != nil {
		return wrapDBError(err, "deleting procedure items")
	}
	if _, err := executor.ExecContext(ctx, `DELETE FROM procedure_machines WHERE procedure_id = $1 AND user_id = $2`, id, userID); err != nil {
		return wrapDBError(err, "deleting procedure machines")
	}
	if _, err := executor.ExecContext(ctx, `DELETE FROM procedure_attachments
	          WHERE procedure_id IN (SELECT id FROM procedures WHERE id = $1 AND user_id = $2)`, id, userID); err != nil {
		return wrapDBError(err, "deleting procedure attachment")
	}
	result, err := executor.ExecContext(ctx, `DELETE FROM procedures WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return wrapDBError(err, "deleting procedure")
	}
	return requireAffected(result, "deleting procedure")
}

const procedureSelect = `
        SELECT
            p.id, p.user_id, p.professional_id, p.patient_id, p.name,
            to_char(p.date_procedure, 'YYYY-MM-DD'),
            p.final_price, p.profit_percent, p.notes, p.mode,
            p.total_cost, p.profit_value, p.created_at, p.updated_at,
            a.before_url, a.after_url,
            COALESCE(NULLIF(d.name, ''), NULLIF(u.username, ''), 'Profissional #' || p.professional_id::text) AS professional_name
        FROM procedures p
        LEFT JOIN procedure_attachments a ON a.procedure_id = p.id
        LEFT JOIN doctors d ON d.id = p.professional_id
        LEFT JOIN users u ON u.id = d.user_id`

func scanProcedure(row scanner) (*models.Procedure, error) {
	p := &models.Procedure{}
	var mode string
	err := row.Scan(
		&p.ID, &p.UserID, &p.ProfessionalID, &p.PatientID, &p.Name,
		&p.DateProcedure,
		&p.FinalPrice, &p.ProfitPercent, &p.Notes, &mode,
		&p.TotalCost, &p.ProfitValue, &p.CreatedAt, &p.UpdatedAt,
		&p.BeforeURL, &p.AfterURL,
		&p.ProfessionalName,
	)
	if err != nil {
		return nil, err
	}
	p.Mode = models.ProcedureMode(mode)
	p.IsBudget = p.Mode.IsBudget()
	return p, nil
}

func (r *procedureRepository) GetProcedureHeader(ctx context.Context, userID, id int64) (*models.Procedure, error) {
	query := procedureSelect + ` WHERE p.id = $1 AND p.user_id = $2`
	p, err := scanProcedure(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting procedure %d: %v", ErrDatabaseError, id, err)
	}
	return p, nil
}

func (r *procedureRepository) GetProcedure(ctx context.Context, userID, id int64) (*models.Procedure, error) {
	p, err := r.GetProcedureHeader(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if p.Items, err = r.listItems(ctx, userID, id); err != nil {
		return nil, err
	}
	if p.Machines, err = r.listMachines(ctx, userID, id); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *procedureRepository) listItems(ctx context.Context, userID, procedureID int64) ([]models.ProcedureItem, error) {
	query := `SELECT i.id, i.procedure_id, i.user_id, i.material_id, i.manual_name,
	                 COALESCE(m.name, i.manual_name), i.quantity, i.unit_cost, i.total_cost
	          FROM procedure_items i
	          LEFT JOIN materials m ON m.id = i.material_id
	          WHERE i.procedure_id = $1 AND i.user_id = $2
	          ORDER BY i.id`
	rows, err := r.db.QueryContext(ctx, query, procedureID, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing procedure items: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	items := []models.ProcedureItem{}
	for rows.Next() {
		var it models.ProcedureItem
		if err := rows.Scan(&it.ID, &it.ProcedureID, &it.UserID, &it.MaterialID, &it.ManualName,
			&it.Name, &it.Quantity, &it.UnitCost, &it.TotalCost); err != nil {
			return nil, fmt.Errorf("%w: scanning procedure item: %v", ErrDatabaseError, err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating procedure items: %v", ErrDatabaseError, err)
	}
	return items, nil
}

func (r *procedureRepository) listMachines(ctx context.Context, userID, procedureID int64) ([]models.ProcedureMachine, error) {
	query := `SELECT pm.id, pm.procedure_id, pm.user_id, pm.machine_id, pm.manual_name,
	                 COALESCE(m.name, pm.manual_name), pm.cost_per_session
	          FROM procedure_machines pm
	          LEFT JOIN machines m ON m.id = pm.machine_id
	          WHERE pm.procedure_id = $1 AND pm.user_id = $2
	          ORDER BY pm.id`
	rows, err := r.db.QueryContext(ctx, query, procedureID, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing procedure machines: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	lines := []models.ProcedureMachine{}
	for rows.Next() {
		var l models.ProcedureMachine
		if err := rows.Scan(&l.ID, &l.ProcedureID, &l.UserID, &l.MachineID, &l.ManualName,
			&l.Name, &l.CostPerSession); err != nil {
			return nil, fmt.Errorf("%w: scanning procedure machine: %v", ErrDatabaseError, err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating procedure machines: %v", ErrDatabaseError, err)
	}
	return lines, nil
}

func (r *procedureRepository) ListProcedures(ctx context.Context, userID int64, filters models.ProcedureFilters) ([]models.Procedure, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(procedureSelect)

	conditions := []string{"p.user_id = $1"}
	args := []interface{}{userID}
	argCounter := 2

	if filters.PatientID != nil {
		conditions = append(conditions, fmt.Sprintf("p.patient_id = $%d", argCounter))
		args = append(args, *filters.PatientID)
		argCounter++
	}
	if filters.ProfessionalID != nil {
		conditions = append(conditions, fmt.Sprintf("p.professional_id = $%d", argCounter))
		args = append(args, *filters.ProfessionalID)
	}

	queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	queryBuilder.WriteString(" ORDER BY p.date_procedure DESC, p.id DESC")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: listing procedures: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	procedures := []models.Procedure{}
	for rows.Next() {
		p, err := scanProcedure(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning procedure: %v", ErrDatabaseError, err)
		}
		procedures = append(procedures, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating procedures: %v", ErrDatabaseError, err)
	}
	return procedures, nil
}

func (r *procedureRepository) RecomputeTotals(ctx context.Context, id int64) (bool, error) {
	var installed bool
	err := r.db.QueryRowContext(ctx,
		`SELECT to_regprocedure('public.recompute_procedure_totals(bigint)') IS NOT NULL`,
	).Scan(&installed)
	if err != nil {
		return false, fmt.Errorf("%w: probing recompute routine: %v", ErrDatabaseError, err)
	}
	if !installed {
		return false, nil
	}
	if _, err := r.db.ExecContext(ctx, `SELECT public.recompute_procedure_totals($1)`, id); err != nil {
		return false, fmt.Errorf("%w: recomputing procedure %d totals: %v", ErrDatabaseError, id, err)
	}
	return true, nil
}
