package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"clinic_backend/internal/models"
)

// ReportRepository reads the precomputed day aggregate views.
type ReportRepository interface {
	GetDayTotals(ctx context.Context, userID int64, date string) (*models.DayTotals, error)
	ListProfessionalTotals(ctx context.Context, userID int64, date string) ([]models.ProfessionalDayTotals, error)
}

type reportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) ReportRepository {
	return &reportRepository{db: db}
}

// GetDayTotals returns zero totals when nothing was recorded on date.
func (r *reportRepository) GetDayTotals(ctx context.Context, userID int64, date string) (*models.DayTotals, error) {
	query := `SELECT total_records,
	                 COALESCE(total_cost, 0), COALESCE(revenue, 0), COALESCE(total_profit, 0),
	                 avg_margin_percent
	          FROM vw_day_report
	          WHERE user_id = $1 AND date = $2::date`
	totals := &models.DayTotals{}
	err := r.db.QueryRowContext(ctx, query, userID, date).Scan(
		&totals.TotalRecords, &totals.TotalCost, &totals.Revenue, &totals.TotalProfit, &totals.AvgMarginPercent,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.DayTotals{}, nil
		}
		return nil, fmt.Errorf("%w: getting day totals for %s: %v", ErrDatabaseError, date, err)
	}
	return totals, nil
}

func (r *reportRepository) ListProfessionalTotals(ctx context.Context, userID int64, date string) ([]models.ProfessionalDayTotals, error) {
	query := `SELECT professional_id,
	                 COALESCE(total_cost, 0), COALESCE(final_price, 0), COALESCE(profit_value, 0),
	                 margin_percent
	          FROM vw_day_report_by_professional
	          WHERE user_id = $1 AND date = $2::date
	          ORDER BY professional_id`
	rows, err := r.db.QueryContext(ctx, query, userID, date)
	if err != nil {
		return nil, fmt.Errorf("%w: listing professional totals: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	out := []models.ProfessionalDayTotals{}
	for rows.Next() {
		var t models.ProfessionalDayTotals
		if err := rows.Scan(&t.ProfessionalID, &t.TotalCost, &t.FinalPrice, &t.ProfitValue, &t.MarginPercent); err != nil {
			return nil, fmt.Errorf("%w: scanning professional totals: %v", ErrDatabaseError, err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating professional totals: %v", ErrDatabaseError, err)
	}
	return out, nil
}
