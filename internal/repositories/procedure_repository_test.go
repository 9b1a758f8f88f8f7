package repositories

import (
	"context"
	"testing"
	"time"

	"clinic_backend/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var procedureColumns = []string{
	"id", "user_id", "professional_id", "patient_id", "name", "to_char",
	"final_price", "profit_percent", "notes", "mode",
	"total_cost", "profit_value", "created_at", "updated_at",
	"before_url", "after_url", "professional_name",
}

func TestListProceduresAppliesFilters(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows(procedureColumns).
		AddRow(int64(11), int64(1), int64(3), int64(5), "Peeling", "2026-10-17",
			150.0, nil, nil, "BUDGET", nil, nil, now, now, "https://cdn/b.jpg", nil, "Dr. Ana")

	mock.ExpectQuery("FROM procedures p .* WHERE p.user_id = .* AND p.patient_id = .* AND p.professional_id = .* ORDER BY p.date_procedure DESC, p.id DESC").
		WithArgs(int64(1), int64(5), int64(3)).
		WillReturnRows(rows)

	patientID, professionalID := int64(5), int64(3)
	repo := NewProcedureRepository(db)
	list, err := repo.ListProcedures(context.Background(), 1, models.ProcedureFilters{
		PatientID:      &patientID,
		ProfessionalID: &professionalID,
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.ModeBudget, list[0].Mode)
	assert.True(t, list[0].IsBudget)
	assert.Equal(t, "2026-10-17", list[0].DateProcedure)
	require.NotNil(t, list[0].ProfessionalName)
	assert.Equal(t, "Dr. Ana", *list[0].ProfessionalName)
	require.NotNil(t, list[0].BeforeURL)
	assert.Nil(t, list[0].AfterURL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProcedureHeaderOutsideAccountIsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM procedures p").
		WithArgs(int64(11), int64(2)).
		WillReturnRows(sqlmock.NewRows(procedureColumns))

	_, err = NewProcedureRepository(db).GetProcedureHeader(context.Background(), 2, 11)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecomputeTotalsSkipsWhenRoutineMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT to_regprocedure").
		WillReturnRows(sqlmock.NewRows([]string{"installed"}).AddRow(false))

	ran, err := NewProcedureRepository(db).RecomputeTotals(context.Background(), 11)
	require.NoError(t, err)
	assert.False(t, ran)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecomputeTotalsCallsRoutine(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT to_regprocedure").
		WillReturnRows(sqlmock.NewRows([]string{"installed"}).AddRow(true))
	mock.ExpectExec("SELECT public.recompute_procedure_totals").
		WithArgs(int64(11)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ran, err := NewProcedureRepository(db).RecomputeTotals(context.Background(), 11)
	require.NoError(t, err)
	assert.True(t, ran)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteProcedureOfOtherAccountIsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("DELETE FROM procedure_items").WithArgs(int64(11), int64(2)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM procedure_machines").WithArgs(int64(11), int64(2)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM procedure_attachments").WithArgs(int64(11), int64(2)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM procedures WHERE").WithArgs(int64(11), int64(2)).WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewProcedureRepository(db).DeleteProcedure(context.Background(), db, 2, 11)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
