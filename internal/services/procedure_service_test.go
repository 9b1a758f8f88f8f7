package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"clinic_backend/internal/metrics"
	"clinic_backend/internal/models"
	"clinic_backend/internal/repositories"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToday = "2026-10-17"

var procedureHeaderColumns = []string{
	"id", "user_id", "professional_id", "patient_id", "name", "to_char",
	"final_price", "profit_percent", "notes", "mode",
	"total_cost", "profit_value", "created_at", "updated_at",
	"before_url", "after_url", "professional_name",
}

func newProcedureServiceForTest(t *testing.T) (ProcedureService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	clock := func() time.Time { return time.Date(2026, 10, 17, 15, 30, 0, 0, time.UTC) }
	svc := NewProcedureService(
		repositories.NewProcedureRepository(db),
		repositories.NewPatientRepository(db),
		repositories.NewMaterialRepository(db),
		repositories.NewMachineRepository(db),
		db,
		metrics.NewClinicMetrics(prometheus.NewRegistry()),
		time.UTC,
		clock,
	)
	return svc, mock
}

func clinician() *models.Identity {
	id := int64(3)
	return &models.Identity{AccountID: 1, ClinicianID: &id, Email: "dr@clinic.test", AccountType: models.AccountTypeDoctor}
}

var pqForeignKeyError = pq.Error{Code: "23503", Constraint: "procedures_patient_id_fkey"}

func f64(v float64) *float64 { return &v }
func i64(v int64) *int64     { return &v }
func str(v string) *string   { return &v }

func expectHeaderInsert(mock sqlmock.Sqlmock, id int64) {
	now := time.Now()
	mock.ExpectQuery("INSERT INTO procedures").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(id, now, now))
}

func expectReload(mock sqlmock.Sqlmock, id int64, mode string) {
	now := time.Now()
	mock.ExpectQuery("FROM procedures p").
		WithArgs(id, int64(1)).
		WillReturnRows(sqlmock.NewRows(procedureHeaderColumns).AddRow(
			id, int64(1), int64(3), nil, "Limpeza de pele", testToday,
			nil, nil, nil, mode, 20.0, nil, now, now, nil, nil, "Dr. Ana"))
}

func TestCreateProcedureDecrementsStockAndPricesLine(t *testing.T) {
	svc, mock := newProcedureServiceForTest(t)

	mock.ExpectBegin()
	expectHeaderInsert(mock, 11)
	mock.ExpectQuery("SELECT price FROM materials").
		WithArgs(int64(7), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"price"}).AddRow(10.0))
	mock.ExpectQuery("UPDATE materials SET stock = stock -").
		WithArgs(2.0, int64(7), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"stock"}).AddRow(3.0))
	mock.ExpectQuery("INSERT INTO procedure_items").
		WithArgs(int64(11), int64(1), int64(7), nil, 2.0, 10.0, 20.0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT to_regprocedure").
		WillReturnRows(sqlmock.NewRows([]string{"installed"}).AddRow(false))
	expectReload(mock, 11, "DONE")

	p, err := svc.CreateProcedure(context.Background(), clinician(), CreateProcedureRequest{
		Name:          "Limpeza de pele",
		DateProcedure: testToday,
		Items:         []ProcedureItemRequest{{MaterialID: i64(7), Quantity: f64(2)}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(11), p.ID)
	assert.Equal(t, models.ModeDone, p.Mode)
	assert.False(t, p.IsBudget)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateProcedureInsufficientStockRollsBack(t *testing.T) {
	svc, mock := newProcedureServiceForTest(t)

	mock.ExpectBegin()
	expectHeaderInsert(mock, 11)
	mock.ExpectQuery("SELECT price FROM materials").
		WithArgs(int64(7), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"price"}).AddRow(10.0))
	mock.ExpectQuery("UPDATE materials SET stock = stock -").
		WithArgs(2.0, int64(7), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"stock"}))
	mock.ExpectRollback()

	_, err := svc.CreateProcedure(context.Background(), clinician(), CreateProcedureRequest{
		Name:          "Limpeza de pele",
		DateProcedure: testToday,
		Items:         []ProcedureItemRequest{{MaterialID: i64(7), Quantity: f64(2)}},
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateProcedureBudgetKeepsStock(t *testing.T) {
	svc, mock := newProcedureServiceForTest(t)

	mock.ExpectBegin()
	expectHeaderInsert(mock, 12)
	mock.ExpectQuery("SELECT price FROM materials").
		WithArgs(int64(7), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"price"}).AddRow(10.0))
	mock.ExpectQuery("INSERT INTO procedure_items").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT to_regprocedure").
		WillReturnRows(sqlmock.NewRows([]string{"installed"}).AddRow(false))
	expectReload(mock, 12, "BUDGET")

	p, err := svc.CreateProcedure(context.Background(), clinician(), CreateProcedureRequest{
		Name:          "Orçamento peeling",
		DateProcedure: testToday,
		Mode:          str("budget"),
		Items:         []ProcedureItemRequest{{MaterialID: i64(7), Quantity: f64(2)}},
	})
	require.NoError(t, err)
	assert.True(t, p.IsBudget)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateProcedureLegacyBudgetFlagAndStockAlias(t *testing.T) {
	svc, mock := newProcedureServiceForTest(t)

	mock.ExpectBegin()
	expectHeaderInsert(mock, 13)
	mock.ExpectQuery("SELECT cost_per_session FROM machines").
		WithArgs(int64(4), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"cost_per_session"}).AddRow(35.5))
	mock.ExpectQuery("INSERT INTO procedure_machines").
		WithArgs(int64(13), int64(1), int64(4), nil, 35.5).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT to_regprocedure").
		WillReturnRows(sqlmock.NewRows([]string{"installed"}).AddRow(false))
	expectReload(mock, 13, "BUDGET")

	budget := true
	_, err := svc.CreateProcedure(context.Background(), clinician(), CreateProcedureRequest{
		Name:          "Laser",
		DateProcedure: testToday,
		IsBudget:      &budget,
		Machines:      []ProcedureMachineRequest{{StockID: i64(4)}},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateProcedureManualLinesAndAttachment(t *testing.T) {
	svc, mock := newProcedureServiceForTest(t)

	mock.ExpectBegin()
	expectHeaderInsert(mock, 14)
	mock.ExpectExec("INSERT INTO procedure_attachments").
		WithArgs(int64(14), "https://cdn/before.jpg", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO procedure_machines").
		WithArgs(int64(14), int64(1), nil, "Radiofrequência", 50.0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectQuery("INSERT INTO procedure_items").
		WithArgs(int64(14), int64(1), nil, "gaze", 3.0, 0.333, 1.0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(2)))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT to_regprocedure").
		WillReturnRows(sqlmock.NewRows([]string{"installed"}).AddRow(false))
	expectReload(mock, 14, "APPLICATION")

	_, err := svc.CreateProcedure(context.Background(), clinician(), CreateProcedureRequest{
		Name:          "Aplicação",
		DateProcedure: testToday,
		Mode:          str("APPLICATION"),
		Attachments:   &ProcedureAttachmentsRequest{BeforeURL: str("https://cdn/before.jpg"), AfterURL: str("  ")},
		Machines:      []ProcedureMachineRequest{{ManualName: str(" Radiofrequência "), CostPerSession: f64(50)}},
		Items:         []ProcedureItemRequest{{ManualName: str("gaze"), Quantity: f64(3), UnitCost: f64(0.333)}},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateProcedureApplicationDecrementsStock(t *testing.T) {
	svc, mock := newProcedureServiceForTest(t)

	mock.ExpectBegin()
	expectHeaderInsert(mock, 15)
	mock.ExpectQuery("SELECT price FROM materials").
		WillReturnRows(sqlmock.NewRows([]string{"price"}).AddRow(10.0))
	mock.ExpectQuery("UPDATE materials SET stock = stock -").
		WithArgs(1.0, int64(7), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"stock"}).AddRow(4.0))
	mock.ExpectQuery("INSERT INTO procedure_items").
		WithArgs(int64(15), int64(1), int64(7), nil, 1.0, 8.0, 8.0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT to_regprocedure").
		WillReturnRows(sqlmock.NewRows([]string{"installed"}).AddRow(false))
	expectReload(mock, 15, "APPLICATION")

	_, err := svc.CreateProcedure(context.Background(), clinician(), CreateProcedureRequest{
		Name:          "Toxina",
		DateProcedure: testToday,
		Mode:          str("APPLICATION"),
		Items:         []ProcedureItemRequest{{MaterialID: i64(7), Quantity: f64(1), UnitCost: f64(8)}},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateProcedureMachineNotFoundRollsBack(t *testing.T) {
	svc, mock := newProcedureServiceForTest(t)

	mock.ExpectBegin()
	expectHeaderInsert(mock, 16)
	mock.ExpectQuery("SELECT cost_per_session FROM machines").
		WithArgs(int64(99), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"cost_per_session"}))
	mock.ExpectRollback()

	_, err := svc.CreateProcedure(context.Background(), clinician(), CreateProcedureRequest{
		Name:          "Laser",
		DateProcedure: testToday,
		Machines:      []ProcedureMachineRequest{{MachineID: i64(99), CostPerSession: f64(10)}},
	})
	assert.ErrorIs(t, err, ErrMachineNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateProcedureMaterialNotFoundRollsBack(t *testing.T) {
	svc, mock := newProcedureServiceForTest(t)

	mock.ExpectBegin()
	expectHeaderInsert(mock, 17)
	mock.ExpectQuery("SELECT price FROM materials").
		WithArgs(int64(70), int64(1)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := svc.CreateProcedure(context.Background(), clinician(), CreateProcedureRequest{
		Name:          "Peeling",
		DateProcedure: testToday,
		Items:         []ProcedureItemRequest{{MaterialID: i64(70), Quantity: f64(1)}},
	})
	assert.ErrorIs(t, err, ErrMaterialNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateProcedureRecomputeFailureIsIgnored(t *testing.T) {
	svc, mock := newProcedureServiceForTest(t)

	mock.ExpectBegin()
	expectHeaderInsert(mock, 18)
	mock.ExpectQuery("INSERT INTO procedure_items").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT to_regprocedure").
		WillReturnRows(sqlmock.NewRows([]string{"installed"}).AddRow(true))
	mock.ExpectExec("SELECT public.recompute_procedure_totals").
		WithArgs(int64(18)).
		WillReturnError(errors.New("division by zero"))
	expectReload(mock, 18, "DONE")

	p, err := svc.CreateProcedure(context.Background(), clinician(), CreateProcedureRequest{
		Name:          "Massagem",
		DateProcedure: testToday,
		Items:         []ProcedureItemRequest{{ManualName: str("óleo"), Quantity: f64(1), UnitCost: f64(5)}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(18), p.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func expectPatientOwnership(mock sqlmock.Sqlmock, patientID int64, owned bool) {
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(patientID, int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(owned))
}

func TestCreateProcedureIntegrityViolation(t *testing.T) {
	svc, mock := newProcedureServiceForTest(t)

	expectPatientOwnership(mock, 404, true)
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO procedures").
		WillReturnError(&pqForeignKeyError)
	mock.ExpectRollback()

	_, err := svc.CreateProcedure(context.Background(), clinician(), CreateProcedureRequest{
		Name:          "Peeling",
		PatientID:     i64(404),
		DateProcedure: testToday,
		Items:         []ProcedureItemRequest{{ManualName: str("gaze"), Quantity: f64(1), UnitCost: f64(1)}},
	})
	assert.ErrorIs(t, err, ErrIntegrityViolation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateProcedureRejectsBeforeAnyWrite(t *testing.T) {
	cases := []struct {
		name     string
		identity *models.Identity
		req      CreateProcedureRequest
		want     error
	}{
		{
			name:     "caller is not a clinician",
			identity: &models.Identity{AccountID: 1, AccountType: models.AccountTypeStaff},
			req:      CreateProcedureRequest{Name: "Peeling", DateProcedure: testToday, Items: []ProcedureItemRequest{{MaterialID: i64(7), Quantity: f64(1)}}},
			want:     ErrNotClinician,
		},
		{
			name: "short name",
			req:  CreateProcedureRequest{Name: " ab ", DateProcedure: testToday, Items: []ProcedureItemRequest{{MaterialID: i64(7), Quantity: f64(1)}}},
			want: ErrValidation,
		},
		{
			name: "malformed date",
			req:  CreateProcedureRequest{Name: "Peeling", DateProcedure: "17/10/2026", Items: []ProcedureItemRequest{{MaterialID: i64(7), Quantity: f64(1)}}},
			want: ErrValidation,
		},
		{
			name: "date is not today",
			req:  CreateProcedureRequest{Name: "Peeling", DateProcedure: "2026-10-16", Items: []ProcedureItemRequest{{MaterialID: i64(7), Quantity: f64(1)}}},
			want: ErrValidation,
		},
		{
			name: "no items and no machines",
			req:  CreateProcedureRequest{Name: "Peeling", DateProcedure: testToday},
			want: ErrValidation,
		},
		{
			name: "item with both origins",
			req:  CreateProcedureRequest{Name: "Peeling", DateProcedure: testToday, Items: []ProcedureItemRequest{{MaterialID: i64(7), ManualName: str("gauze"), Quantity: f64(1)}}},
			want: ErrValidation,
		},
		{
			name: "item with no origin",
			req:  CreateProcedureRequest{Name: "Peeling", DateProcedure: testToday, Items: []ProcedureItemRequest{{ManualName: str("  "), Quantity: f64(1)}}},
			want: ErrValidation,
		},
		{
			name: "machine with both origins",
			req:  CreateProcedureRequest{Name: "Peeling", DateProcedure: testToday, Machines: []ProcedureMachineRequest{{MachineID: i64(1), ManualName: str("laser")}}},
			want: ErrValidation,
		},
		{
			name: "negative quantity",
			req:  CreateProcedureRequest{Name: "Peeling", DateProcedure: testToday, Items: []ProcedureItemRequest{{MaterialID: i64(7), Quantity: f64(-1)}}},
			want: ErrValidation,
		},
		{
			name: "missing quantity",
			req:  CreateProcedureRequest{Name: "Peeling", DateProcedure: testToday, Items: []ProcedureItemRequest{{MaterialID: i64(7)}}},
			want: ErrValidation,
		},
		{
			name: "manual line total overflows",
			req: CreateProcedureRequest{Name: "Peeling", DateProcedure: testToday, Mode: str("BUDGET"),
				Items: []ProcedureItemRequest{{ManualName: str("gaze"), Quantity: f64(1e200), UnitCost: f64(1e200)}}},
			want: ErrValidation,
		},
		{
			name: "unknown mode",
			req:  CreateProcedureRequest{Name: "Peeling", DateProcedure: testToday, Mode: str("DRAFT"), Items: []ProcedureItemRequest{{MaterialID: i64(7), Quantity: f64(1)}}},
			want: ErrValidation,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, mock := newProcedureServiceForTest(t)
			identity := tc.identity
			if identity == nil {
				identity = clinician()
			}
			_, err := svc.CreateProcedure(context.Background(), identity, tc.req)
			assert.ErrorIs(t, err, tc.want)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCreateProcedureForeignPatientIsRejected(t *testing.T) {
	svc, mock := newProcedureServiceForTest(t)

	expectPatientOwnership(mock, 9, false)

	_, err := svc.CreateProcedure(context.Background(), clinician(), CreateProcedureRequest{
		Name:          "Peeling",
		PatientID:     i64(9),
		DateProcedure: testToday,
		Items:         []ProcedureItemRequest{{ManualName: str("gaze"), Quantity: f64(1), UnitCost: f64(1)}},
	})
	assert.ErrorIs(t, err, ErrPatientNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateProcedureCatalogTotalOverflowRollsBack(t *testing.T) {
	svc, mock := newProcedureServiceForTest(t)

	mock.ExpectBegin()
	expectHeaderInsert(mock, 13)
	mock.ExpectQuery("SELECT price FROM materials").
		WithArgs(int64(7), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"price"}).AddRow(1e300))
	mock.ExpectRollback()

	_, err := svc.CreateProcedure(context.Background(), clinician(), CreateProcedureRequest{
		Name:          "Peeling",
		DateProcedure: testToday,
		Mode:          str("BUDGET"),
		Items:         []ProcedureItemRequest{{MaterialID: i64(7), Quantity: f64(1e10)}},
	})
	assert.ErrorIs(t, err, ErrValidation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateProcedureNumericOverflowIsValidation(t *testing.T) {
	svc, mock := newProcedureServiceForTest(t)

	mock.ExpectBegin()
	expectHeaderInsert(mock, 14)
	mock.ExpectQuery("INSERT INTO procedure_items").
		WillReturnError(&pq.Error{Code: "22003"})
	mock.ExpectRollback()

	_, err := svc.CreateProcedure(context.Background(), clinician(), CreateProcedureRequest{
		Name:          "Peeling",
		DateProcedure: testToday,
		Items:         []ProcedureItemRequest{{ManualName: str("gaze"), Quantity: f64(1), UnitCost: f64(9e12)}},
	})
	assert.ErrorIs(t, err, ErrValidation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteProcedureRunsInTransaction(t *testing.T) {
	svc, mock := newProcedureServiceForTest(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM procedure_items").WithArgs(int64(11), int64(1)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM procedure_machines").WithArgs(int64(11), int64(1)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM procedure_attachments").WithArgs(int64(11), int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM procedures WHERE").WithArgs(int64(11), int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, svc.DeleteProcedure(context.Background(), clinician(), 11))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMissingProcedure(t *testing.T) {
	svc, mock := newProcedureServiceForTest(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM procedure_items").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM procedure_machines").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM procedure_attachments").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM procedures WHERE").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := svc.DeleteProcedure(context.Background(), clinician(), 11)
	assert.ErrorIs(t, err, ErrProcedureNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
