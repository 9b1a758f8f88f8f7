package services

import (
	"database/sql"
	"errors"
	"fmt"

	"clinic_backend/internal/repositories"
	"clinic_backend/pkg/utils"
)

var (
	ErrValidation         = errors.New("validation error")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrNotClinician       = errors.New("caller is not a clinician")
	ErrAccountNotFound    = errors.New("account not found")
	ErrClinicianNotFound  = errors.New("clinician not found")
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrTokenGeneration    = errors.New("failed to generate token")

	ErrPatientNotFound      = errors.New("patient not found")
	ErrAppointmentNotFound  = errors.New("appointment not found")
	ErrNothingToUpdate      = errors.New("nothing to update")
	ErrPrescriptionNotFound = errors.New("prescription not found")
	ErrExamOrderNotFound    = errors.New("exam order not found")
	ErrMaterialNotFound     = errors.New("material not found")
	ErrMachineNotFound      = errors.New("machine not found")
	ErrProcedureNotFound    = errors.New("procedure not found")

	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrIntegrityViolation   = errors.New("integrity violation")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrStorageUnavailable   = errors.New("file storage unavailable")
)

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// classifyWriteError maps constraint failures reported by the database onto
// service sentinels. Other errors pass through unchanged.
func classifyWriteError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrInsufficientStock):
		return fmt.Errorf("%w: %v", ErrInsufficientStock, err)
	case errors.Is(err, repositories.ErrValueOutOfRange):
		return validationError("a number is too large to store")
	case errors.Is(err, repositories.ErrForeignKey), errors.Is(err, repositories.ErrCheckViolation):
		return fmt.Errorf("%w: %v", ErrIntegrityViolation, err)
	}
	return err
}

// rollback is best effort; a failed rollback is logged and never returned.
func rollback(tx *sql.Tx, op string) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		utils.LogWarn(err, op+": rollback failed")
	}
}
