package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"clinic_backend/internal/models"
	"clinic_backend/internal/repositories"
	"clinic_backend/pkg/utils"
)

type ExamOrderItemRequest struct {
	ExamCode     *string `json:"exam_code"`
	ExamName     string  `json:"exam_name" binding:"required"`
	Observations *string `json:"observations"`
}

type CreateExamOrderRequest struct {
	PatientID int64                  `json:"patient_id" binding:"required"`
	Notes     *string                `json:"notes"`
	DueDate   *string                `json:"due_date"`
	Items     []ExamOrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

// UpdateExamOrderRequest keeps stored values for nil fields. A non-nil Items replaces every item.
type UpdateExamOrderRequest struct {
	Notes  *string                 `json:"notes"`
	Status *string                 `json:"status"`
	Items  *[]ExamOrderItemRequest `json:"items"`
}

type ExamService interface {
	UploadExam(ctx context.Context, doctorID, patientID int64, examDate *string, file FileUpload) (*models.Exam, error)
	ListExams(ctx context.Context, doctorID, patientID int64) ([]models.Exam, error)

	CreateOrder(ctx context.Context, doctorID int64, req CreateExamOrderRequest) (*models.ExamOrder, error)
	GetOrder(ctx context.Context, doctorID, id int64) (*models.ExamOrder, error)
	ListOrders(ctx context.Context, doctorID, patientID int64) ([]models.ExamOrder, error)
	UpdateOrder(ctx context.Context, doctorID, id int64, req UpdateExamOrderRequest) (*models.ExamOrder, error)
	DeleteOrder(ctx context.Context, doctorID, id int64) error
}

type examService struct {
	examRepo    repositories.ExamRepository
	patientRepo repositories.PatientRepository
	store       FileStore
	db          *sql.DB
}

func NewExamService(examRepo repositories.ExamRepository, patientRepo repositories.PatientRepository, store FileStore, db *sql.DB) ExamService {
	return &examService{examRepo: examRepo, patientRepo: patientRepo, store: store, db: db}
}

func (s *examService) UploadExam(ctx context.Context, doctorID, patientID int64, examDate *string, file FileUpload) (*models.Exam, error) {
	if file.detectedType() != "application/pdf" {
		return nil, fmt.Errorf("%w: exams must be PDF files", ErrUnsupportedMediaType)
	}
	examDate = utils.BlankToNil(examDate)
	if examDate != nil && !utils.IsISODate(*examDate) {
		return nil, validationError("exam_date must be YYYY-MM-DD")
	}
	if err := ensurePatient(ctx, s.patientRepo, doctorID, patientID); err != nil {
		return nil, err
	}

	key := objectKey(fmt.Sprintf("exams/doctor_%d/patient_%d", doctorID, patientID), file.Name, "exam.pdf")
	url, err := putFile(ctx, s.store, key, "application/pdf", file)
	if err != nil {
		return nil, err
	}

	exam := &models.Exam{
		PatientID: patientID,
		DoctorID:  doctorID,
		FileName:  file.Name,
		FileURL:   url,
		ObjectKey: &key,
		ExamDate:  examDate,
	}
	if _, err := s.examRepo.CreateExam(ctx, s.db, exam); err != nil {
		return nil, fmt.Errorf("failed to record exam: %w", classifyWriteError(err))
	}
	return exam, nil
}

func (s *examService) ListExams(ctx context.Context, doctorID, patientID int64) ([]models.Exam, error) {
	if err := ensurePatient(ctx, s.patientRepo, doctorID, patientID); err != nil {
		return nil, err
	}
	list, err := s.examRepo.ListExams(ctx, doctorID, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list exams: %w", err)
	}
	return list, nil
}

func (s *examService) insertOrderItems(ctx context.Context, tx *sql.Tx, orderID int64, items []ExamOrderItemRequest) error {
	for _, it := range items {
		item := &models.ExamOrderItem{
			OrderID:      orderID,
			ExamCode:     utils.BlankToNil(it.ExamCode),
			ExamName:     strings.TrimSpace(it.ExamName),
			Observations: utils.BlankToNil(it.Observations),
		}
		if _, err := s.examRepo.CreateOrderItem(ctx, tx, item); err != nil {
			return fmt.Errorf("failed to create exam order item: %w", classifyWriteError(err))
		}
	}
	return nil
}

func validateOrderItems(items []ExamOrderItemRequest) error {
	if len(items) == 0 {
		return validationError("at least one exam is required")
	}
	for i, it := range items {
		if utils.IsEmpty(it.ExamName) {
			return validationError("items[%d].exam_name is required", i)
		}
	}
	return nil
}

func (s *examService) CreateOrder(ctx context.Context, doctorID int64, req CreateExamOrderRequest) (*models.ExamOrder, error) {
	if err := validateOrderItems(req.Items); err != nil {
		return nil, err
	}
	dueDate := utils.BlankToNil(req.DueDate)
	if dueDate != nil && !utils.IsISODate(*dueDate) {
		return nil, validationError("due_date must be YYYY-MM-DD")
	}
	if err := ensurePatient(ctx, s.patientRepo, doctorID, req.PatientID); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer rollback(tx, "CreateExamOrder")

	order := &models.ExamOrder{
		PatientID: req.PatientID,
		DoctorID:  doctorID,
		Status:    models.ExamOrderStatusDraft,
		Notes:     utils.BlankToNil(req.Notes),
		DueDate:   dueDate,
	}
	if _, err := s.examRepo.CreateOrder(ctx, tx, order); err != nil {
		return nil, fmt.Errorf("failed to create exam order: %w", classifyWriteError(err))
	}
	if err := s.insertOrderItems(ctx, tx, order.ID, req.Items); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit exam order: %w", err)
	}
	return s.GetOrder(ctx, doctorID, order.ID)
}

func (s *examService) GetOrder(ctx context.Context, doctorID, id int64) (*models.ExamOrder, error) {
	order, err := s.examRepo.GetOrder(ctx, doctorID, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrExamOrderNotFound
		}
		return nil, fmt.Errorf("failed to get exam order: %w", err)
	}
	return order, nil
}

func (s *examService) ListOrders(ctx context.Context, doctorID, patientID int64) ([]models.ExamOrder, error) {
	if err := ensurePatient(ctx, s.patientRepo, doctorID, patientID); err != nil {
		return nil, err
	}
	list, err := s.examRepo.ListOrdersByPatient(ctx, doctorID, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list exam orders: %w", err)
	}
	return list, nil
}

func (s *examService) UpdateOrder(ctx context.Context, doctorID, id int64, req UpdateExamOrderRequest) (*models.ExamOrder, error) {
	if req.Items != nil {
		if err := validateOrderItems(*req.Items); err != nil {
			return nil, err
		}
	}
	var status *string
	if req.Status != nil {
		upper := strings.ToUpper(strings.TrimSpace(*req.Status))
		if upper == "" {
			return nil, validationError("status must not be blank")
		}
		status = &upper
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer rollback(tx, "UpdateExamOrder")

	if err := s.examRepo.UpdateOrder(ctx, tx, doctorID, id, req.Notes, status); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrExamOrderNotFound
		}
		return nil, fmt.Errorf("failed to update exam order: %w", classifyWriteError(err))
	}
	if req.Items != nil {
		if err := s.examRepo.DeleteOrderItems(ctx, tx, id); err != nil {
			return nil, fmt.Errorf("failed to replace exam order items: %w", err)
		}
		if err := s.insertOrderItems(ctx, tx, id, *req.Items); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit exam order: %w", err)
	}
	return s.GetOrder(ctx, doctorID, id)
}

func (s *examService) DeleteOrder(ctx context.Context, doctorID, id int64) error {
	if err := s.examRepo.DeleteOrder(ctx, s.db, doctorID, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrExamOrderNotFound
		}
		return fmt.Errorf("failed to delete exam order: %w", err)
	}
	return nil
}
