package handlers

import (
	"net/http"
	"strings"

	"clinic_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// ExamHandler serves uploaded exam results and exam orders.
type ExamHandler struct {
	examService services.ExamService
}

func NewExamHandler(es services.ExamService) *ExamHandler {
	return &ExamHandler{examService: es}
}

// UploadExam stores a PDF result for the patient. exam_date is optional.
func (h *ExamHandler) UploadExam(c *gin.Context) {
	doctorID, ok := callerClinicianID(c)
	if !ok {
		return
	}
	patientID, ok := parseIDParam(c, "id", "patient")
	if !ok {
		return
	}
	file, closer, ok := formFile(c, "file")
	if !ok {
		return
	}
	defer closer.Close()

	var examDate *string
	if v := strings.TrimSpace(c.PostForm("exam_date")); v != "" {
		examDate = &v
	}

	exam, err := h.examService.UploadExam(c.Request.Context(), doctorID, patientID, examDate, file)
	if err != nil {
		respondServiceError(c, err, "UploadExam: Error from examService.UploadExam", "Failed to upload exam.")
		return
	}
	c.JSON(http.StatusCreated, exam)
}

func (h *ExamHandler) ListExams(c *gin.Context) {
	doctorID, ok := callerClinicianID(c)
	if !ok {
		return
	}
	patientID, ok := parseIDParam(c, "id", "patient")
	if !ok {
		return
	}

	exams, err := h.examService.ListExams(c.Request.Context(), doctorID, patientID)
	if err != nil {
		respondServiceError(c, err, "ListExams: Error from examService.ListExams", "Failed to retrieve exams.")
		return
	}
	c.JSON(http.StatusOK, exams)
}

// Exam orders

func (h *ExamHandler) CreateOrder(c *gin.Context) {
	doctorID, ok := callerClinicianID(c)
	if !ok {
		return
	}
	var req services.CreateExamOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "CreateExamOrder")
		return
	}

	order, err := h.examService.CreateOrder(c.Request.Context(), doctorID, req)
	if err != nil {
		respondServiceError(c, err, "CreateExamOrder: Error from examService.CreateOrder", "Failed to create exam order.")
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *ExamHandler) GetOrder(c *gin.Context) {
	doctorID, ok := callerClinicianID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "exam order")
	if !ok {
		return
	}

	order, err := h.examService.GetOrder(c.Request.Context(), doctorID, id)
	if err != nil {
		respondServiceError(c, err, "GetExamOrder: Error from examService.GetOrder for ID "+c.Param("id"), "Failed to retrieve exam order.")
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *ExamHandler) ListOrders(c *gin.Context) {
	doctorID, ok := callerClinicianID(c)
	if !ok {
		return
	}
	patientID, ok := parseIDParam(c, "id", "patient")
	if !ok {
		return
	}

	orders, err := h.examService.ListOrders(c.Request.Context(), doctorID, patientID)
	if err != nil {
		respondServiceError(c, err, "ListExamOrders: Error from examService.ListOrders", "Failed to retrieve exam orders.")
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *ExamHandler) UpdateOrder(c *gin.Context) {
	doctorID, ok := callerClinicianID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "exam order")
	if !ok {
		return
	}
	var req services.UpdateExamOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "UpdateExamOrder")
		return
	}

	order, err := h.examService.UpdateOrder(c.Request.Context(), doctorID, id, req)
	if err != nil {
		respondServiceError(c, err, "UpdateExamOrder: Error from examService.UpdateOrder for ID "+c.Param("id"), "Failed to update exam order.")
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *ExamHandler) DeleteOrder(c *gin.Context) {
	doctorID, ok := callerClinicianID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "exam order")
	if !ok {
		return
	}

	if err := h.examService.DeleteOrder(c.Request.Context(), doctorID, id); err != nil {
		respondServiceError(c, err, "DeleteExamOrder: Error from examService.DeleteOrder for ID "+c.Param("id"), "Failed to delete exam order.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Exam order deleted successfully"})
}
