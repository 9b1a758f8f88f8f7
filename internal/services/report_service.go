package services

import (
	"context"
	"fmt"

	"clinic_backend/internal/models"
	"clinic_backend/internal/repositories"
	"clinic_backend/pkg/utils"
)

// ReportService reads the day aggregates. Budgets are excluded by the views.
type ReportService interface {
	GetDayReport(ctx context.Context, identity *models.Identity, date string) (*models.DayReport, error)
}

type reportService struct {
	reportRepo repositories.ReportRepository
}

func NewReportService(reportRepo repositories.ReportRepository) ReportService {
	return &reportService{reportRepo: reportRepo}
}

func (s *reportService) GetDayReport(ctx context.Context, identity *models.Identity, date string) (*models.DayReport, error) {
	if !utils.IsISODate(date) {
		return nil, validationError("date must be YYYY-MM-DD")
	}
	totals, err := s.reportRepo.GetDayTotals(ctx, identity.AccountID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load day totals: %w", err)
	}
	byProfessional, err := s.reportRepo.ListProfessionalTotals(ctx, identity.AccountID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load professional totals: %w", err)
	}
	return &models.DayReport{
		Date:         date,
		TotalRecords: totals.TotalRecords,
		Totals: models.DayReportTotals{
			TotalCost:        totals.TotalCost,
			Revenue:          totals.Revenue,
			TotalProfit:      totals.TotalProfit,
			AvgMarginPercent: totals.AvgMarginPercent,
		},
		ByProfessional: byProfessional,
	}, nil
}
