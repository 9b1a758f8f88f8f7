package models

// DayTotals is one row of vw_day_report.
type DayTotals struct {
	TotalRecords     int64
	TotalCost        float64
	Revenue          float64
	TotalProfit      float64
	AvgMarginPercent *float64
}

// ProfessionalDayTotals is one row of vw_day_report_by_professional.
type ProfessionalDayTotals struct {
	ProfessionalID int64    `json:"profissional_id"`
	TotalCost      float64  `json:"custo_total"`
	FinalPrice     float64  `json:"preco_final"`
	ProfitValue    float64  `json:"lucro_reais"`
	MarginPercent  *float64 `json:"margem_percentual"`
}

// DayReportTotals keeps the wire names the frontend already consumes.
type DayReportTotals struct {
	TotalCost        float64  `json:"custo_total"`
	Revenue          float64  `json:"faturamento"`
	TotalProfit      float64  `json:"lucro_total"`
	AvgMarginPercent *float64 `json:"margem_media_percentual"`
}

type DayReport struct {
	Date           string                  `json:"data"`
	TotalRecords   int64                   `json:"total_registros"`
	Totals         DayReportTotals         `json:"totais"`
	ByProfessional []ProfessionalDayTotals `json:"por_profissional"`
}
