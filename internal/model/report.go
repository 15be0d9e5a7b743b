package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecoverySummaryResponse aggregates pipeline counts for dashboards and
// printable reports.
type RecoverySummaryResponse struct {
	StatusCounts       []StatusCount    `json:"status_counts"`
	BranchCounts       []BranchCount    `json:"branch_counts"`
	MaterialCounts     []MaterialCount  `json:"material_counts"`
	TimeRangeStartDate time.Time        `json:"time_range_start_date"`
	TimeRangeEndDate   time.Time        `json:"time_range_end_date"`
}

// ProductSummaryResponse aggregates the product recovery pipeline, including
// termination penalty totals per status.
type ProductSummaryResponse struct {
	StatusCounts       []StatusCount   `json:"status_counts"`
	PenaltyTotals      []PenaltyTotal  `json:"penalty_totals"`
	CalendarCounts     []CalendarCount `json:"calendar_counts"`
	AutoSelectedCount  int64           `json:"auto_selected_count"`
	TimeRangeStartDate time.Time       `json:"time_range_start_date"`
	TimeRangeEndDate   time.Time       `json:"time_range_end_date"`
}

// StatusCount is a per-status row count
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// BranchCount holds per-branch counts broken down by status
type BranchCount struct {
	BranchCode string `json:"branch_code"`
	Status     string `json:"status"`
	Count      int64  `json:"count"`
}

// MaterialCount ranks material codes by accumulated row count
type MaterialCount struct {
	MaterialCode string `json:"material_code"`
	MaterialName string `json:"material_name"`
	Count        int64  `json:"count"`
}

// PenaltyTotal sums termination penalties per status
type PenaltyTotal struct {
	Status string          `json:"status"`
	Total  decimal.Decimal `json:"total"`
}

// CalendarCount counts rows per calendar day for the dashboard calendar view
type CalendarCount struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int64  `json:"count"`
}
