package services

import (
	"testing"
	"time"

	"github.com/XeinQt/Accounting-System-sub001/app/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRenderNoticeBody(t *testing.T) {
	lines := []models.BalanceLine{
		{AcademicYearLabel: "2024-2025", PeriodLabel: "First", Amount: decimal.RequireFromString("600")},
		{AcademicYearLabel: "2024-2025", PeriodLabel: "Second", Amount: decimal.RequireFromString("400.50")},
	}
	due := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

	body := RenderNoticeBody("Jane Doe", lines, due)

	assert.Contains(t, body, "Student: Jane Doe")
	assert.Contains(t, body, "2024-2025, First period: 600.00")
	assert.Contains(t, body, "2024-2025, Second period: 400.50")
	assert.Contains(t, body, "Total: 1000.50")
	assert.Contains(t, body, "settle the above balance by 2025-06-30")
}

func TestRenderNoticeBody_UnclassifiedPeriod(t *testing.T) {
	lines := []models.BalanceLine{
		{AcademicYearLabel: "2023-2024", PeriodLabel: "", Amount: decimal.RequireFromString("150")},
	}

	body := RenderNoticeBody("John Roe", lines, time.Now())
	assert.Contains(t, body, "Unclassified period: 150.00")
}

func TestRenderNoticeBody_NoLines(t *testing.T) {
	body := RenderNoticeBody("Jane Doe", nil, time.Now())
	assert.Contains(t, body, "Total: 0.00")
}
