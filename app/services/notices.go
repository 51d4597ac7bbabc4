package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/XeinQt/Accounting-System-sub001/app/database"
	"github.com/XeinQt/Accounting-System-sub001/app/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// NoticeService composes the promissory workflow: selecting overdue
// records and issuing the immutable notes for them.
type NoticeService struct {
	ledger *database.Ledger
	log    *zap.Logger
}

func NewNoticeService(ledger *database.Ledger, log *zap.Logger) *NoticeService {
	if log == nil {
		log = zap.NewNop()
	}
	return &NoticeService{ledger: ledger, log: log}
}

// Candidates lists the billing records currently eligible for a notice.
// periodLabel may be empty to cover every period of the year.
func (s *NoticeService) Candidates(yearID, periodLabel string) ([]models.NoticeCandidate, error) {
	periodID := ""
	if periodLabel != "" {
		var err error
		periodID, err = s.ledger.ResolvePeriod(periodLabel)
		if err != nil {
			return nil, err
		}
	}
	return s.ledger.EligibleForNotice(yearID, periodID)
}

// IssueNote snapshots a student's outstanding balance into a promissory
// note due at the extended date.
func (s *NoticeService) IssueNote(studentID, studentName string, extendedDueDate time.Time) (*models.PromissoryNote, error) {
	lines, err := s.ledger.UnpaidBalanceBreakdown(studentID)
	if err != nil {
		return nil, err
	}

	body := RenderNoticeBody(studentName, lines, extendedDueDate)
	note, err := s.ledger.CreatePromissoryNote(studentID, extendedDueDate, body)
	if err != nil {
		return nil, err
	}

	s.log.Info("issued promissory note",
		zap.String("student_id", studentID),
		zap.String("reference", note.Reference))
	return note, nil
}

// RenderNoticeBody builds the notice text from a student's outstanding
// balance lines.
func RenderNoticeBody(studentName string, lines []models.BalanceLine, extendedDueDate time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "PROMISSORY NOTE\n\n")
	fmt.Fprintf(&b, "Student: %s\n", studentName)
	fmt.Fprintf(&b, "Outstanding balance as of %s:\n", time.Now().Format("2006-01-02"))

	total := decimal.Zero
	for _, line := range lines {
		period := line.PeriodLabel
		if period == "" {
			period = "Unclassified"
		}
		fmt.Fprintf(&b, "  - %s, %s period: %s\n", line.AcademicYearLabel, period, line.Amount.StringFixed(2))
		total = total.Add(line.Amount)
	}

	fmt.Fprintf(&b, "Total: %s\n", total.StringFixed(2))
	fmt.Fprintf(&b, "The undersigned promises to settle the above balance by %s.\n",
		extendedDueDate.Format("2006-01-02"))
	return b.String()
}
