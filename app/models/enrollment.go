package models

import "time"

// Enrollment binds a student to one academic year and one period. At most
// one Active enrollment may exist per (student, year, period) triple; a
// repeated save reactivates the deactivated row instead of inserting a
// duplicate. Enrollments are deactivated, never hard-deleted, so billing
// history survives period reassignments.
type Enrollment struct {
	ID             string           `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	StudentID      string           `json:"student_id" gorm:"not null;index;type:uuid"`
	AcademicYearID string           `json:"academic_year_id" gorm:"not null;index;type:uuid"`
	PeriodID       string           `json:"period_id" gorm:"not null;index;type:uuid"`
	Status         EnrollmentStatus `json:"status" gorm:"not null;default:'active';type:varchar(20)"`
	CreatedAt      time.Time        `json:"created_at" gorm:"default:now()"`
	UpdatedAt      time.Time        `json:"updated_at" gorm:"default:now()"`

	Student      *Student      `json:"student,omitempty" gorm:"foreignKey:StudentID;references:ID"`
	AcademicYear *AcademicYear `json:"academic_year,omitempty" gorm:"foreignKey:AcademicYearID;references:ID"`
	Period       *Period       `json:"period,omitempty" gorm:"foreignKey:PeriodID;references:ID"`
}

// IsActive reports whether the enrollment is the student's live period
// assignment.
func (e *Enrollment) IsActive() bool {
	return e.Status == EnrollmentActive
}
