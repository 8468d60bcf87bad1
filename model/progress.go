package model

import (
	"math"
	"time"
)

// UserProgress is the per (user, case) study record. One row per pair,
// enforced by a unique constraint; resubmissions overwrite the previous
// result (last write wins) and bump the attempt counter.
type UserProgress struct {
	ID                  uint       `gorm:"primaryKey" json:"id"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
	UserID              uint       `gorm:"not null;uniqueIndex:idx_progress_user_case" json:"user_id"`
	CaseID              uint       `gorm:"not null;uniqueIndex:idx_progress_user_case" json:"case_id"`
	Completed           bool       `gorm:"default:false" json:"completed"`
	Score               float64    `gorm:"type:decimal(5,2);default:0" json:"score"`
	Attempts            int        `gorm:"default:0" json:"attempts"`
	CorrectObservations int        `gorm:"default:0" json:"correct_observations"`
	TotalObservations   int        `gorm:"default:0" json:"total_observations"`
	DiagnosisText       string     `gorm:"type:text" json:"diagnosis_text"`
	IsDiagnosisCorrect  bool       `gorm:"default:false" json:"is_diagnosis_correct"`
	StartedAt           *time.Time `json:"started_at,omitempty"`
	CompletedAt         *time.Time `json:"completed_at,omitempty"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Case Case `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE" json:"case,omitempty"`
}

// TableName specifies the table name for UserProgress
func (UserProgress) TableName() string {
	return "user_progress"
}

// AccuracyPercentage returns the stored score as 0-100.
func (p *UserProgress) AccuracyPercentage() float64 {
	return p.Score
}

// UserObservationSelection is an append-only log of what a student picked
// while working through a case. Many rows per (user, case).
type UserObservationSelection struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"not null;index" json:"user_id"`
	CaseID         uint      `gorm:"not null;index" json:"case_id"`
	LabTestGroupID *uint     `gorm:"index" json:"lab_test_group_id,omitempty"`
	Text           string    `gorm:"type:text" json:"text"`
	IsCorrect      bool      `gorm:"default:false" json:"is_correct"`
	SelectedAt     time.Time `gorm:"autoCreateTime" json:"selected_at"`

	User         User          `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Case         Case          `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE" json:"-"`
	LabTestGroup *LabTestGroup `gorm:"foreignKey:LabTestGroupID;constraint:OnDelete:SET NULL" json:"-"`
}

// TableName specifies the table name for UserObservationSelection
func (UserObservationSelection) TableName() string {
	return "user_observations"
}

// Round1 rounds to one decimal place, the precision used for all
// accuracy percentages.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
