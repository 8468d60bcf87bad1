package model

import (
	"time"

	"gorm.io/gorm"
)

// User represents a registered user in the system
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	Phone        string         `gorm:"uniqueIndex;not null" json:"phone"`
	Email        string         `gorm:"index" json:"email"`
	PasswordHash string         `json:"-"` // Never expose password in JSON
	Name         string         `json:"name"`
	Role         string         `gorm:"type:varchar(20);default:'student'" json:"role"` // student, admin
	TokenVersion int            `gorm:"default:0" json:"-"`                             // Increment to invalidate all user tokens

	// Relationships
	Profile      *UserProfile               `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"profile,omitempty"`
	Progress     []UserProgress             `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Observations []UserObservationSelection `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Subscription *Subscription              `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"subscription,omitempty"`
	Payments     []Payment                  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Bookmarks    []Bookmark                 `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// IsAdmin reports whether the user has staff privileges.
func (u *User) IsAdmin() bool {
	return u.Role == "admin"
}

// UserProfile keeps aggregate learning statistics for one user.
// Counters are recomputed from the user's UserProgress rows, never
// incremented in place, so they cannot drift.
type UserProfile struct {
	ID                       uint      `gorm:"primaryKey" json:"id"`
	UserID                   uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	TotalCasesCompleted      int       `gorm:"default:0" json:"total_cases_completed"`
	TotalCorrectObservations int       `gorm:"default:0" json:"total_correct_observations"`
	TotalObservations        int       `gorm:"default:0" json:"total_observations"`
	TotalCorrectDiagnoses    int       `gorm:"default:0" json:"total_correct_diagnoses"`
	TotalDiagnoses           int       `gorm:"default:0" json:"total_diagnoses"`
	AverageAttemptsPerCase   float64   `gorm:"default:0" json:"average_attempts_per_case"`
	LastActivity             time.Time `json:"last_activity"`
	CreatedAt                time.Time `json:"created_at"`
	UpdatedAt                time.Time `json:"updated_at"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for UserProfile
func (UserProfile) TableName() string {
	return "user_profiles"
}

// OverallAccuracy returns the observation accuracy across all completed cases, 0-100.
func (p *UserProfile) OverallAccuracy() float64 {
	if p.TotalObservations == 0 {
		return 0
	}
	return Round1(float64(p.TotalCorrectObservations) / float64(p.TotalObservations) * 100)
}

// DiagnosisAccuracy returns the diagnosis accuracy across all completed cases, 0-100.
func (p *UserProfile) DiagnosisAccuracy() float64 {
	if p.TotalDiagnoses == 0 {
		return 0
	}
	return Round1(float64(p.TotalCorrectDiagnoses) / float64(p.TotalDiagnoses) * 100)
}
