package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/vetcaselab/vetcase-api/model"
	"gorm.io/gorm"
)

// ProgressService is the progress tracker: one UserProgress row per
// (user, case), created lazily and overwritten on each submission.
type ProgressService struct {
	db *gorm.DB
}

// NewProgressService creates a new progress service
func NewProgressService(db *gorm.DB) *ProgressService {
	return &ProgressService{db: db}
}

// GetOrStart returns the progress row for (user, case), creating it on the
// first view. Concurrent first views race on the unique (user, case)
// constraint; the loser re-fetches instead of failing.
func (s *ProgressService) GetOrStart(userID, caseID uint) (*model.UserProgress, error) {
	var progress model.UserProgress

	err := s.db.Where("user_id = ? AND case_id = ?", userID, caseID).First(&progress).Error
	if err == nil {
		return &progress, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}

	now := time.Now()
	progress = model.UserProgress{
		UserID:    userID,
		CaseID:    caseID,
		Completed: false,
		Attempts:  0,
		StartedAt: &now,
	}

	if err := s.db.Create(&progress).Error; err != nil {
		// Duplicate key: another request created the row first
		var existing model.UserProgress
		if ferr := s.db.Where("user_id = ? AND case_id = ?", userID, caseID).First(&existing).Error; ferr == nil {
			return &existing, nil
		}
		return nil, fmt.Errorf("failed to create progress: %w", err)
	}

	return &progress, nil
}

// RecordSubmission applies one graded submission to the progress row:
// attempts are incremented, everything else is overwritten (last write
// wins). The owning user's profile statistics are recomputed afterwards
// in the same transaction.
func (s *ProgressService) RecordSubmission(userID, caseID uint, result GradingResult, diagnosisText string) (*model.UserProgress, error) {
	var progress *model.UserProgress

	err := s.db.Transaction(func(tx *gorm.DB) error {
		p, err := progressForUpdate(tx, userID, caseID)
		if err != nil {
			return err
		}

		now := time.Now()
		p.Completed = true
		p.Attempts++
		p.Score = result.AccuracyPercentage
		p.CorrectObservations = result.CorrectCount
		p.TotalObservations = result.TotalCount
		p.DiagnosisText = diagnosisText
		p.IsDiagnosisCorrect = result.DiagnosisCorrect
		p.CompletedAt = &now
		if p.StartedAt == nil {
			p.StartedAt = &now
		}

		if err := tx.Save(p).Error; err != nil {
			return fmt.Errorf("failed to save progress: %w", err)
		}

		if err := recomputeProfile(tx, userID); err != nil {
			return err
		}

		progress = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	return progress, nil
}

// LogObservation appends one row to the user's observation log.
func (s *ProgressService) LogObservation(userID, caseID uint, groupID *uint, text string, isCorrect bool) error {
	sel := model.UserObservationSelection{
		UserID:         userID,
		CaseID:         caseID,
		LabTestGroupID: groupID,
		Text:           text,
		IsCorrect:      isCorrect,
	}
	if err := s.db.Create(&sel).Error; err != nil {
		return fmt.Errorf("failed to log observation: %w", err)
	}
	return nil
}

// ListForUser returns a user's progress rows, most recently completed first.
func (s *ProgressService) ListForUser(userID uint, limit int) ([]model.UserProgress, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []model.UserProgress
	err := s.db.Where("user_id = ?", userID).
		Order("completed_at DESC NULLS LAST").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}
	return rows, nil
}

// Profile returns the user's aggregate statistics, creating an empty
// profile row if none exists yet.
func (s *ProgressService) Profile(userID uint) (*model.UserProfile, error) {
	var profile model.UserProfile
	err := s.db.Where("user_id = ?", userID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		profile = model.UserProfile{UserID: userID, LastActivity: time.Now()}
		if cerr := s.db.Create(&profile).Error; cerr != nil {
			return nil, fmt.Errorf("failed to create profile: %w", cerr)
		}
		return &profile, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return &profile, nil
}

// RecomputeProfile rebuilds a user's aggregate statistics from their
// UserProgress rows.
func (s *ProgressService) RecomputeProfile(userID uint) error {
	return recomputeProfile(s.db, userID)
}

func progressForUpdate(tx *gorm.DB, userID, caseID uint) (*model.UserProgress, error) {
	var p model.UserProgress
	err := tx.Where("user_id = ? AND case_id = ?", userID, caseID).First(&p).Error
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}

	now := time.Now()
	p = model.UserProgress{UserID: userID, CaseID: caseID, StartedAt: &now}
	if err := tx.Create(&p).Error; err != nil {
		var existing model.UserProgress
		if ferr := tx.Where("user_id = ? AND case_id = ?", userID, caseID).First(&existing).Error; ferr == nil {
			return &existing, nil
		}
		return nil, fmt.Errorf("failed to create progress: %w", err)
	}
	return &p, nil
}

// recomputeProfile is a full recompute-from-source pass over the user's
// completed progress rows. Deliberately not incremental: resubmissions
// overwrite scores, so counters maintained incrementally would drift.
func recomputeProfile(tx *gorm.DB, userID uint) error {
	var completed []model.UserProgress
	if err := tx.Where("user_id = ? AND completed = ?", userID, true).Find(&completed).Error; err != nil {
		return fmt.Errorf("failed to load completed progress: %w", err)
	}

	profile := model.UserProfile{UserID: userID}
	totalAttempts := 0
	for _, p := range completed {
		profile.TotalCasesCompleted++
		profile.TotalCorrectObservations += p.CorrectObservations
		profile.TotalObservations += p.TotalObservations
		profile.TotalDiagnoses++
		if p.IsDiagnosisCorrect {
			profile.TotalCorrectDiagnoses++
		}
		totalAttempts += p.Attempts
	}
	if profile.TotalCasesCompleted > 0 {
		profile.AverageAttemptsPerCase = float64(totalAttempts) / float64(profile.TotalCasesCompleted)
	}
	profile.LastActivity = time.Now()

	var existing model.UserProfile
	err := tx.Where("user_id = ?", userID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if cerr := tx.Create(&profile).Error; cerr != nil {
			return fmt.Errorf("failed to create profile: %w", cerr)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}

	updates := map[string]interface{}{
		"total_cases_completed":      profile.TotalCasesCompleted,
		"total_correct_observations": profile.TotalCorrectObservations,
		"total_observations":         profile.TotalObservations,
		"total_correct_diagnoses":    profile.TotalCorrectDiagnoses,
		"total_diagnoses":            profile.TotalDiagnoses,
		"average_attempts_per_case":  profile.AverageAttemptsPerCase,
		"last_activity":              profile.LastActivity,
	}
	if err := tx.Model(&existing).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}
