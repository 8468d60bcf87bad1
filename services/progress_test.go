package services

import (
	"testing"

	"github.com/vetcaselab/vetcase-api/model"
)

func TestGetOrStartCreatesOneRow(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "09120000001")
	caseStudy := createTestCase(t, db, "Progress case one")
	svc := NewProgressService(db)

	first, err := svc.GetOrStart(user.ID, caseStudy.ID)
	if err != nil {
		t.Fatalf("GetOrStart failed: %v", err)
	}
	if first.StartedAt == nil {
		t.Error("expected StartedAt to be set on first view")
	}
	if first.Completed {
		t.Error("new progress must not be completed")
	}

	second, err := svc.GetOrStart(user.ID, caseStudy.ID)
	if err != nil {
		t.Fatalf("second GetOrStart failed: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("expected the same row, got %d and %d", first.ID, second.ID)
	}

	var count int64
	db.Model(&model.UserProgress{}).Where("user_id = ?", user.ID).Count(&count)
	if count != 1 {
		t.Errorf("expected 1 progress row, got %d", count)
	}
}

func TestRecordSubmissionLastWriteWins(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "09120000002")
	caseStudy := createTestCase(t, db, "Progress case two")
	svc := NewProgressService(db)

	first, err := svc.RecordSubmission(user.ID, caseStudy.ID, GradingResult{
		CorrectCount: 40, TotalCount: 53, AccuracyPercentage: 75.5, DiagnosisCorrect: false,
	}, "hepatic lipidosis")
	if err != nil {
		t.Fatalf("first submission failed: %v", err)
	}
	if first.Attempts != 1 || !first.Completed {
		t.Errorf("expected completed with 1 attempt, got attempts=%d completed=%v", first.Attempts, first.Completed)
	}

	second, err := svc.RecordSubmission(user.ID, caseStudy.ID, GradingResult{
		CorrectCount: 50, TotalCount: 53, AccuracyPercentage: 94.3, DiagnosisCorrect: true,
	}, "chronic hepatitis")
	if err != nil {
		t.Fatalf("second submission failed: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("resubmission must reuse the row, got %d and %d", first.ID, second.ID)
	}
	if second.Attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", second.Attempts)
	}
	if second.Score != 94.3 {
		t.Errorf("expected latest score 94.3, got %v", second.Score)
	}
	if !second.IsDiagnosisCorrect {
		t.Error("expected latest diagnosis result to win")
	}
	if second.DiagnosisText != "chronic hepatitis" {
		t.Errorf("expected latest diagnosis text, got %q", second.DiagnosisText)
	}

	var count int64
	db.Model(&model.UserProgress{}).Where("user_id = ?", user.ID).Count(&count)
	if count != 1 {
		t.Errorf("expected a single progress row after resubmission, got %d", count)
	}
}

func TestRecordSubmissionRecomputesProfile(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "09120000003")
	caseOne := createTestCase(t, db, "Profile case one")
	caseTwo := createTestCase(t, db, "Profile case two")
	svc := NewProgressService(db)

	if _, err := svc.RecordSubmission(user.ID, caseOne.ID, GradingResult{
		CorrectCount: 8, TotalCount: 10, AccuracyPercentage: 80, DiagnosisCorrect: true,
	}, "dx one"); err != nil {
		t.Fatalf("submission one failed: %v", err)
	}
	if _, err := svc.RecordSubmission(user.ID, caseTwo.ID, GradingResult{
		CorrectCount: 5, TotalCount: 10, AccuracyPercentage: 50, DiagnosisCorrect: false,
	}, "dx two"); err != nil {
		t.Fatalf("submission two failed: %v", err)
	}
	// Retry the second case
	if _, err := svc.RecordSubmission(user.ID, caseTwo.ID, GradingResult{
		CorrectCount: 9, TotalCount: 10, AccuracyPercentage: 90, DiagnosisCorrect: true,
	}, "dx two again"); err != nil {
		t.Fatalf("retry failed: %v", err)
	}

	profile, err := svc.Profile(user.ID)
	if err != nil {
		t.Fatalf("Profile failed: %v", err)
	}

	if profile.TotalCasesCompleted != 2 {
		t.Errorf("expected 2 completed cases, got %d", profile.TotalCasesCompleted)
	}
	// Recomputed from current rows: 8+9 correct of 10+10
	if profile.TotalCorrectObservations != 17 || profile.TotalObservations != 20 {
		t.Errorf("expected 17/20 observations, got %d/%d",
			profile.TotalCorrectObservations, profile.TotalObservations)
	}
	if profile.TotalCorrectDiagnoses != 2 || profile.TotalDiagnoses != 2 {
		t.Errorf("expected 2/2 diagnoses, got %d/%d",
			profile.TotalCorrectDiagnoses, profile.TotalDiagnoses)
	}
	// 1 attempt + 2 attempts over 2 cases
	if profile.AverageAttemptsPerCase != 1.5 {
		t.Errorf("expected average attempts 1.5, got %v", profile.AverageAttemptsPerCase)
	}
	if profile.OverallAccuracy() != 85 {
		t.Errorf("expected overall accuracy 85, got %v", profile.OverallAccuracy())
	}
}

func TestProfileLazyCreate(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "09120000004")
	svc := NewProgressService(db)

	profile, err := svc.Profile(user.ID)
	if err != nil {
		t.Fatalf("Profile failed: %v", err)
	}
	if profile.TotalCasesCompleted != 0 || profile.TotalObservations != 0 {
		t.Error("fresh profile must be empty")
	}
	if profile.OverallAccuracy() != 0 {
		t.Errorf("expected accuracy 0 with no observations, got %v", profile.OverallAccuracy())
	}
}

func TestLogObservationAppendOnly(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "09120000005")
	caseStudy := createTestCase(t, db, "Observation log case")
	svc := NewProgressService(db)

	for i := 0; i < 3; i++ {
		if err := svc.LogObservation(user.ID, caseStudy.ID, nil, "Neutrophilia", true); err != nil {
			t.Fatalf("LogObservation failed: %v", err)
		}
	}

	var count int64
	db.Model(&model.UserObservationSelection{}).Where("user_id = ?", user.ID).Count(&count)
	if count != 3 {
		t.Errorf("expected 3 log rows, got %d", count)
	}
}

func TestLogObservationKeepsGroupAttribution(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "09120000006")
	caseStudy := createTestCase(t, db, "Single observation case")
	svc := NewProgressService(db)

	group := model.LabTestGroup{CaseID: caseStudy.ID, Type: model.LabTestTypeCBC, Name: "Complete Blood Count"}
	if err := db.Create(&group).Error; err != nil {
		t.Fatalf("failed to create group: %v", err)
	}

	if err := svc.LogObservation(user.ID, caseStudy.ID, &group.ID, "Spherocytes", true); err != nil {
		t.Fatalf("LogObservation failed: %v", err)
	}

	var sel model.UserObservationSelection
	if err := db.Where("user_id = ?", user.ID).First(&sel).Error; err != nil {
		t.Fatalf("failed to load selection: %v", err)
	}
	if sel.LabTestGroupID == nil || *sel.LabTestGroupID != group.ID {
		t.Errorf("expected group id %d, got %v", group.ID, sel.LabTestGroupID)
	}
	if sel.Text != "Spherocytes" || !sel.IsCorrect {
		t.Errorf("stored selection = %+v", sel)
	}
}
