package progress

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/vetcaselab/vetcase-api/model"
	"github.com/vetcaselab/vetcase-api/services"
	"github.com/vetcaselab/vetcase-api/utils/middleware"
	"github.com/vetcaselab/vetcase-api/utils/response"
	"github.com/vetcaselab/vetcase-api/utils/validation"
	"gorm.io/gorm"
)

// ProgressHandler serves case submissions and learning statistics
type ProgressHandler struct {
	db        *gorm.DB
	cases     *services.CaseService
	progress  *services.ProgressService
	grading   *services.GradingEngine
	validator *validation.Validator
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(db *gorm.DB, cases *services.CaseService, progress *services.ProgressService, grading *services.GradingEngine) *ProgressHandler {
	return &ProgressHandler{
		db:        db,
		cases:     cases,
		progress:  progress,
		grading:   grading,
		validator: validation.NewValidator(),
	}
}

// GroupSelection is the student's picks within one lab test group
type GroupSelection struct {
	LabTestGroupID uint   `json:"lab_test_group_id" validate:"required"`
	OptionIDs      []uint `json:"option_ids"`
}

// SubmitRequest is one case submission: selected observations plus a
// free-text diagnosis
type SubmitRequest struct {
	Selections []GroupSelection `json:"selections"`
	Diagnosis  string           `json:"diagnosis" validate:"required,max=500"`
}

// SubmitResponse reveals the grade and the case's answer after submission
type SubmitResponse struct {
	Result           services.GradingResult `json:"result"`
	Progress         *model.UserProgress    `json:"progress"`
	CorrectDiagnosis string                 `json:"correct_diagnosis"`
	Explanation      string                 `json:"explanation"`
}

// Submit grades a student's answer for a case and records the attempt.
// Resubmission is allowed; the latest attempt wins.
func (h *ProgressHandler) Submit(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	caseID, err := c.ParamsInt("id")
	if err != nil || caseID < 1 {
		return response.BadRequest(c, "Invalid case id")
	}

	var req SubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	caseStudy, err := h.cases.GetByID(uint(caseID))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NotFound(c, "Case not found")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to load case")
	}
	if !caseStudy.Published && !user.IsAdmin() {
		return response.NotFound(c, "Case not found")
	}

	groups, err := h.cases.LoadAnswerKey(caseStudy.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to load case")
	}

	selected := map[uint]map[uint]bool{}
	for _, sel := range req.Selections {
		set := selected[sel.LabTestGroupID]
		if set == nil {
			set = map[uint]bool{}
			selected[sel.LabTestGroupID] = set
		}
		for _, id := range sel.OptionIDs {
			set[id] = true
		}
	}

	graded := make([]services.GradedGroup, 0, len(groups))
	for _, g := range groups {
		graded = append(graded, services.GradedGroup{
			LabTestGroupID: g.ID,
			Options:        g.Options,
			SelectedIDs:    selected[g.ID],
		})
	}

	result := h.grading.Grade(graded, req.Diagnosis, caseStudy.CorrectDiagnosis)

	progressRow, err := h.progress.RecordSubmission(user.ID, caseStudy.ID, result, req.Diagnosis)
	if err != nil {
		return response.InternalServerError(c, "Failed to record submission")
	}

	// Append-only research log of what was actually picked
	for _, g := range groups {
		for _, opt := range g.Options {
			if selected[g.ID][opt.ID] {
				groupID := g.ID
				if err := h.progress.LogObservation(user.ID, caseStudy.ID, &groupID, opt.Text, opt.IsCorrect); err != nil {
					log.Printf("Failed to log observation for user %d case %d: %v", user.ID, caseStudy.ID, err)
				}
			}
		}
	}

	return response.Success(c, SubmitResponse{
		Result:           result,
		Progress:         progressRow,
		CorrectDiagnosis: caseStudy.CorrectDiagnosis,
		Explanation:      caseStudy.Explanation,
	})
}

// ObservationRequest records a single observation pick while the student is
// still working through a case
type ObservationRequest struct {
	OptionID uint `json:"option_id" validate:"required"`
}

// LogObservation appends one observation selection without grading the case.
// The frontend calls this as the student toggles options; the full submission
// still goes through Submit.
func (h *ProgressHandler) LogObservation(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	caseID, err := c.ParamsInt("id")
	if err != nil || caseID < 1 {
		return response.BadRequest(c, "Invalid case id")
	}

	var req ObservationRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	caseStudy, err := h.cases.GetByID(uint(caseID))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NotFound(c, "Case not found")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to load case")
	}
	if !caseStudy.Published && !user.IsAdmin() {
		return response.NotFound(c, "Case not found")
	}

	groups, err := h.cases.LoadAnswerKey(caseStudy.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to load case")
	}

	for _, g := range groups {
		for _, opt := range g.Options {
			if opt.ID == req.OptionID {
				groupID := g.ID
				if err := h.progress.LogObservation(user.ID, caseStudy.ID, &groupID, opt.Text, opt.IsCorrect); err != nil {
					return response.InternalServerError(c, "Failed to record observation")
				}
				return response.Created(c, fiber.Map{"recorded": true})
			}
		}
	}

	return response.BadRequest(c, "Option does not belong to this case")
}

// MyProgress lists the caller's progress rows, most recent first
func (h *ProgressHandler) MyProgress(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	limit := c.QueryInt("limit", 50)
	rows, err := h.progress.ListForUser(user.ID, limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list progress")
	}

	return response.Success(c, rows)
}

// StatsResponse is the caller's aggregate learning profile
type StatsResponse struct {
	Profile           *model.UserProfile `json:"profile"`
	OverallAccuracy   float64            `json:"overall_accuracy"`
	DiagnosisAccuracy float64            `json:"diagnosis_accuracy"`
}

// MyStats returns aggregate statistics for the caller
func (h *ProgressHandler) MyStats(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	profile, err := h.progress.Profile(user.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to load statistics")
	}

	return response.Success(c, StatsResponse{
		Profile:           profile,
		OverallAccuracy:   profile.OverallAccuracy(),
		DiagnosisAccuracy: profile.DiagnosisAccuracy(),
	})
}
