package casestudy

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/vetcaselab/vetcase-api/model"
	"github.com/vetcaselab/vetcase-api/services"
	"github.com/vetcaselab/vetcase-api/utils/response"
	"gorm.io/gorm"
)

// CreateCaseRequest is the admin authoring payload
type CreateCaseRequest struct {
	CategoryID       *uint  `json:"category_id"`
	SubCategoryID    *uint  `json:"sub_category_id"`
	Title            string `json:"title" validate:"required,min=3,max=255"`
	Summary          string `json:"summary"`
	History          string `json:"history" validate:"required"`
	CorrectDiagnosis string `json:"correct_diagnosis" validate:"required"`
	Explanation      string `json:"explanation" validate:"required"`
	Published        bool   `json:"published"`
}

// UpdateCaseRequest is a partial case edit
type UpdateCaseRequest struct {
	Title            *string `json:"title" validate:"omitempty,min=3,max=255"`
	Summary          *string `json:"summary"`
	History          *string `json:"history"`
	CorrectDiagnosis *string `json:"correct_diagnosis"`
	Explanation      *string `json:"explanation"`
	Published        *bool   `json:"published"`
	CategoryID       *uint   `json:"category_id"`
}

// CreateCategoryRequest creates a catalog category
type CreateCategoryRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Description string `json:"description"`
}

// Create authors a new case with its default lab test groups
func (h *CaseHandler) Create(c *fiber.Ctx) error {
	var req CreateCaseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	caseStudy, err := h.cases.Create(services.CreateCaseInput{
		CategoryID:       req.CategoryID,
		SubCategoryID:    req.SubCategoryID,
		Title:            req.Title,
		Summary:          req.Summary,
		History:          req.History,
		CorrectDiagnosis: req.CorrectDiagnosis,
		Explanation:      req.Explanation,
		Published:        req.Published,
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return response.Conflict(c, "A case with this title already exists")
		}
		return response.InternalServerError(c, "Failed to create case")
	}

	return response.Created(c, caseStudy)
}

// Update applies a partial edit to a case
func (h *CaseHandler) Update(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid case id")
	}

	var req UpdateCaseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Summary != nil {
		updates["summary"] = *req.Summary
	}
	if req.History != nil {
		updates["history"] = *req.History
	}
	if req.CorrectDiagnosis != nil {
		updates["correct_diagnosis"] = *req.CorrectDiagnosis
	}
	if req.Explanation != nil {
		updates["explanation"] = *req.Explanation
	}
	if req.Published != nil {
		updates["published"] = *req.Published
	}
	if req.CategoryID != nil {
		updates["category_id"] = *req.CategoryID
	}
	if len(updates) == 0 {
		return response.BadRequest(c, "No fields to update")
	}

	caseStudy, err := h.cases.UpdateCase(uint(id), updates)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NotFound(c, "Case not found")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to update case")
	}

	return response.Success(c, caseStudy)
}

// Delete removes a case
func (h *CaseHandler) Delete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid case id")
	}

	err = h.cases.DeleteCase(uint(id))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NotFound(c, "Case not found")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to delete case")
	}

	return response.SuccessWithMessage(c, "Case deleted", nil)
}

// CreateCategory adds a catalog category
func (h *CaseHandler) CreateCategory(c *fiber.Ctx) error {
	var req CreateCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	category, err := h.cases.CreateCategory(req.Name, req.Description)
	if err != nil {
		return response.InternalServerError(c, "Failed to create category")
	}

	return response.Created(c, category)
}

// AnswerKey returns a case's lab test groups including correctness flags.
// Admin-only; used by the authoring UI to edit the answer key.
func (h *CaseHandler) AnswerKey(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid case id")
	}

	groups, err := h.cases.LoadAnswerKey(uint(id))
	if err != nil {
		return response.InternalServerError(c, "Failed to load answer key")
	}

	// IsCorrect and Explanation are stripped from the default encoding,
	// so project an explicit admin view
	type adminOption struct {
		ID          uint   `json:"id"`
		Text        string `json:"text"`
		IsCorrect   bool   `json:"is_correct"`
		Explanation string `json:"explanation"`
		OrderIndex  int    `json:"order_index"`
	}
	type adminGroup struct {
		ID      uint              `json:"id"`
		Type    model.LabTestType `json:"type"`
		Name    string            `json:"name"`
		Options []adminOption     `json:"options"`
	}

	out := make([]adminGroup, 0, len(groups))
	for _, g := range groups {
		ag := adminGroup{ID: g.ID, Type: g.Type, Name: g.Name}
		for _, opt := range g.Options {
			ag.Options = append(ag.Options, adminOption{
				ID:          opt.ID,
				Text:        opt.Text,
				IsCorrect:   opt.IsCorrect,
				Explanation: opt.Explanation,
				OrderIndex:  opt.OrderIndex,
			})
		}
		out = append(out, ag)
	}

	return response.Success(c, out)
}

// SetAnswerKeyRequest updates option correctness for a case
type SetAnswerKeyRequest struct {
	CorrectOptionIDs []uint `json:"correct_option_ids" validate:"required"`
}

// SetAnswerKey marks the given options correct and all others incorrect
// within the case's lab test groups
func (h *CaseHandler) SetAnswerKey(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid case id")
	}

	var req SetAnswerKeyRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		sub := tx.Model(&model.LabTestGroup{}).Select("id").Where("case_id = ?", id)

		if err := tx.Model(&model.ObservationOption{}).
			Where("lab_test_group_id IN (?)", sub).
			Update("is_correct", false).Error; err != nil {
			return err
		}
		if len(req.CorrectOptionIDs) == 0 {
			return nil
		}
		return tx.Model(&model.ObservationOption{}).
			Where("lab_test_group_id IN (?) AND id IN ?", sub, req.CorrectOptionIDs).
			Update("is_correct", true).Error
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to update answer key")
	}

	return response.SuccessWithMessage(c, "Answer key updated", nil)
}
