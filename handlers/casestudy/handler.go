package casestudy

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/vetcaselab/vetcase-api/model"
	"github.com/vetcaselab/vetcase-api/services"
	"github.com/vetcaselab/vetcase-api/utils/middleware"
	"github.com/vetcaselab/vetcase-api/utils/response"
	"github.com/vetcaselab/vetcase-api/utils/validation"
	"gorm.io/gorm"
)

// CaseHandler serves the case catalog
type CaseHandler struct {
	db        *gorm.DB
	cases     *services.CaseService
	progress  *services.ProgressService
	validator *validation.Validator
}

// NewCaseHandler creates a new case handler
func NewCaseHandler(db *gorm.DB, cases *services.CaseService, progress *services.ProgressService) *CaseHandler {
	return &CaseHandler{
		db:        db,
		cases:     cases,
		progress:  progress,
		validator: validation.NewValidator(),
	}
}

// List returns a filtered, paginated catalog page
func (h *CaseHandler) List(c *fiber.Ctx) error {
	q := services.CatalogQuery{
		Search: c.Query("search"),
		Page:   c.QueryInt("page", 1),
		Limit:  c.QueryInt("limit", 20),
	}

	if raw := c.Query("category_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return response.BadRequest(c, "Invalid category_id")
		}
		categoryID := uint(id)
		q.CategoryID = &categoryID
	}

	if user, ok := middleware.GetUser(c); ok && user.IsAdmin() {
		q.IncludeDrafts = c.QueryBool("include_drafts", false)
	}

	cases, total, err := h.cases.ListCases(q)
	if err != nil {
		return response.InternalServerError(c, "Failed to list cases")
	}

	return response.Paginated(c, cases, response.CalculatePagination(q.Page, q.Limit, total))
}

// CaseDetailResponse pairs a case with the caller's progress on it
type CaseDetailResponse struct {
	Case     *model.Case         `json:"case"`
	Progress *model.UserProgress `json:"progress,omitempty"`
}

// Get returns one case by slug with slides and lab tests. Opening a case
// starts a progress record for the student.
func (h *CaseHandler) Get(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)

	includeDrafts := ok && user.IsAdmin()
	caseStudy, err := h.cases.GetBySlug(c.Params("slug"), includeDrafts)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NotFound(c, "Case not found")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to load case")
	}

	res := CaseDetailResponse{Case: caseStudy}
	if ok {
		progress, err := h.progress.GetOrStart(user.ID, caseStudy.ID)
		if err == nil {
			res.Progress = progress
		}
	}

	return response.Success(c, res)
}

// Categories returns the category tree
func (h *CaseHandler) Categories(c *fiber.Ctx) error {
	categories, err := h.cases.ListCategories()
	if err != nil {
		return response.InternalServerError(c, "Failed to list categories")
	}
	return response.Success(c, categories)
}

// ToggleBookmark bookmarks or unbookmarks a case for the caller
func (h *CaseHandler) ToggleBookmark(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	caseID, err := c.ParamsInt("id")
	if err != nil || caseID < 1 {
		return response.BadRequest(c, "Invalid case id")
	}

	if _, err := h.cases.GetByID(uint(caseID)); err != nil {
		return response.NotFound(c, "Case not found")
	}

	bookmarked, err := h.cases.ToggleBookmark(user.ID, uint(caseID))
	if err != nil {
		return response.InternalServerError(c, "Failed to toggle bookmark")
	}

	return response.Success(c, fiber.Map{"bookmarked": bookmarked})
}

// Bookmarks lists the caller's bookmarked cases
func (h *CaseHandler) Bookmarks(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	cases, err := h.cases.ListBookmarks(user.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list bookmarks")
	}
	return response.Success(c, cases)
}
