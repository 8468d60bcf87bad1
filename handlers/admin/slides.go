package admin

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/vetcaselab/vetcase-api/model"
	"github.com/vetcaselab/vetcase-api/utils/response"
)

const maxSlideSize = 20 << 20 // 20 MB

// UploadSlide stores a histology image for a case and records it as a
// slide. The row is written only after the object store accepted the file.
func (h *AdminHandler) UploadSlide(c *fiber.Ctx) error {
	if h.spaces == nil {
		return response.GatewayError(c, "Object storage is not configured")
	}

	caseID, err := c.ParamsInt("id")
	if err != nil || caseID < 1 {
		return response.BadRequest(c, "Invalid case id")
	}

	if _, err := h.cases.GetByID(uint(caseID)); err != nil {
		return response.NotFound(c, "Case not found")
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return response.BadRequest(c, "Missing image upload")
	}
	if fileHeader.Size > maxSlideSize {
		return response.BadRequest(c, "Image exceeds the 20 MB limit")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return response.BadRequest(c, "Failed to open uploaded image")
	}
	defer file.Close()

	key, url, err := h.spaces.UploadSlide(c.Context(), uint(caseID), fileHeader.Filename, file)
	if err != nil {
		return response.GatewayError(c, "Failed to store image")
	}

	slide := model.Slide{
		CaseID:      uint(caseID),
		ImageKey:    key,
		ImageURL:    url,
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		OrderIndex:  fiberFormInt(c, "order_index"),
	}
	if err := h.db.Create(&slide).Error; err != nil {
		// Orphaned object; best effort cleanup
		_ = h.spaces.DeleteFile(c.Context(), key)
		return response.InternalServerError(c, "Failed to record slide")
	}

	return response.Created(c, slide)
}

// DeleteSlide removes a slide row and its stored image
func (h *AdminHandler) DeleteSlide(c *fiber.Ctx) error {
	slideID, err := c.ParamsInt("slideID")
	if err != nil || slideID < 1 {
		return response.BadRequest(c, "Invalid slide id")
	}

	var slide model.Slide
	if err := h.db.First(&slide, slideID).Error; err != nil {
		return response.NotFound(c, "Slide not found")
	}

	if err := h.db.Delete(&slide).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete slide")
	}

	if h.spaces != nil && slide.ImageKey != "" {
		_ = h.spaces.DeleteFile(c.Context(), slide.ImageKey)
	}

	return response.SuccessWithMessage(c, "Slide deleted", nil)
}

func fiberFormInt(c *fiber.Ctx, key string) int {
	v, _ := strconv.Atoi(c.FormValue(key))
	return v
}
