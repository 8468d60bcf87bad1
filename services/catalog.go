package services

import (
	"fmt"
	"strings"

	"github.com/vetcaselab/vetcase-api/model"
	"github.com/vetcaselab/vetcase-api/utils/validation"
	"gorm.io/gorm"
)

// CatalogQuery filters a case listing.
type CatalogQuery struct {
	CategoryID    *uint
	SubCategoryID *uint
	Search        string
	IncludeDrafts bool // admin only
	Page          int
	Limit         int
}

// ListCases returns a page of cases plus the total match count.
// Non-admin callers only see published cases.
func (s *CaseService) ListCases(q CatalogQuery) ([]model.Case, int64, error) {
	db := s.db.Model(&model.Case{})

	if !q.IncludeDrafts {
		db = db.Where("published = ?", true)
	}
	if q.CategoryID != nil {
		db = db.Where("category_id = ?", *q.CategoryID)
	}
	if q.SubCategoryID != nil {
		db = db.Where("sub_category_id = ?", *q.SubCategoryID)
	}
	if search := strings.TrimSpace(q.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		db = db.Where("LOWER(title) LIKE ? OR LOWER(summary) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count cases: %w", err)
	}

	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = 20
	}

	var cases []model.Case
	err := db.Preload("Category").
		Order("created_at DESC").
		Offset((q.Page - 1) * q.Limit).
		Limit(q.Limit).
		Find(&cases).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list cases: %w", err)
	}

	return cases, total, nil
}

// GetBySlug loads one case with its slides, lab test groups and options.
// Returns gorm.ErrRecordNotFound for unknown or (for non-admins)
// unpublished slugs.
func (s *CaseService) GetBySlug(slug string, includeDrafts bool) (*model.Case, error) {
	db := s.db.Where("slug = ?", slug)
	if !includeDrafts {
		db = db.Where("published = ?", true)
	}

	var c model.Case
	err := db.Preload("Category").
		Preload("Slides", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC")
		}).
		Preload("LabTests", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC")
		}).
		Preload("LabTests.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC")
		}).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByID loads a case without preloads, drafts included.
func (s *CaseService) GetByID(id uint) (*model.Case, error) {
	var c model.Case
	if err := s.db.First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadAnswerKey loads a case's lab test groups together with option
// correctness flags. Used by grading, never exposed to clients.
func (s *CaseService) LoadAnswerKey(caseID uint) ([]model.LabTestGroup, error) {
	var groups []model.LabTestGroup
	err := s.db.Where("case_id = ?", caseID).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC")
		}).
		Order("order_index ASC").
		Find(&groups).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load answer key: %w", err)
	}
	return groups, nil
}

// ListCategories returns all categories with their sub categories.
func (s *CaseService) ListCategories() ([]model.CaseCategory, error) {
	var categories []model.CaseCategory
	err := s.db.Preload("SubCategories").Order("name ASC").Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// CreateCategory inserts a category, deriving its slug from the name.
func (s *CaseService) CreateCategory(name, description string) (*model.CaseCategory, error) {
	cat := &model.CaseCategory{
		Name:        strings.TrimSpace(name),
		Slug:        validation.Slugify(name),
		Description: description,
	}
	if err := s.db.Create(cat).Error; err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return cat, nil
}

// UpdateCase applies a partial update to authoring fields.
func (s *CaseService) UpdateCase(id uint, updates map[string]interface{}) (*model.Case, error) {
	var c model.Case
	if err := s.db.First(&c, id).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&c).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update case: %w", err)
	}
	return &c, nil
}

// DeleteCase soft deletes a case.
func (s *CaseService) DeleteCase(id uint) error {
	result := s.db.Delete(&model.Case{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete case: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ToggleBookmark adds or removes a bookmark and reports the new state.
func (s *CaseService) ToggleBookmark(userID, caseID uint) (bool, error) {
	var bookmark model.Bookmark
	err := s.db.Where("user_id = ? AND case_id = ?", userID, caseID).First(&bookmark).Error
	if err == nil {
		if err := s.db.Delete(&bookmark).Error; err != nil {
			return false, fmt.Errorf("failed to remove bookmark: %w", err)
		}
		return false, nil
	}
	if err != gorm.ErrRecordNotFound {
		return false, fmt.Errorf("failed to check bookmark: %w", err)
	}

	bookmark = model.Bookmark{UserID: userID, CaseID: caseID}
	if err := s.db.Create(&bookmark).Error; err != nil {
		return false, fmt.Errorf("failed to add bookmark: %w", err)
	}
	return true, nil
}

// ListBookmarks returns the user's bookmarked cases, newest first.
func (s *CaseService) ListBookmarks(userID uint) ([]model.Case, error) {
	var cases []model.Case
	err := s.db.
		Joins("JOIN case_bookmarks ON case_bookmarks.case_id = cases.id").
		Where("case_bookmarks.user_id = ?", userID).
		Where("cases.published = ?", true).
		Order("case_bookmarks.created_at DESC").
		Find(&cases).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list bookmarks: %w", err)
	}
	return cases, nil
}
