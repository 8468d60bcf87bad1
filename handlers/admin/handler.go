package admin

import (
	"github.com/vetcaselab/vetcase-api/services"
	"github.com/vetcaselab/vetcase-api/services/storage"
	"gorm.io/gorm"
)

// AdminHandler groups staff-only operations: bulk import and slide uploads
type AdminHandler struct {
	db     *gorm.DB
	cases  *services.CaseService
	spaces *storage.SpacesClient // nil when object storage is not configured
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(db *gorm.DB, cases *services.CaseService, spaces *storage.SpacesClient) *AdminHandler {
	return &AdminHandler{
		db:     db,
		cases:  cases,
		spaces: spaces,
	}
}
