package model

import (
	"time"

	"gorm.io/gorm"
)

// CaseCategory is a top-level grouping for clinical cases (e.g. Hematology)
type CaseCategory struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	Name        string         `gorm:"uniqueIndex;not null" json:"name"`
	Slug        string         `gorm:"uniqueIndex" json:"slug"`
	Description string         `gorm:"type:text" json:"description"`

	// Relationships
	SubCategories []SubCategory `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"sub_categories,omitempty"`
	Cases         []Case        `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL" json:"-"`
}

// TableName specifies the table name for CaseCategory
func (CaseCategory) TableName() string {
	return "case_categories"
}

// SubCategory is a second-level tag under a CaseCategory
type SubCategory struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	CategoryID  uint           `gorm:"not null;index" json:"category_id"`
	Name        string         `gorm:"not null" json:"name"`
	Slug        string         `json:"slug"`
	Description string         `gorm:"type:text" json:"description"`

	Category CaseCategory `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for SubCategory
func (SubCategory) TableName() string {
	return "case_sub_categories"
}

// Case is one clinical scenario presented to a student: patient history,
// lab results, slides and an answer key.
type Case struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
	CategoryID       *uint          `gorm:"index" json:"category_id,omitempty"`
	SubCategoryID    *uint          `gorm:"index" json:"sub_category_id,omitempty"`
	Title            string         `gorm:"not null" json:"title"`
	Slug             string         `gorm:"uniqueIndex" json:"slug"`
	Summary          string         `gorm:"type:text" json:"summary"`
	History          string         `gorm:"type:text" json:"history"`
	CorrectDiagnosis string         `gorm:"type:text" json:"-"` // answer key, never serialized to students
	Explanation      string         `gorm:"type:text" json:"explanation,omitempty"`
	Published        bool           `gorm:"default:false;index" json:"published"`

	// Relationships
	Category    *CaseCategory  `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL" json:"category,omitempty"`
	SubCategory *SubCategory   `gorm:"foreignKey:SubCategoryID;constraint:OnDelete:SET NULL" json:"sub_category,omitempty"`
	LabTests    []LabTestGroup `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE" json:"lab_tests,omitempty"`
	Slides      []Slide        `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE" json:"slides,omitempty"`
	Progress    []UserProgress `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE" json:"-"`
	Bookmarks   []Bookmark     `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for Case
func (Case) TableName() string {
	return "cases"
}

// Slide is one histology image attached to a case. The image itself lives
// in object storage; ImageKey is the bucket key.
type Slide struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	CaseID      uint           `gorm:"not null;index" json:"case_id"`
	ImageKey    string         `gorm:"type:varchar(255)" json:"-"`
	ImageURL    string         `gorm:"type:varchar(500)" json:"image_url"`
	Title       string         `json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	OrderIndex  int            `gorm:"default:0" json:"order_index"`

	Case Case `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for Slide
func (Slide) TableName() string {
	return "case_slides"
}

// Bookmark lets a student save a case with personal notes
type Bookmark struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_bookmark_user_case" json:"user_id"`
	CaseID    uint      `gorm:"not null;uniqueIndex:idx_bookmark_user_case" json:"case_id"`
	Notes     string    `gorm:"type:text" json:"notes"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Case Case `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE" json:"case,omitempty"`
}

// TableName specifies the table name for Bookmark
func (Bookmark) TableName() string {
	return "case_bookmarks"
}
