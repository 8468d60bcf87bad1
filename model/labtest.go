package model

import (
	"time"

	"gorm.io/gorm"
)

// LabTestType identifies one category of lab results attached to a case
type LabTestType string

const (
	LabTestTypeCBC    LabTestType = "CBC"
	LabTestTypeChem   LabTestType = "CHEM"
	LabTestTypeMorpho LabTestType = "MORPHO"
	LabTestTypeOther  LabTestType = "OTHER"
	LabTestTypeSlide  LabTestType = "SLIDE"
)

// LabTestGroup is one block of lab results (CBC, clinical chemistry, ...)
// belonging to a case, together with its selectable observations.
type LabTestGroup struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	CaseID      uint           `gorm:"not null;index;uniqueIndex:idx_case_test_type" json:"case_id"`
	Type        LabTestType    `gorm:"type:varchar(20);not null;uniqueIndex:idx_case_test_type" json:"type"`
	Name        string         `json:"name"`
	NormalRange string         `gorm:"type:text" json:"normal_range"`
	ResultText  string         `gorm:"type:text" json:"result_text"`
	OrderIndex  int            `gorm:"default:0" json:"order_index"`

	// Relationships
	Case    Case                `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE" json:"-"`
	Options []ObservationOption `gorm:"foreignKey:LabTestGroupID;constraint:OnDelete:CASCADE" json:"options,omitempty"`
}

// TableName specifies the table name for LabTestGroup
func (LabTestGroup) TableName() string {
	return "case_lab_tests"
}

// ObservationOption is one selectable statement within a lab test group.
// The set of options flagged correct for a group is the answer key.
type ObservationOption struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
	LabTestGroupID uint           `gorm:"not null;index" json:"lab_test_group_id"`
	Text           string         `gorm:"type:text;not null" json:"text"`
	IsCorrect      bool           `gorm:"default:false" json:"-"` // answer key, hidden from students
	Explanation    string         `gorm:"type:text" json:"-"`
	OrderIndex     int            `gorm:"default:0" json:"order_index"`

	LabTestGroup LabTestGroup `gorm:"foreignKey:LabTestGroupID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for ObservationOption
func (ObservationOption) TableName() string {
	return "case_observation_options"
}
