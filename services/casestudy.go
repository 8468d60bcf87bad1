package services

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/vetcaselab/vetcase-api/model"
	"github.com/vetcaselab/vetcase-api/utils/validation"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// CaseService owns case authoring: creation with default lab test
// seeding, and admin bulk import.
type CaseService struct {
	db *gorm.DB
}

// NewCaseService creates a new case service
func NewCaseService(db *gorm.DB) *CaseService {
	return &CaseService{db: db}
}

// CreateCaseInput is the authoring payload for one case.
type CreateCaseInput struct {
	CategoryID       *uint
	SubCategoryID    *uint
	Title            string
	Summary          string
	History          string
	CorrectDiagnosis string
	Explanation      string
	Published        bool
}

// defaultGroups describes the lab test groups every new case starts with.
var defaultGroups = []struct {
	Type        model.LabTestType
	Name        string
	NormalRange string
	OrderIndex  int
}{
	{model.LabTestTypeCBC, "Complete Blood Count", "Normal ranges vary by species", 1},
	{model.LabTestTypeChem, "Clinical Chemistry Panel", "Normal ranges vary by species", 2},
	{model.LabTestTypeMorpho, "Morphological Changes", "No abnormalities expected", 3},
}

// Create inserts the case and its default lab test groups plus their
// default observation vocabularies in one transaction. All seeded options
// start as incorrect; the answer key is set by the editor afterwards.
func (s *CaseService) Create(input CreateCaseInput) (*model.Case, error) {
	c := &model.Case{
		CategoryID:       input.CategoryID,
		SubCategoryID:    input.SubCategoryID,
		Title:            validation.SanitizeString(input.Title),
		Slug:             validation.Slugify(input.Title),
		Summary:          validation.SanitizeString(input.Summary),
		History:          input.History,
		CorrectDiagnosis: strings.TrimSpace(input.CorrectDiagnosis),
		Explanation:      input.Explanation,
		Published:        input.Published,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return fmt.Errorf("failed to create case: %w", err)
		}
		return seedDefaultLabTests(tx, c.ID)
	})
	if err != nil {
		return nil, err
	}

	return c, nil
}

// seedDefaultLabTests inserts the CBC/CHEM/MORPHO groups and their
// default vocabularies for a freshly created case.
func seedDefaultLabTests(tx *gorm.DB, caseID uint) error {
	for _, g := range defaultGroups {
		group := model.LabTestGroup{
			CaseID:      caseID,
			Type:        g.Type,
			Name:        g.Name,
			NormalRange: g.NormalRange,
			OrderIndex:  g.OrderIndex,
		}
		if err := tx.Create(&group).Error; err != nil {
			return fmt.Errorf("failed to seed %s group: %w", g.Type, err)
		}

		var options []model.ObservationOption
		for i, text := range model.DefaultOptionsForType(g.Type) {
			options = append(options, model.ObservationOption{
				LabTestGroupID: group.ID,
				Text:           text,
				IsCorrect:      false,
				OrderIndex:     i,
			})
		}
		if len(options) > 0 {
			if err := tx.Create(&options).Error; err != nil {
				return fmt.Errorf("failed to seed %s options: %w", g.Type, err)
			}
		}
	}
	return nil
}

// ImportRow is one spreadsheet row of the bulk import.
type ImportRow struct {
	Title            string
	History          string
	CorrectDiagnosis string
	Explanation      string
}

// ImportSummary reports what a bulk import did.
type ImportSummary struct {
	TotalRows int `json:"total_rows"`
	Created   int `json:"created"`
	Skipped   int `json:"skipped"`   // rows missing a required field
	Duplicate int `json:"duplicate"` // rows whose slug already existed
}

// requiredColumns are the spreadsheet headers the import expects.
var requiredColumns = []string{"title", "history", "correct_diagnosis", "explanation"}

// ParseXLSX reads import rows from the first sheet of an .xlsx upload.
// The first row must be the header; column order is free.
func ParseXLSX(r io.Reader) ([]ImportRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("spreadsheet has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(rows) == 0 {
		return nil, errors.New("spreadsheet is empty")
	}

	// Map header names to column indexes
	index := map[string]int{}
	for i, header := range rows[0] {
		index[strings.ToLower(strings.TrimSpace(header))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("missing required column %q", col)
		}
	}

	cell := func(row []string, col string) string {
		i := index[col]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var out []ImportRow
	for _, row := range rows[1:] {
		out = append(out, ImportRow{
			Title:            cell(row, "title"),
			History:          cell(row, "history"),
			CorrectDiagnosis: cell(row, "correct_diagnosis"),
			Explanation:      cell(row, "explanation"),
		})
	}
	return out, nil
}

// Import creates cases from parsed rows, best effort: rows missing any
// required field are skipped, duplicate slugs are silently ignored, and
// each created case gets the default lab test seeding.
func (s *CaseService) Import(rows []ImportRow) (*ImportSummary, error) {
	summary := &ImportSummary{TotalRows: len(rows)}

	for _, row := range rows {
		if row.Title == "" || row.History == "" || row.CorrectDiagnosis == "" || row.Explanation == "" {
			summary.Skipped++
			continue
		}

		slug := validation.Slugify(row.Title)
		var count int64
		if err := s.db.Model(&model.Case{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
			return summary, fmt.Errorf("failed to check duplicate: %w", err)
		}
		if count > 0 {
			summary.Duplicate++
			continue
		}

		_, err := s.Create(CreateCaseInput{
			Title:            row.Title,
			History:          row.History,
			CorrectDiagnosis: row.CorrectDiagnosis,
			Explanation:      row.Explanation,
		})
		if err != nil {
			// Best-effort: log and keep importing the rest
			log.Printf("Import: failed to create case %q: %v", row.Title, err)
			summary.Skipped++
			continue
		}
		summary.Created++
	}

	return summary, nil
}
