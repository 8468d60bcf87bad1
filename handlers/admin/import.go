package admin

import (
	"encoding/csv"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/vetcaselab/vetcase-api/services"
	"github.com/vetcaselab/vetcase-api/utils/response"
)

// ImportCases bulk-creates cases from an uploaded .xlsx or .csv file.
// Rows missing required fields are skipped, duplicates are ignored, and
// the summary reports what happened to each row class.
func (h *AdminHandler) ImportCases(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return response.BadRequest(c, "Missing file upload")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return response.BadRequest(c, "Failed to open uploaded file")
	}
	defer file.Close()

	var rows []services.ImportRow
	switch strings.ToLower(filepath.Ext(fileHeader.Filename)) {
	case ".xlsx":
		rows, err = services.ParseXLSX(file)
	case ".csv":
		rows, err = parseCSV(file)
	default:
		return response.BadRequest(c, "Unsupported file type, expected .xlsx or .csv")
	}
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	summary, err := h.cases.Import(rows)
	if err != nil {
		return response.InternalServerError(c, "Import failed")
	}

	return response.Success(c, summary)
}

func parseCSV(file multipart.File) ([]services.ImportRow, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, err
	}

	index := map[string]int{}
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}

	cell := func(record []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var rows []services.ImportRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, services.ImportRow{
			Title:            cell(record, "title"),
			History:          cell(record, "history"),
			CorrectDiagnosis: cell(record, "correct_diagnosis"),
			Explanation:      cell(record, "explanation"),
		})
	}
	return rows, nil
}
