package services

import (
	"testing"

	"github.com/vetcaselab/vetcase-api/model"
)

func TestCreateSeedsDefaultLabTests(t *testing.T) {
	db := newTestDB(t)
	svc := NewCaseService(db)

	created, err := svc.Create(CreateCaseInput{
		Title:            "Anemic cat with icterus",
		History:          "Three days of lethargy",
		CorrectDiagnosis: "Immune-mediated hemolytic anemia",
		Explanation:      "Spherocytes and autoagglutination",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Slug != "anemic-cat-with-icterus" {
		t.Errorf("unexpected slug %q", created.Slug)
	}

	var groups []model.LabTestGroup
	if err := db.Where("case_id = ?", created.ID).Order("order_index").Find(&groups).Error; err != nil {
		t.Fatalf("failed to load groups: %v", err)
	}
	if len(groups) != 3 {
		t.Fatalf("expected 3 default groups, got %d", len(groups))
	}

	wantCounts := map[model.LabTestType]int{
		model.LabTestTypeCBC:    len(model.CBCDefaultOptions),
		model.LabTestTypeChem:   len(model.ChemDefaultOptions),
		model.LabTestTypeMorpho: len(model.MorphoDefaultOptions),
	}
	for _, g := range groups {
		var count int64
		db.Model(&model.ObservationOption{}).Where("lab_test_group_id = ?", g.ID).Count(&count)
		if int(count) != wantCounts[g.Type] {
			t.Errorf("%s: expected %d options, got %d", g.Type, wantCounts[g.Type], count)
		}

		// Seeded options carry no answer key yet
		var correct int64
		db.Model(&model.ObservationOption{}).
			Where("lab_test_group_id = ? AND is_correct = ?", g.ID, true).Count(&correct)
		if correct != 0 {
			t.Errorf("%s: seeded options must all be incorrect, found %d correct", g.Type, correct)
		}
	}
}

func TestCreateDuplicateTitleFails(t *testing.T) {
	db := newTestDB(t)
	svc := NewCaseService(db)

	input := CreateCaseInput{
		Title:            "Same title",
		History:          "h",
		CorrectDiagnosis: "d",
		Explanation:      "e",
	}
	if _, err := svc.Create(input); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	if _, err := svc.Create(input); err == nil {
		t.Error("expected duplicate slug to fail")
	}

	// The failed transaction must not leave orphaned groups
	var groupCount int64
	db.Model(&model.LabTestGroup{}).Count(&groupCount)
	if groupCount != 3 {
		t.Errorf("expected 3 groups from the single surviving case, got %d", groupCount)
	}
}

func TestImportSkipsIncompleteAndDuplicateRows(t *testing.T) {
	db := newTestDB(t)
	svc := NewCaseService(db)

	rows := []ImportRow{
		{Title: "Complete case", History: "h", CorrectDiagnosis: "d", Explanation: "e"},
		{Title: "Missing history", History: "", CorrectDiagnosis: "d", Explanation: "e"},
		{Title: "", History: "h", CorrectDiagnosis: "d", Explanation: "e"},
		{Title: "Complete case", History: "h2", CorrectDiagnosis: "d2", Explanation: "e2"}, // duplicate slug
		{Title: "Second complete case", History: "h", CorrectDiagnosis: "d", Explanation: "e"},
	}

	summary, err := svc.Import(rows)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if summary.TotalRows != 5 {
		t.Errorf("expected 5 total rows, got %d", summary.TotalRows)
	}
	if summary.Created != 2 {
		t.Errorf("expected 2 created, got %d", summary.Created)
	}
	if summary.Skipped != 2 {
		t.Errorf("expected 2 skipped, got %d", summary.Skipped)
	}
	if summary.Duplicate != 1 {
		t.Errorf("expected 1 duplicate, got %d", summary.Duplicate)
	}

	// Imported cases get the default seeding too
	var groupCount int64
	db.Model(&model.LabTestGroup{}).Count(&groupCount)
	if groupCount != 6 {
		t.Errorf("expected 6 lab test groups for 2 cases, got %d", groupCount)
	}
}

func TestListCasesHidesDrafts(t *testing.T) {
	db := newTestDB(t)
	svc := NewCaseService(db)

	if _, err := svc.Create(CreateCaseInput{
		Title: "Published case", History: "h", CorrectDiagnosis: "d", Explanation: "e", Published: true,
	}); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := svc.Create(CreateCaseInput{
		Title: "Draft case", History: "h", CorrectDiagnosis: "d", Explanation: "e", Published: false,
	}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	visible, total, err := svc.ListCases(CatalogQuery{})
	if err != nil {
		t.Fatalf("ListCases failed: %v", err)
	}
	if total != 1 || len(visible) != 1 {
		t.Fatalf("expected only the published case, got %d", total)
	}
	if visible[0].Title != "Published case" {
		t.Errorf("unexpected case %q", visible[0].Title)
	}

	_, allTotal, err := svc.ListCases(CatalogQuery{IncludeDrafts: true})
	if err != nil {
		t.Fatalf("ListCases with drafts failed: %v", err)
	}
	if allTotal != 2 {
		t.Errorf("expected 2 cases for admins, got %d", allTotal)
	}
}

func TestListCasesSearch(t *testing.T) {
	db := newTestDB(t)
	svc := NewCaseService(db)

	titles := []string{"Lethargic dog with anemia", "Vomiting cat", "Anemic foal"}
	for _, title := range titles {
		if _, err := svc.Create(CreateCaseInput{
			Title: title, History: "h", CorrectDiagnosis: "d", Explanation: "e", Published: true,
		}); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	_, total, err := svc.ListCases(CatalogQuery{Search: "anem"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if total != 2 {
		t.Errorf("expected 2 matches for \"anem\", got %d", total)
	}
}

func TestGetBySlugLoadsAnswerKeyServerSideOnly(t *testing.T) {
	db := newTestDB(t)
	svc := NewCaseService(db)
	created := createTestCase(t, db, "Slug lookup case")

	loaded, err := svc.GetBySlug(created.Slug, false)
	if err != nil {
		t.Fatalf("GetBySlug failed: %v", err)
	}
	if len(loaded.LabTests) != 3 {
		t.Errorf("expected 3 lab test groups preloaded, got %d", len(loaded.LabTests))
	}

	groups, err := svc.LoadAnswerKey(created.ID)
	if err != nil {
		t.Fatalf("LoadAnswerKey failed: %v", err)
	}
	if len(groups) != 3 {
		t.Errorf("expected 3 groups in answer key, got %d", len(groups))
	}
}

func TestToggleBookmark(t *testing.T) {
	db := newTestDB(t)
	svc := NewCaseService(db)
	user := createTestUser(t, db, "09123000001")
	caseStudy := createTestCase(t, db, "Bookmark case")

	on, err := svc.ToggleBookmark(user.ID, caseStudy.ID)
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if !on {
		t.Error("first toggle must bookmark")
	}

	bookmarks, err := svc.ListBookmarks(user.ID)
	if err != nil {
		t.Fatalf("ListBookmarks failed: %v", err)
	}
	if len(bookmarks) != 1 {
		t.Fatalf("expected 1 bookmark, got %d", len(bookmarks))
	}

	off, err := svc.ToggleBookmark(user.ID, caseStudy.ID)
	if err != nil {
		t.Fatalf("second toggle failed: %v", err)
	}
	if off {
		t.Error("second toggle must remove the bookmark")
	}
}
