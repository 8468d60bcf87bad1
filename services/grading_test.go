package services

import (
	"testing"

	"github.com/vetcaselab/vetcase-api/model"
)

func optionSet(correct ...bool) []model.ObservationOption {
	opts := make([]model.ObservationOption, len(correct))
	for i, c := range correct {
		opts[i] = model.ObservationOption{ID: uint(i + 1), IsCorrect: c}
	}
	return opts
}

func TestGradePerfectSelection(t *testing.T) {
	engine := NewGradingEngine(SubstringMatcher{})

	// Options 1 and 3 are correct; exactly those are selected
	groups := []GradedGroup{{
		LabTestGroupID: 1,
		Options:        optionSet(true, false, true, false),
		SelectedIDs:    map[uint]bool{1: true, 3: true},
	}}

	result := engine.Grade(groups, "chronic hepatitis", "Chronic hepatitis")

	if result.CorrectCount != 4 || result.TotalCount != 4 {
		t.Errorf("expected 4/4, got %d/%d", result.CorrectCount, result.TotalCount)
	}
	if result.AccuracyPercentage != 100 {
		t.Errorf("expected accuracy 100, got %v", result.AccuracyPercentage)
	}
	if !result.DiagnosisCorrect {
		t.Error("expected diagnosis to match")
	}
}

func TestGradeEmptySelection(t *testing.T) {
	engine := NewGradingEngine(SubstringMatcher{})

	// 2 of 5 options are correct and nothing is selected: the 3 correctly
	// unselected wrong options still count as correct judgments
	groups := []GradedGroup{{
		LabTestGroupID: 1,
		Options:        optionSet(true, true, false, false, false),
		SelectedIDs:    nil,
	}}

	result := engine.Grade(groups, "", "Chronic hepatitis")

	if result.CorrectCount != 3 || result.TotalCount != 5 {
		t.Errorf("expected 3/5, got %d/%d", result.CorrectCount, result.TotalCount)
	}
	if result.AccuracyPercentage != 60 {
		t.Errorf("expected accuracy 60, got %v", result.AccuracyPercentage)
	}
	if result.DiagnosisCorrect {
		t.Error("empty diagnosis must not match")
	}
}

func TestGradeNoOptions(t *testing.T) {
	engine := NewGradingEngine(SubstringMatcher{})

	result := engine.Grade(nil, "anything", "Chronic hepatitis")

	if result.TotalCount != 0 {
		t.Errorf("expected total 0, got %d", result.TotalCount)
	}
	if result.AccuracyPercentage != 0 {
		t.Errorf("expected accuracy 0 when there are no options, got %v", result.AccuracyPercentage)
	}
}

func TestGradeSelectedWrongOption(t *testing.T) {
	engine := NewGradingEngine(SubstringMatcher{})

	// Neutrophilia (correct) and Neutropenia (incorrect). Selecting only
	// the correct one scores 2/2; selecting both scores 1/2.
	options := []model.ObservationOption{
		{ID: 1, Text: "Neutrophilia", IsCorrect: true},
		{ID: 2, Text: "Neutropenia", IsCorrect: false},
	}

	onlyCorrect := engine.Grade([]GradedGroup{{
		LabTestGroupID: 1,
		Options:        options,
		SelectedIDs:    map[uint]bool{1: true},
	}}, "", "x")
	if onlyCorrect.AccuracyPercentage != 100 {
		t.Errorf("expected 100 for exact selection, got %v", onlyCorrect.AccuracyPercentage)
	}

	both := engine.Grade([]GradedGroup{{
		LabTestGroupID: 1,
		Options:        options,
		SelectedIDs:    map[uint]bool{1: true, 2: true},
	}}, "", "x")
	if both.AccuracyPercentage != 50 {
		t.Errorf("expected 50 when a wrong option is also selected, got %v", both.AccuracyPercentage)
	}
}

func TestGradeAccuracyRounding(t *testing.T) {
	engine := NewGradingEngine(SubstringMatcher{})

	// Only the untouched wrong option is judged correctly: the correct one
	// was missed and a wrong one was picked. 1 of 3 is 33.333..., rounded
	// to 33.3.
	groups := []GradedGroup{{
		LabTestGroupID: 1,
		Options:        optionSet(true, false, false),
		SelectedIDs:    map[uint]bool{2: true},
	}}

	result := engine.Grade(groups, "", "x")
	if result.CorrectCount != 1 || result.TotalCount != 3 {
		t.Fatalf("expected 1/3, got %d/%d", result.CorrectCount, result.TotalCount)
	}
	if result.AccuracyPercentage != 33.3 {
		t.Errorf("expected 33.3, got %v", result.AccuracyPercentage)
	}
}

func TestGradePerGroupBreakdown(t *testing.T) {
	engine := NewGradingEngine(SubstringMatcher{})

	groups := []GradedGroup{
		{LabTestGroupID: 1, Options: optionSet(true, false), SelectedIDs: map[uint]bool{1: true}},
		{LabTestGroupID: 2, Options: optionSet(false, false), SelectedIDs: map[uint]bool{1: true, 2: true}},
	}

	result := engine.Grade(groups, "", "x")

	if len(result.Groups) != 2 {
		t.Fatalf("expected 2 group scores, got %d", len(result.Groups))
	}
	if result.Groups[0].Accuracy != 100 {
		t.Errorf("group 1: expected 100, got %v", result.Groups[0].Accuracy)
	}
	if result.Groups[1].Accuracy != 0 {
		t.Errorf("group 2: expected 0, got %v", result.Groups[1].Accuracy)
	}
	if result.CorrectCount != 2 || result.TotalCount != 4 {
		t.Errorf("expected overall 2/4, got %d/%d", result.CorrectCount, result.TotalCount)
	}
}

func TestSubstringMatcher(t *testing.T) {
	m := SubstringMatcher{}

	cases := []struct {
		submitted string
		reference string
		want      bool
	}{
		{"hepatitis", "Chronic hepatitis", true},
		{"  CHRONIC HEPATITIS  ", "Chronic hepatitis", true},
		{"Hepatic failure", "Chronic hepatitis", false},
		{"", "Chronic hepatitis", false},
		{"   ", "Chronic hepatitis", false},
	}
	for _, tc := range cases {
		if got := m.Match(tc.submitted, tc.reference); got != tc.want {
			t.Errorf("Match(%q, %q) = %v, want %v", tc.submitted, tc.reference, got, tc.want)
		}
	}
}

func TestExactMatcher(t *testing.T) {
	m := ExactMatcher{}

	if !m.Match(" chronic hepatitis ", "Chronic Hepatitis") {
		t.Error("expected case-insensitive trimmed match")
	}
	if m.Match("hepatitis", "Chronic hepatitis") {
		t.Error("partial diagnosis must not match exactly")
	}
}

func TestKeywordMatcher(t *testing.T) {
	m := KeywordMatcher{}

	if !m.Match("the dog shows chronic active hepatitis", "chronic hepatitis") {
		t.Error("expected match when all reference words appear")
	}
	if m.Match("chronic renal disease", "chronic hepatitis") {
		t.Error("missing reference word must not match")
	}
	if m.Match("", "chronic hepatitis") {
		t.Error("empty submission must not match")
	}
}

func TestNewDiagnosisMatcher(t *testing.T) {
	if _, ok := NewDiagnosisMatcher("exact").(ExactMatcher); !ok {
		t.Error("expected ExactMatcher for \"exact\"")
	}
	if _, ok := NewDiagnosisMatcher("keywords").(KeywordMatcher); !ok {
		t.Error("expected KeywordMatcher for \"keywords\"")
	}
	if _, ok := NewDiagnosisMatcher("").(SubstringMatcher); !ok {
		t.Error("expected SubstringMatcher as the default")
	}
	if _, ok := NewDiagnosisMatcher("bogus").(SubstringMatcher); !ok {
		t.Error("expected SubstringMatcher for unknown names")
	}
}
