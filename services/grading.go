package services

import (
	"strings"

	"github.com/vetcaselab/vetcase-api/model"
)

// GradedGroup is one lab test group as the grading engine sees it: the
// full option universe plus the set of option IDs the student selected.
type GradedGroup struct {
	LabTestGroupID uint
	Options        []model.ObservationOption
	SelectedIDs    map[uint]bool
}

// GroupScore is the per-group breakdown of a grading result.
type GroupScore struct {
	LabTestGroupID uint    `json:"lab_test_group_id"`
	CorrectCount   int     `json:"correct_count"`
	TotalCount     int     `json:"total_count"`
	Accuracy       float64 `json:"accuracy_percentage"`
}

// GradingResult is the outcome of grading one submission.
type GradingResult struct {
	CorrectCount       int          `json:"correct_count"`
	TotalCount         int          `json:"total_count"`
	AccuracyPercentage float64      `json:"accuracy_percentage"`
	DiagnosisCorrect   bool         `json:"diagnosis_correct"`
	Groups             []GroupScore `json:"groups,omitempty"`
}

// DiagnosisMatcher decides whether a student's free-text diagnosis matches
// the case's reference diagnosis.
type DiagnosisMatcher interface {
	Match(submitted, reference string) bool
}

// SubstringMatcher is the default: case-insensitive containment of the
// trimmed submission within the reference text. Loose and typo-tolerant;
// a partial diagnosis matches, a correct diagnosis phrased differently
// does not.
type SubstringMatcher struct{}

func (SubstringMatcher) Match(submitted, reference string) bool {
	submitted = strings.ToLower(strings.TrimSpace(submitted))
	if submitted == "" {
		return false
	}
	return strings.Contains(strings.ToLower(reference), submitted)
}

// ExactMatcher requires the full diagnosis, ignoring case and surrounding
// whitespace.
type ExactMatcher struct{}

func (ExactMatcher) Match(submitted, reference string) bool {
	return strings.EqualFold(strings.TrimSpace(submitted), strings.TrimSpace(reference))
}

// KeywordMatcher requires every word of the reference to appear in the
// submission, in any order.
type KeywordMatcher struct{}

func (KeywordMatcher) Match(submitted, reference string) bool {
	submitted = strings.ToLower(strings.TrimSpace(submitted))
	if submitted == "" {
		return false
	}
	for _, word := range strings.Fields(strings.ToLower(reference)) {
		if !strings.Contains(submitted, word) {
			return false
		}
	}
	return true
}

// NewDiagnosisMatcher picks a matcher by name, defaulting to substring.
func NewDiagnosisMatcher(name string) DiagnosisMatcher {
	switch name {
	case "exact":
		return ExactMatcher{}
	case "keywords":
		return KeywordMatcher{}
	default:
		return SubstringMatcher{}
	}
}

// GradingEngine scores a submitted answer set against a case's answer key.
// It has no side effects; callers persist the result.
type GradingEngine struct {
	matcher DiagnosisMatcher
}

// NewGradingEngine creates a grading engine with the given diagnosis matcher.
func NewGradingEngine(matcher DiagnosisMatcher) *GradingEngine {
	return &GradingEngine{matcher: matcher}
}

// Grade compares the student's implicit binary judgment on every option
// (selected vs not) against the option's is_correct flag. Options left
// correctly unselected count as correct judgments, exactly like correctly
// selected ones. A case with no options grades to accuracy 0.
func (e *GradingEngine) Grade(groups []GradedGroup, diagnosis, correctDiagnosis string) GradingResult {
	result := GradingResult{}

	for _, g := range groups {
		score := GroupScore{LabTestGroupID: g.LabTestGroupID}
		for _, opt := range g.Options {
			score.TotalCount++
			if g.SelectedIDs[opt.ID] == opt.IsCorrect {
				score.CorrectCount++
			}
		}
		if score.TotalCount > 0 {
			score.Accuracy = model.Round1(float64(score.CorrectCount) / float64(score.TotalCount) * 100)
		}

		result.CorrectCount += score.CorrectCount
		result.TotalCount += score.TotalCount
		result.Groups = append(result.Groups, score)
	}

	if result.TotalCount > 0 {
		result.AccuracyPercentage = model.Round1(float64(result.CorrectCount) / float64(result.TotalCount) * 100)
	}

	result.DiagnosisCorrect = e.matcher.Match(diagnosis, correctDiagnosis)

	return result
}
