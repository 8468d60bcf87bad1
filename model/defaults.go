package model

// Default observation vocabularies seeded into every new case, one list per
// lab test type. These are fixed clinical terminology, loaded once at process
// start; nothing mutates them at runtime.

// CBCDefaultOptions is the default vocabulary for complete blood count findings.
var CBCDefaultOptions = []string{
	"Polycythemia",
	"No abnormalities",
	"Mild nonregenerative anemia",
	"Mild regenerative anemia",
	"Neutrophilia",
	"Neutropenia",
	"Lymphopenia",
	"Lymphocytosis",
	"Eosinophilia",
	"Eosinopenia",
	"Monocytosis",
}

// ChemDefaultOptions is the default vocabulary for clinical chemistry findings.
var ChemDefaultOptions = []string{
	"No abnormalities",
	"Physiological hypoglycemia",
	"Physiological hyperglycemia",
	"Significative hyperglycemia",
	"Artifactual hypoglycemia",
	"Uremia",
	"Low urea",
	"High liver enzymes",
	"Hyperproteinemia",
	"Hypoproteinemia",
	"Hypoalbuminemia",
	"Hyperglobulinemia",
	"Physiological hypercalcemia",
	"Significant hypercalcemia",
	"Hypocalcemia (hypoalbuminemia)",
	"Significant hypocalcemia",
	"Hyperphosphatemia",
	"Hyperkalemia",
	"Hypokalemia",
	"Hypernatremia",
	"Hyponatremia",
	"Hyperchloremia",
	"Hypochloremia",
	"High anion gap metabolic acidosis",
	"Hyperchloremic metabolic acidosis",
	"Metabolic alkalosis",
	"Mixed acid-base disorder",
}

// MorphoDefaultOptions is the default vocabulary for blood smear morphology findings.
var MorphoDefaultOptions = []string{
	"No abnormalities",
	"Reactive lymphocytes",
	"Circulating blasts",
	"Spherocytes",
	"Acanthocytes",
	"Keratocytes",
	"Schizocytes",
	"Heinz bodies",
	"Howell-Joly bodies",
	"Autoagglutination",
	"Microcytosis",
	"Megaloblasts",
	"Nucleated red blood cells",
	"Toxic neutrophils",
	"Immature neutrophils",
}

// DefaultOptionsForType returns the seed vocabulary for a lab test type.
// OTHER and SLIDE groups start with no options.
func DefaultOptionsForType(t LabTestType) []string {
	switch t {
	case LabTestTypeCBC:
		return CBCDefaultOptions
	case LabTestTypeChem:
		return ChemDefaultOptions
	case LabTestTypeMorpho:
		return MorphoDefaultOptions
	default:
		return nil
	}
}
