package ml

// RawInput is one form submission. Numeric ranges are UI hints and are not enforced here.
type RawInput struct {
	BMI                   float64 `json:"bmi"`
	SleepHours            float64 `json:"sleep_hours"`
	PhysicalHealthBadDays int     `json:"physical_health_days"`
	MentalHealthBadDays   int     `json:"mental_health_days"`
	HadAngina             string  `json:"had_angina"`
	HadArthritis          string  `json:"had_arthritis"`
	AgeCategory           string  `json:"age_category"`
	Sex                   string  `json:"sex"`
	HadDiabetes           string  `json:"had_diabetes"`
}

// Field names used in encoding errors.
const (
	FieldHadAngina    = "HadAngina"
	FieldHadArthritis = "HadArthritis"
	FieldAgeCategory  = "AgeCategory"
	FieldSex          = "Sex"
	FieldHadDiabetes  = "HadDiabetes"
)

// Categories selected by the one-hot indicator columns.
const (
	AgeOld     = "Old"
	AgeYoung   = "Young"
	DiabetesNo = "No"
)

// FeatureCount is the length of the training-time feature vector.
const FeatureCount = 10

// FeatureVector is the encoded model input, ordered as FeatureNames.
type FeatureVector []float64

// FeatureNames returns the column names in vector order.
func FeatureNames() []string {
	return []string{
		"BMI",
		"HadAngina",
		"SleepHours",
		"PhysicalHealthDays",
		"AgeCategory_Old",
		"MentalHealthDays",
		"AgeCategory_Young",
		"HadArthritis",
		"Sex",
		"HadDiabetes_No",
	}
}

// Named returns the vector keyed by column name.
func (v FeatureVector) Named() map[string]float64 {
	names := FeatureNames()
	named := make(map[string]float64, len(v))
	for i, value := range v {
		if i < len(names) {
			named[names[i]] = value
		}
	}
	return named
}

// Clone returns a copy that can be modified without touching v.
func (v FeatureVector) Clone() FeatureVector {
	return append(FeatureVector(nil), v...)
}
