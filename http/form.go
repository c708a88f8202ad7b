package http

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"heartrisk/ml"
)

//go:embed templates/index.html
var templateFS embed.FS

var formTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

type formSelect struct {
	Label    string
	Name     string
	Options  []string
	Selected string
}

type formPage struct {
	Form    ml.RawInput
	Selects []formSelect
	Risk    ml.RiskLabel
	Error   string
}

// DefaultFormInput is the form's initial state; each select starts at its first option.
func DefaultFormInput() ml.RawInput {
	return ml.RawInput{
		BMI:                   25.0,
		SleepHours:            7.0,
		PhysicalHealthBadDays: 5,
		MentalHealthBadDays:   5,
		HadAngina:             "No",
		HadArthritis:          "No",
		AgeCategory:           "Young",
		Sex:                   "Male",
		HadDiabetes:           "No",
	}
}

func newFormPage(input ml.RawInput) formPage {
	return formPage{
		Form: input,
		Selects: []formSelect{
			{Label: "Had Angina?", Name: "had_angina", Options: []string{"No", "Yes"}, Selected: input.HadAngina},
			{Label: "Had Arthritis?", Name: "had_arthritis", Options: []string{"No", "Yes"}, Selected: input.HadArthritis},
			{Label: "Age Category", Name: "age_category", Options: []string{"Young", "Middle-Aged", "Old"}, Selected: input.AgeCategory},
			{Label: "Sex", Name: "sex", Options: []string{"Male", "Female"}, Selected: input.Sex},
			{Label: "Had Diabetes?", Name: "had_diabetes", Options: []string{"No", "Yes", "Borderline"}, Selected: input.HadDiabetes},
		},
	}
}

func (h *Handlers) handleForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, newFormPage(DefaultFormInput()))
}

// handleFormSubmit mirrors /api/predict for browser posts. Failures are shown on the page.
func (h *Handlers) handleFormSubmit(w http.ResponseWriter, r *http.Request) {
	input, err := parseForm(r)
	page := newFormPage(input)
	if err != nil {
		page.Error = err.Error()
		h.renderForm(w, page)
		return
	}

	prediction, err := h.predict(r.Context(), uuid.NewString(), input)
	if err != nil {
		page.Error = err.Error()
	} else {
		page.Risk = prediction.Risk
	}
	h.renderForm(w, page)
}

func (h *Handlers) renderForm(w http.ResponseWriter, page formPage) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := formTemplate.Execute(w, page); err != nil {
		h.logger.Error("render form failed", zap.Error(err))
	}
}

// parseForm reads the posted fields. Unparseable numbers are reported; the
// categorical values are passed through for the encoder to judge.
func parseForm(r *http.Request) (ml.RawInput, error) {
	input := DefaultFormInput()
	if err := r.ParseForm(); err != nil {
		return input, fmt.Errorf("invalid form: %w", err)
	}

	input.HadAngina = r.PostFormValue("had_angina")
	input.HadArthritis = r.PostFormValue("had_arthritis")
	input.AgeCategory = r.PostFormValue("age_category")
	input.Sex = r.PostFormValue("sex")
	input.HadDiabetes = r.PostFormValue("had_diabetes")

	var err error
	if input.BMI, err = formFloat(r, "bmi"); err != nil {
		return input, err
	}
	if input.SleepHours, err = formFloat(r, "sleep_hours"); err != nil {
		return input, err
	}
	if input.PhysicalHealthBadDays, err = formInt(r, "physical_health_days"); err != nil {
		return input, err
	}
	if input.MentalHealthBadDays, err = formInt(r, "mental_health_days"); err != nil {
		return input, err
	}
	return input, nil
}

func formFloat(r *http.Request, name string) (float64, error) {
	v, err := strconv.ParseFloat(r.PostFormValue(name), 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", name)
	}
	return v, nil
}

func formInt(r *http.Request, name string) (int, error) {
	v, err := strconv.Atoi(r.PostFormValue(name))
	if err != nil {
		return 0, fmt.Errorf("%s must be a whole number", name)
	}
	return v, nil
}
