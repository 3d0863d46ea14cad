package domain

import "time"

// Symptom is a single symptom extracted from a clinical conversation.
type Symptom struct {
	Name        string `json:"name"`
	Duration    string `json:"duration,omitempty"`
	Severity    string `json:"severity,omitempty"`
	Description string `json:"description,omitempty"`
}

// ClinicalSummary is the structured result produced by the inference
// provider for one job. The lifecycle manager treats it as opaque; the
// fields exist so the FHIR adapter and API can render it.
type ClinicalSummary struct {
	PatientAge         *int      `json:"patient_age,omitempty"`
	PatientGender      string    `json:"patient_gender,omitempty"`
	Symptoms           []Symptom `json:"symptoms"`
	RiskFactors        []string  `json:"risk_factors"`
	RelevantConditions []string  `json:"relevant_conditions"`
	NarrativeSummary   string    `json:"narrative_summary"`
	CreatedAt          time.Time `json:"created_at"`
}
