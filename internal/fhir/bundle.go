// Package fhir renders clinical summaries as simplified FHIR bundles.
// Only the resources the summary maps onto are modeled: Patient,
// Condition, Observation, and ClinicalImpression.
package fhir

import (
	"fmt"
	"strings"

	"github.com/hqride/clinical-summarizer/internal/domain"
)

const (
	patientID = "patient-1"

	extAge      = "http://example.org/fhir/StructureDefinition/age"
	extDuration = "http://example.org/fhir/StructureDefinition/duration"
	extSeverity = "http://example.org/fhir/StructureDefinition/severity"

	conditionClinicalSystem = "http://terminology.hl7.org/CodeSystem/condition-clinical"
)

// Bundle is a FHIR collection bundle.
type Bundle struct {
	ResourceType string  `json:"resourceType"`
	Type         string  `json:"type"`
	Entry        []Entry `json:"entry"`
}

// Entry wraps one resource inside a bundle.
type Entry struct {
	Resource Resource `json:"resource"`
}

// Resource is a union of the resource fields this service emits. FHIR
// resources share an envelope; omitempty keeps each rendered resource to
// the fields its type uses.
type Resource struct {
	ResourceType   string           `json:"resourceType"`
	ID             string           `json:"id"`
	Status         string           `json:"status,omitempty"`
	Gender         string           `json:"gender,omitempty"`
	Code           *CodeableConcept `json:"code,omitempty"`
	Subject        *Reference       `json:"subject,omitempty"`
	ClinicalStatus *CodeableConcept `json:"clinicalStatus,omitempty"`
	ValueString    string           `json:"valueString,omitempty"`
	Extension      []Extension      `json:"extension,omitempty"`
	Summary        string           `json:"summary,omitempty"`
	Finding        []Finding        `json:"finding,omitempty"`
}

// CodeableConcept carries a coded or free-text concept.
type CodeableConcept struct {
	Text   string   `json:"text,omitempty"`
	Coding []Coding `json:"coding,omitempty"`
}

// Coding is one code from a terminology system.
type Coding struct {
	System  string `json:"system"`
	Code    string `json:"code"`
	Display string `json:"display"`
}

// Reference points at another resource in the bundle.
type Reference struct {
	Reference string `json:"reference"`
}

// Extension is a FHIR extension with the value types this service uses.
type Extension struct {
	URL          string `json:"url"`
	ValueInteger *int   `json:"valueInteger,omitempty"`
	ValueString  string `json:"valueString,omitempty"`
}

// Finding links a ClinicalImpression to a supporting observation.
type Finding struct {
	ItemReference Reference `json:"itemReference"`
}

// genderMap normalizes the gender values the model tends to emit onto
// FHIR administrative-gender codes.
var genderMap = map[string]string{
	"masculino": "male",
	"femenino":  "female",
	"m":         "male",
	"f":         "female",
}

// FromSummary renders a clinical summary as a collection bundle. Resource
// ids are stable within the bundle so findings can reference observations.
func FromSummary(s *domain.ClinicalSummary) *Bundle {
	bundle := &Bundle{
		ResourceType: "Bundle",
		Type:         "collection",
		Entry:        []Entry{},
	}

	if s.PatientAge != nil || s.PatientGender != "" {
		patient := Resource{
			ResourceType: "Patient",
			ID:           patientID,
		}
		if s.PatientAge != nil {
			patient.Extension = []Extension{{URL: extAge, ValueInteger: s.PatientAge}}
		}
		if s.PatientGender != "" {
			gender := strings.ToLower(s.PatientGender)
			if mapped, ok := genderMap[gender]; ok {
				gender = mapped
			}
			patient.Gender = gender
		}
		bundle.Entry = append(bundle.Entry, Entry{Resource: patient})
	}

	for idx, condition := range s.RelevantConditions {
		bundle.Entry = append(bundle.Entry, Entry{Resource: Resource{
			ResourceType: "Condition",
			ID:           fmt.Sprintf("condition-%d", idx+1),
			Code:         &CodeableConcept{Text: condition},
			Subject:      &Reference{Reference: "Patient/" + patientID},
			ClinicalStatus: &CodeableConcept{
				Coding: []Coding{{
					System:  conditionClinicalSystem,
					Code:    "active",
					Display: "Active",
				}},
			},
		}})
	}

	for idx, symptom := range s.Symptoms {
		value := symptom.Description
		if value == "" {
			value = symptom.Name
		}

		observation := Resource{
			ResourceType: "Observation",
			ID:           fmt.Sprintf("observation-%d", idx+1),
			Status:       "final",
			Code:         &CodeableConcept{Text: symptom.Name},
			Subject:      &Reference{Reference: "Patient/" + patientID},
			ValueString:  value,
		}
		if symptom.Duration != "" {
			observation.Extension = append(observation.Extension, Extension{
				URL:         extDuration,
				ValueString: symptom.Duration,
			})
		}
		if symptom.Severity != "" {
			observation.Extension = append(observation.Extension, Extension{
				URL:         extSeverity,
				ValueString: symptom.Severity,
			})
		}
		bundle.Entry = append(bundle.Entry, Entry{Resource: observation})
	}

	findings := make([]Finding, 0, len(s.Symptoms))
	for idx := range s.Symptoms {
		findings = append(findings, Finding{
			ItemReference: Reference{
				Reference: fmt.Sprintf("Observation/observation-%d", idx+1),
			},
		})
	}

	bundle.Entry = append(bundle.Entry, Entry{Resource: Resource{
		ResourceType: "ClinicalImpression",
		ID:           "impression-1",
		Status:       "completed",
		Subject:      &Reference{Reference: "Patient/" + patientID},
		Summary:      s.NarrativeSummary,
		Finding:      findings,
	}})

	return bundle
}

// ToSummary rebuilds a clinical summary from a bundle previously produced
// by FromSummary. Risk factors have no FHIR resource and are lost in the
// round trip.
func ToSummary(b *Bundle) *domain.ClinicalSummary {
	summary := &domain.ClinicalSummary{
		Symptoms:           []domain.Symptom{},
		RiskFactors:        []string{},
		RelevantConditions: []string{},
	}

	for _, entry := range b.Entry {
		resource := entry.Resource
		switch resource.ResourceType {
		case "Patient":
			for _, ext := range resource.Extension {
				if strings.Contains(ext.URL, "age") && ext.ValueInteger != nil {
					summary.PatientAge = ext.ValueInteger
				}
			}
			summary.PatientGender = resource.Gender

		case "Condition":
			if resource.Code != nil && resource.Code.Text != "" {
				summary.RelevantConditions = append(summary.RelevantConditions, resource.Code.Text)
			}

		case "Observation":
			symptom := domain.Symptom{
				Description: resource.ValueString,
			}
			if resource.Code != nil {
				symptom.Name = resource.Code.Text
			}
			for _, ext := range resource.Extension {
				switch {
				case strings.Contains(ext.URL, "duration"):
					symptom.Duration = ext.ValueString
				case strings.Contains(ext.URL, "severity"):
					symptom.Severity = ext.ValueString
				}
			}
			summary.Symptoms = append(summary.Symptoms, symptom)

		case "ClinicalImpression":
			summary.NarrativeSummary = resource.Summary
		}
	}

	return summary
}
