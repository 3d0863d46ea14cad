package fhir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hqride/clinical-summarizer/internal/domain"
)

func sampleSummary() *domain.ClinicalSummary {
	age := 45
	return &domain.ClinicalSummary{
		PatientAge:    &age,
		PatientGender: "masculino",
		Symptoms: []domain.Symptom{
			{Name: "chest pain", Duration: "2 days", Severity: "moderate", Description: "worse on exertion"},
			{Name: "shortness of breath"},
		},
		RiskFactors:        []string{"smoker"},
		RelevantConditions: []string{"angina"},
		NarrativeSummary:   "45 year old male smoker with exertional chest pain.",
	}
}

func resourcesOfType(b *Bundle, resourceType string) []Resource {
	var out []Resource
	for _, entry := range b.Entry {
		if entry.Resource.ResourceType == resourceType {
			out = append(out, entry.Resource)
		}
	}
	return out
}

func TestFromSummary(t *testing.T) {
	bundle := FromSummary(sampleSummary())

	assert.Equal(t, "Bundle", bundle.ResourceType)
	assert.Equal(t, "collection", bundle.Type)

	patients := resourcesOfType(bundle, "Patient")
	require.Len(t, patients, 1)
	assert.Equal(t, "patient-1", patients[0].ID)
	assert.Equal(t, "male", patients[0].Gender, "gender must be normalized to FHIR codes")
	require.Len(t, patients[0].Extension, 1)
	require.NotNil(t, patients[0].Extension[0].ValueInteger)
	assert.Equal(t, 45, *patients[0].Extension[0].ValueInteger)

	conditions := resourcesOfType(bundle, "Condition")
	require.Len(t, conditions, 1)
	assert.Equal(t, "angina", conditions[0].Code.Text)
	assert.Equal(t, "active", conditions[0].ClinicalStatus.Coding[0].Code)
	assert.Equal(t, "Patient/patient-1", conditions[0].Subject.Reference)

	observations := resourcesOfType(bundle, "Observation")
	require.Len(t, observations, 2)
	assert.Equal(t, "final", observations[0].Status)
	assert.Equal(t, "chest pain", observations[0].Code.Text)
	assert.Equal(t, "worse on exertion", observations[0].ValueString)
	require.Len(t, observations[0].Extension, 2)
	assert.Equal(t, "2 days", observations[0].Extension[0].ValueString)
	assert.Equal(t, "moderate", observations[0].Extension[1].ValueString)

	// Without a description the symptom name backs the value.
	assert.Equal(t, "shortness of breath", observations[1].ValueString)
	assert.Empty(t, observations[1].Extension)

	impressions := resourcesOfType(bundle, "ClinicalImpression")
	require.Len(t, impressions, 1)
	assert.Equal(t, "completed", impressions[0].Status)
	assert.Contains(t, impressions[0].Summary, "exertional chest pain")
	require.Len(t, impressions[0].Finding, 2)
	assert.Equal(t, "Observation/observation-1", impressions[0].Finding[0].ItemReference.Reference)
	assert.Equal(t, "Observation/observation-2", impressions[0].Finding[1].ItemReference.Reference)
}

func TestFromSummary_NoPatientDetails(t *testing.T) {
	bundle := FromSummary(&domain.ClinicalSummary{
		NarrativeSummary: "anonymous visit",
	})

	assert.Empty(t, resourcesOfType(bundle, "Patient"))
	assert.Empty(t, resourcesOfType(bundle, "Condition"))
	assert.Empty(t, resourcesOfType(bundle, "Observation"))

	impressions := resourcesOfType(bundle, "ClinicalImpression")
	require.Len(t, impressions, 1)
	assert.Equal(t, "anonymous visit", impressions[0].Summary)
	assert.Empty(t, impressions[0].Finding)
}

func TestFromSummary_GenderPassthrough(t *testing.T) {
	bundle := FromSummary(&domain.ClinicalSummary{PatientGender: "Other"})

	patients := resourcesOfType(bundle, "Patient")
	require.Len(t, patients, 1)
	assert.Equal(t, "other", patients[0].Gender)
}

func TestToSummary_RoundTrip(t *testing.T) {
	original := sampleSummary()

	got := ToSummary(FromSummary(original))

	require.NotNil(t, got.PatientAge)
	assert.Equal(t, 45, *got.PatientAge)
	assert.Equal(t, "male", got.PatientGender)
	require.Len(t, got.Symptoms, 2)
	assert.Equal(t, "chest pain", got.Symptoms[0].Name)
	assert.Equal(t, "2 days", got.Symptoms[0].Duration)
	assert.Equal(t, "moderate", got.Symptoms[0].Severity)
	assert.Equal(t, original.RelevantConditions, got.RelevantConditions)
	assert.Equal(t, original.NarrativeSummary, got.NarrativeSummary)

	// Risk factors have no FHIR representation.
	assert.Empty(t, got.RiskFactors)
}
