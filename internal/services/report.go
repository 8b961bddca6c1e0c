package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/mindscreen/mindscreen/internal/instrument"
	"github.com/mindscreen/mindscreen/internal/models"
)

const reportTitle = "Mental Health Screening Report"

const reportDisclaimer = "Note: This is a self-assessment screening report and does not replace\n" +
	"any clinical diagnosis, treatment or professional consultation."

// BuildReport renders one assessment as a downloadable plain-text report.
// Recommended actions for the record's risk tier are appended when known.
func BuildReport(rec *models.AssessmentRecord, generatedAt time.Time) []byte {
	name := rec.ParticipantName
	if name == "" {
		name = "N/A"
	}
	lines := []string{
		reportTitle,
		strings.Repeat("-", len(reportTitle)),
		"Generated at: " + generatedAt.UTC().Format("2006-01-02 15:04:05"),
		"",
		"Name: " + name,
		"Assessment Type: " + rec.Instrument,
		"Severity: " + rec.Severity,
		"Risk Level: " + rec.RiskTier,
		fmt.Sprintf("Score: %d / %d", rec.Total, rec.MaxTotal),
	}
	if rec.Predicted != "" {
		lines = append(lines, "Model Prediction: "+rec.Predicted)
	}

	label := rec.Severity
	if rec.Predicted != "" {
		label = rec.Predicted
	}
	risk := ToRisk(instrument.ID(rec.Instrument), label)
	if len(risk.Actions) > 0 {
		lines = append(lines, "", "Recommended Actions:")
		for _, a := range risk.Actions {
			lines = append(lines, "  - "+a)
		}
	}

	lines = append(lines, "", reportDisclaimer)
	return []byte(strings.Join(lines, "\n"))
}
