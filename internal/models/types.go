package models

import "time"

// AssessmentRecord is one completed screening. PII should be minimized;
// name and age group are optional and self-reported.
type AssessmentRecord struct {
	ID              string    `json:"id"`
	Instrument      string    `json:"instrument"`
	Responses       []int     `json:"responses"` // raw values as submitted
	Total           int       `json:"total"`
	MaxTotal        int       `json:"max_total"`
	Severity        string    `json:"severity"`            // e.g. "Mild Anxiety"
	Predicted       string    `json:"predicted,omitempty"` // classifier label, when a model is configured
	RiskTier        string    `json:"risk_tier"`
	ParticipantName string    `json:"participant_name,omitempty"`
	AgeGroup        string    `json:"age_group,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// JournalEntry is a free-text mood note kept alongside assessments.
type JournalEntry struct {
	ID        string    `json:"id"`
	Mood      string    `json:"mood"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

// Profile stores the last-used respondent profile.
type Profile struct {
	Name      string    `json:"name"`
	AgeGroup  string    `json:"age_group"`
	UpdatedAt time.Time `json:"updated_at"`
}

// User is an administrator account.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	PassHash  []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// AuditEntry records an administrative action.
type AuditEntry struct {
	Time   time.Time `json:"time"`
	Actor  string    `json:"actor"`
	Action string    `json:"action"`
	Target string    `json:"target,omitempty"`
	Note   string    `json:"note,omitempty"`
}
