package services

import "strings"

// coachTopic pairs question keywords with a base tip. Rules are matched in
// order against the lowercased question; the first hit wins.
type coachTopic struct {
	keywords []string
	tip      string
}

var coachTopics = []coachTopic{
	{
		keywords: []string{"sleep", "insomnia"},
		tip: "Try to keep a fixed sleep and wake-up time, avoid screens 1 hour " +
			"before bed and reduce caffeine in the evening.",
	},
	{
		keywords: []string{"study", "exam"},
		tip: "Break tasks into small parts, use short focused study blocks with " +
			"regular breaks and remind yourself that progress is more important " +
			"than perfection.",
	},
	{
		keywords: []string{"relationship", "friend"},
		tip: "Healthy communication, clear boundaries and listening with respect " +
			"help relationships feel safer and more supportive.",
	},
}

const coachDefaultTip = "Focus on small, realistic steps: sleep, food, movement and one " +
	"connection with a supportive person each day."

// CoachReply builds a supportive rule-based reply from a severity label and
// an optional free-text question. The severity only selects the closing
// advice; it never changes the topic tip.
func CoachReply(severityLabel, question string) string {
	q := strings.ToLower(question)
	base := coachDefaultTip
	for _, topic := range coachTopics {
		for _, kw := range topic.keywords {
			if strings.Contains(q, kw) {
				base = topic.tip
				break
			}
		}
		if base != coachDefaultTip {
			break
		}
	}

	var tail string
	switch {
	case strings.Contains(severityLabel, "Severe"):
		tail = " Because your current severity seems high, it would be wise to " +
			"speak with a mental health professional soon."
	case strings.Contains(severityLabel, "Moderate"):
		tail = " Your symptoms are noticeable, so if they stay the same for a few " +
			"weeks, consider taking professional help."
	default:
		tail = " Right now your scores are on the lower side, which is good. " +
			"Keep using simple healthy habits to protect this."
	}
	return base + tail
}

// faq holds the keyword lookup behind the assistant endpoint.
var faq = []struct {
	keyword string
	answer  string
}{
	{"breathing", "Try 4-7-8 breathing: inhale 4s, hold 7s, exhale 8s, 4 rounds."},
	{"sleep", "Aim 7-9h sleep; consistent schedule; reduce screen time."},
	{"study", "Use Pomodoro 25m focus + 5m break for better productivity."},
	{"stress", "Short walks, music, and deep breathing can help reduce stress."},
	{"support", "Consider reaching out to your university counseling service."},
}

const assistantFallback = "I can assist with breathing, sleep, study, stress, and support tips."

// AssistantReply answers a free-text question by keyword lookup.
func AssistantReply(query string) string {
	q := strings.ToLower(query)
	for _, entry := range faq {
		if strings.Contains(q, entry.keyword) {
			return entry.answer
		}
	}
	return assistantFallback
}
