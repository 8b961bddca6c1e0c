package utils

// Minimal server-side i18n for fixed keys.
// UI strings should live in the frontend; server provides only essentials.

var translations = map[string]map[string]string{
	"en": {
		"health.ok":        "ok",
		"report.title":     "Mental Health Screening Report",
		"coach.title":      "Supportive guidance",
		"disclaimer.short": "Screening only, not a diagnosis.",
	},
	"bn": {
		"health.ok":        "ঠিক আছে",
		"report.title":     "মানসিক স্বাস্থ্য স্ক্রিনিং রিপোর্ট",
		"coach.title":      "সহায়ক নির্দেশনা",
		"disclaimer.short": "এটি শুধুমাত্র স্ক্রিনিং, কোনো রোগ নির্ণয় নয়।",
	},
}

// T returns the translated string for key in locale; falls back to English.
func T(locale, key string) string {
	if m, ok := translations[locale]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	if m, ok := translations["en"]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	return key
}
