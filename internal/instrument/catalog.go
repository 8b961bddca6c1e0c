package instrument

import "strconv"

func init() {
	register(gad7())
	register(phq9())
	register(pss10())
}

// GAD-7: 7 items scored 0-3, published cut-offs 5/10/15.
func gad7() *Definition {
	stemsEN := []string{
		"How often did you feel nervous or on edge due to academic pressure?",
		"How often were you unable to stop worrying about academic issues?",
		"How often did academic pressure stop you from relaxing?",
		"How often were you easily annoyed or irritated due to academics?",
		"How often did you worry too much about academic matters?",
		"How often did restlessness make it hard to sit still due to stress?",
		"How often did you feel afraid that something bad might happen academically?",
	}
	stemsBN := []string{
		"আপনি কি নার্ভাস, উৎকণ্ঠিত বা অস্থির বোধ করছেন?",
		"আপনি কি দুশ্চিন্তা থামাতে বা নিয়ন্ত্রণ করতে পারেন না?",
		"আপনার কি আরাম করতে কষ্ট হয়?",
		"আপনি কি খুব সহজে বিরক্ত বা রাগান্বিত হয়ে যান?",
		"আপনি কি বিভিন্ন বিষয় নিয়ে অতিরিক্ত দুশ্চিন্তা করছেন?",
		"আপনি কি এতটাই অস্থির যে এক জায়গায় বসে থাকতে পারেন না?",
		"আপনার কি মনে হয়, যেন কিছু খারাপ ঘটতে যাচ্ছে?",
	}
	return &Definition{
		ID:     GAD7,
		Target: "Anxiety",
		NameI18n: map[string]string{
			"en": "GAD-7 (Generalized Anxiety)",
			"bn": "জিএডি-৭ (উদ্বেগ)",
		},
		MinValue: 0,
		MaxValue: 3,
		Items:    buildItems("GAD", stemsEN, stemsBN, nil),
		Bands: []Band{
			{Min: 0, Max: 4, Severity: "Minimal"},
			{Min: 5, Max: 9, Severity: "Mild"},
			{Min: 10, Max: 14, Severity: "Moderate"},
			{Min: 15, Max: 21, Severity: "Severe"},
		},
	}
}

// PHQ-9: 9 items scored 0-3, cut-offs 5/10/15/20.
func phq9() *Definition {
	stemsEN := []string{
		"Little interest or pleasure in activities?",
		"Feeling down, depressed, or hopeless?",
		"Trouble sleeping (too much or too little)?",
		"Feeling tired or low energy?",
		"Poor appetite or overeating?",
		"Feeling bad about yourself or like a failure?",
		"Trouble concentrating (study, books, TV)?",
		"Moving or speaking slower or faster than usual?",
		"Thoughts of harming yourself or being better off dead?",
	}
	stemsBN := []string{
		"কার্যকলাপ বা কাজকর্মে আগ্রহ বা আনন্দ কি কমে গেছে?",
		"আপনি কি মনখারাপ, বিষণ্ন বা আশাহীন অনুভব করেছেন?",
		"ঘুম আসতে সমস্যা, মাঝরাতে ঘুম ভাঙা বা বেশি ঘুমানো—এমন সমস্যা কি হয়েছে?",
		"আপনি কি খুব ক্লান্ত বোধ করছেন বা শক্তি কম মনে হচ্ছে?",
		"আপনার কি খাবারের আগ্রহ কমে গেছে বা বেশি খেয়ে ফেলছেন?",
		"আপনি কি মনে করেছেন আপনি খুব খারাপ, ব্যর্থ বা নিজেকে অপছন্দ করছেন?",
		"কোনো কাজে মনোযোগ ধরে রাখতে কি কষ্ট হচ্ছে?",
		"আপনি কি খুব ধীরে কথা বলেন/হাঁটেন বা অস্থিরভাবে নড়াচড়া করেন?",
		"আপনার কি কখনও মনে হয়েছে নিজেকে আঘাত করা বা মৃত্যুর কথা?",
	}
	return &Definition{
		ID:     PHQ9,
		Target: "Depression",
		NameI18n: map[string]string{
			"en": "PHQ-9 (Depression)",
			"bn": "পিএইচকিউ-৯ (বিষণ্নতা)",
		},
		MinValue: 0,
		MaxValue: 3,
		Items:    buildItems("PHQ", stemsEN, stemsBN, nil),
		Bands: []Band{
			{Min: 0, Max: 4, Severity: "Minimal"},
			{Min: 5, Max: 9, Severity: "Mild"},
			{Min: 10, Max: 14, Severity: "Moderate"},
			{Min: 15, Max: 19, Severity: "Moderately Severe"},
			{Min: 20, Max: 27, Severity: "Severe"},
		},
	}
}

// PSS-10: 10 items scored 0-4. Items 4, 5, 7 and 8 are positively phrased
// and reverse-scored; the flag lives here, not in the question text. PSS
// keeps its own tier vocabulary (Low/Moderate/High).
func pss10() *Definition {
	stemsEN := []string{
		"How often did you feel upset due to academic issues?",
		"How often did you feel unable to control important academic matters?",
		"How often did academic pressure make you feel nervous or stressed?",
		"How often did you feel confident in handling university problems?",
		"How often did you feel things were going well academically?",
		"How often did you feel unable to cope with assignments and exams?",
		"How often were you able to control irritation from academic issues?",
		"How often did you feel your academic performance was satisfactory?",
		"How often did you feel anger due to poor academic outcomes?",
		"How often did academic difficulties pile up beyond control?",
	}
	stemsBN := []string{
		"অপ্রত্যাশিত ঘটনার কারণে কি আপনি খুব বিরক্ত বা কষ্ট পেয়েছেন?",
		"জীবনের গুরুত্বপূর্ণ বিষয়গুলো নিয়ন্ত্রণ করতে না পারার অনুভূতি কি হয়েছে?",
		"আপনি কি নার্ভাস ও চাপগ্রস্ত অনুভব করেছেন?",
		"আপনি কি সমস্যাগুলো সামলাতে আত্মবিশ্বাসী বোধ করেছেন?",
		"সব কিছু কি আপনার ইচ্ছে মতো এগিয়েছে?",
		"করার মতো সব কাজ সামলাতে না পারার অনুভূতি কি হয়েছে?",
		"আপনি কি আপনার জীবনের বিরক্তিকর বিষয়গুলো নিয়ন্ত্রণ করতে পেরেছেন?",
		"আপনি কি অনুভব করেছেন যে আপনি সব কিছুর উপরে আছেন?",
		"বিষয়গুলো নিয়ন্ত্রণের বাইরে চলে যাওয়ায় কি আপনি রাগান্বিত হয়েছেন?",
		"আপনি কি মনে করেছেন যে আপনার সমস্যাগুলো খুব দ্রুত জমে উঠছে?",
	}
	reversed := map[int]bool{4: true, 5: true, 7: true, 8: true}
	return &Definition{
		ID:     PSS10,
		Target: "Stress",
		NameI18n: map[string]string{
			"en": "PSS-10 (Perceived Stress)",
			"bn": "পিএসএস-১০ (মানসিক চাপ)",
		},
		MinValue: 0,
		MaxValue: 4,
		Items:    buildItems("PSS", stemsEN, stemsBN, reversed),
		Bands: []Band{
			{Min: 0, Max: 13, Severity: "Low"},
			{Min: 14, Max: 26, Severity: "Moderate"},
			{Min: 27, Max: 40, Severity: "High"},
		},
	}
}

// buildItems numbers stems 1..n as CODE1..CODEn; reversed is keyed by the
// 1-based item number. stemsBN must be empty or the same length as stemsEN.
func buildItems(code string, stemsEN, stemsBN []string, reversed map[int]bool) []Item {
	items := make([]Item, 0, len(stemsEN))
	for i, stem := range stemsEN {
		n := i + 1
		stems := map[string]string{"en": stem}
		if i < len(stemsBN) {
			stems["bn"] = stemsBN[i]
		}
		items = append(items, Item{
			Code:          code + strconv.Itoa(n),
			StemI18n:      stems,
			ReverseScored: reversed[n],
		})
	}
	return items
}
