package utils

import (
	"sort"
	"strconv"
	"strings"
)

// DetermineLocale picks the locale for a request. An explicit query value
// wins, then the best Accept-Language match, then the default; when even the
// default is unsupported the first supported locale is used.
func DetermineLocale(queryLang, acceptLang string, supported []string, def string) string {
	match := newLocaleMatcher(supported)

	if v, ok := match(queryLang); ok {
		return v
	}
	if v, ok := bestAcceptMatch(acceptLang, match); ok {
		return v
	}
	if v, ok := match(def); ok {
		return v
	}
	if len(supported) > 0 {
		return strings.ToLower(supported[0])
	}
	return "en"
}

// newLocaleMatcher resolves a language tag against the supported set,
// falling back to the base language ("bn-BD" matches "bn").
func newLocaleMatcher(supported []string) func(string) (string, bool) {
	sup := make(map[string]struct{}, len(supported))
	for _, s := range supported {
		sup[strings.ToLower(s)] = struct{}{}
	}
	return func(tag string) (string, bool) {
		if tag == "" {
			return "", false
		}
		l := strings.ToLower(tag)
		if _, ok := sup[l]; ok {
			return l, true
		}
		if i := strings.Index(l, "-"); i > 0 {
			if _, ok := sup[l[:i]]; ok {
				return l[:i], true
			}
		}
		return "", false
	}
}

// bestAcceptMatch parses an Accept-Language header like
// "bn-BD,bn;q=0.9,en;q=0.8" and returns the supported language with the
// highest q-value.
func bestAcceptMatch(header string, match func(string) (string, bool)) (string, bool) {
	type candidate struct {
		lang string
		q    float64
	}
	var cands []candidate
	for _, part := range strings.Split(header, ",") {
		p := strings.TrimSpace(part)
		if p == "" {
			continue
		}
		lang := p
		q := 1.0
		if semi := strings.Index(p, ";"); semi >= 0 {
			lang = strings.TrimSpace(p[:semi])
			for _, param := range strings.Split(p[semi+1:], ";") {
				kv := strings.SplitN(param, "=", 2)
				if len(kv) == 2 && strings.TrimSpace(kv[0]) == "q" {
					if v, err := strconv.ParseFloat(strings.TrimSpace(kv[1]), 64); err == nil {
						q = v
					}
				}
			}
		}
		if l, ok := match(lang); ok && q > 0 {
			cands = append(cands, candidate{lang: l, q: q})
		}
	}
	if len(cands) == 0 {
		return "", false
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].q > cands[j].q })
	return cands[0].lang, true
}
