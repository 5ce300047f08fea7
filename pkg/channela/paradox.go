package channela

import "regexp"

// Paradox patterns, matched against NORMALIZED text (lowercase, punctuation
// stripped, whitespace collapsed). Go's regexp package provides the pinned
// RE2 semantics: linear time, no backtracking.
//
// The set detects Gödelian self-reference: iff-inversions, the liar paradox,
// conditional self-reference, negation loops, self-contradictory definitions,
// and Russell-set variants. Contractions appear in their normalized form
// ("don't" -> "dont").
var paradoxPatterns = []*regexp.Regexp{
	// "this proposal passes iff it fails" and subject/verb variants
	regexp.MustCompile(`(?i)(this proposal|the motion|this rule|this amendment).*(passes|fails|is true|is false|succeeds|is rejected)\s+(iff|if and only if)\s+.*(fails|passes|is false|is true|is rejected|succeeds)`),

	// liar paradox: "this statement is false"
	regexp.MustCompile(`(?i)(this rule|this statement|the following statement|this proposal)\s+(is|are)\s+false`),

	// conditional self-reference: "if this is true then it is false"
	regexp.MustCompile(`(?i)if\s+(this|it).*(true|passes|succeeds).*then.*(false|fails|is rejected)`),

	// negation loops: "this passes only if it doesnt pass"
	regexp.MustCompile(`(?i)(this|it).*(passes|succeeds|is approved)\s+(only if|unless)\s+.*(doesnt|does not|not)\s*(pass|succeed|approved)`),

	// Russell's paradox variants
	regexp.MustCompile(`(?i)(set|collection|group)\s+of\s+(all\s+)?(proposals?|rules?|statements?)\s+that\s+(dont|do not|doesnt)\s+(include|contain|reference)\s+(themselves|itself)`),
}

// selfContradictoryDef matches "define X as not Y". RE2 has no
// backreferences, so the identifier equality check (X == Y) happens in code.
var selfContradictoryDef = regexp.MustCompile(`(?i)(?:define|let|set)\s+(\w+)\s+(?:as|to be|equal to)\s+(?:not|the opposite of|the negation of)\s+(\w+)`)

// DetectParadox reports whether normalized text contains a self-referential
// paradox.
func DetectParadox(normalizedText string) bool {
	for _, p := range paradoxPatterns {
		if p.MatchString(normalizedText) {
			return true
		}
	}
	for _, m := range selfContradictoryDef.FindAllStringSubmatch(normalizedText, -1) {
		if m[1] == m[2] {
			return true
		}
	}
	return false
}

// ParadoxMatches returns the pattern index and matched fragment for every
// pattern that fired, for audit display.
func ParadoxMatches(normalizedText string) []ParadoxMatch {
	var matches []ParadoxMatch
	for i, p := range paradoxPatterns {
		if loc := p.FindString(normalizedText); loc != "" {
			matches = append(matches, ParadoxMatch{Pattern: i, Fragment: loc})
		}
	}
	for _, m := range selfContradictoryDef.FindAllStringSubmatch(normalizedText, -1) {
		if m[1] == m[2] {
			matches = append(matches, ParadoxMatch{Pattern: len(paradoxPatterns), Fragment: m[0]})
			break
		}
	}
	return matches
}

// ParadoxMatch identifies which pattern fired and on what fragment.
type ParadoxMatch struct {
	Pattern  int    `json:"pattern"`
	Fragment string `json:"fragment"`
}
