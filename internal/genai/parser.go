package genai

import "strings"

// DraftVariation is one parsed subject+body pair
type DraftVariation struct {
	Subject string
	Body    string
}

// Phrases that mark the start of model commentary after the email
// content; everything from the first match onward is discarded.
var stopPhrases = []string{
	"these two variations",
	"variation a uses",
	"variation b uses",
	"variation a creates",
	"variation b creates",
	"both variations",
	"the first variation",
	"the second variation",
	"this approach",
	"psychological triggers",
	"different approaches",
	"analysis:",
	"explanation:",
	"note:",
	"summary:",
	"comparison:",
	"strategy:",
}

// ParseVariations extracts up to two subject+body variations from the
// model output. Sections are delimited by "VARIATION" markers with
// SUBJECT: and BODY: lines inside. Sections missing either part are
// dropped; callers fall back to static variations when fewer than two
// survive.
func ParseVariations(text string) []DraftVariation {
	var variations []DraftVariation

	parts := strings.Split(text, "VARIATION")
	for i, part := range parts {
		if i == 0 {
			continue // preamble before the first marker
		}
		if len(variations) == 2 {
			break
		}

		var subject string
		var bodyLines []string
		bodyStarted := false

		for _, line := range strings.Split(strings.TrimSpace(part), "\n") {
			line = strings.TrimSpace(line)

			if containsStopPhrase(line) {
				break
			}

			upper := strings.ToUpper(line)
			switch {
			case strings.HasPrefix(upper, "SUBJECT:"):
				subject = strings.TrimSpace(line[len("SUBJECT:"):])
			case strings.HasPrefix(upper, "BODY:"):
				bodyStarted = true
				if rest := strings.TrimSpace(line[len("BODY:"):]); rest != "" {
					bodyLines = append(bodyLines, rest)
				}
			case bodyStarted && line != "":
				bodyLines = append(bodyLines, line)
			}
		}

		body := strings.TrimSpace(strings.Join(bodyLines, "\n"))
		if subject != "" && body != "" {
			variations = append(variations, DraftVariation{Subject: subject, Body: body})
		}
	}

	return variations
}

func containsStopPhrase(line string) bool {
	lower := strings.ToLower(line)
	for _, phrase := range stopPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
