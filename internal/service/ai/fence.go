package ai

import "strings"

// Segment is one slice of rendered model text: prose or fenced code.
type Segment struct {
	Code     bool   `json:"code"`
	Language string `json:"language,omitempty"`
	Text     string `json:"text"`
}

const fenceMarker = "```"

// SplitFences splits text into alternating prose and code segments using a
// two-state scan over triple-backtick markers. The opening marker may carry a
// language tag on its line. An unterminated trailing fence is treated as
// prose rather than code.
func SplitFences(text string) []Segment {
	var segments []Segment
	rest := text
	for {
		open := strings.Index(rest, fenceMarker)
		if open < 0 {
			if rest != "" {
				segments = append(segments, Segment{Text: rest})
			}
			return segments
		}
		body := rest[open+len(fenceMarker):]
		closing := strings.Index(body, fenceMarker)
		if closing < 0 {
			// No closing marker: the whole remainder stays prose.
			segments = append(segments, Segment{Text: rest})
			return segments
		}
		if prose := rest[:open]; prose != "" {
			segments = append(segments, Segment{Text: prose})
		}
		language, code := splitFenceBody(body[:closing])
		segments = append(segments, Segment{Code: true, Language: language, Text: code})
		rest = body[closing+len(fenceMarker):]
	}
}

// splitFenceBody separates an optional language tag on the opening fence line
// from the code that follows it.
func splitFenceBody(body string) (language, code string) {
	newline := strings.IndexByte(body, '\n')
	if newline < 0 {
		return "", strings.TrimSpace(body)
	}
	tag := strings.TrimSpace(body[:newline])
	if tag == "" || strings.ContainsAny(tag, " \t") {
		return "", strings.TrimSpace(body)
	}
	return tag, strings.TrimSpace(body[newline+1:])
}
