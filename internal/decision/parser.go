package decision

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"signal-trader/internal/types"
)

var (
	// leading markdown and list numbering: "## ", "**", "> ", "- ", "4. ", "4) "
	markdownPrefix = regexp.MustCompile(`^(?:[#*>\-_\s]+|\d+[.)]\s*)+`)
	labelPrefix    = regexp.MustCompile(`(?i)^(?:final\s+)?(?:recommendation|action|decision)[\s*]*[:\-]`)
	actionWord     = regexp.MustCompile(`(?i)^(buy|sell|hold)\b`)
	confidenceRe   = regexp.MustCompile(`(?i)^confidence(?:\s+level)?[^0-9]{0,40}?(\d+(?:\.\d+)?)\s*(?:(/)\s*(\d+(?:\.\d+)?)|(%))?`)
	reasoningLabel = regexp.MustCompile(`(?i)^reasoning[\s*]*[:\-]\s*`)
	sectionLabel   = regexp.MustCompile(`(?i)^(?:market overview|key factors|risk assessment|recommendation|confidence(?: level)?)[\s*]*[:\-]`)
)

func clean(line string) string {
	return strings.TrimSpace(markdownPrefix.ReplaceAllString(strings.TrimSpace(line), ""))
}

func matchAction(s string) (types.Action, bool) {
	m := actionWord.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return types.ParseAction(m[1]), true
}

// ParseDecision extracts the action, reasoning and confidence from free model text.
// It never fails; text without a recognisable action yields HOLD.
func ParseDecision(text string) types.Decision {
	d := types.Decision{Action: types.ActionHold, Raw: text}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		d.Reasoning = "empty model response"
		return d
	}

	if a, ok := findAction(trimmed); ok {
		d.Action = a
	} else if a, ok := jsonAction(trimmed); ok {
		d.Action = a
	}

	d.Confidence = parseConfidence(trimmed)
	if d.Confidence == nil {
		d.Confidence = jsonConfidence(trimmed)
	}
	d.Reasoning = extractReasoning(trimmed)
	return d
}

func findAction(text string) (types.Action, bool) {
	// the response opens with the verdict
	if a, ok := matchAction(clean(text)); ok {
		return a, true
	}

	lines := strings.Split(text, "\n")

	// labelled lines first so an echoed option list cannot win
	for i, raw := range lines {
		line := clean(raw)
		loc := labelPrefix.FindStringIndex(line)
		if loc == nil {
			continue
		}
		rest := clean(line[loc[1]:])
		if a, ok := matchAction(rest); ok {
			return a, true
		}
		if rest == "" {
			for _, next := range lines[i+1:] {
				if n := clean(next); n != "" {
					if a, ok := matchAction(n); ok {
						return a, true
					}
					break
				}
			}
		}
	}

	for _, raw := range lines {
		if a, ok := matchAction(clean(raw)); ok {
			return a, true
		}
	}
	return "", false
}

// jsonObject returns the outermost {...} span when it is valid JSON.
func jsonObject(text string) (gjson.Result, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return gjson.Result{}, false
	}
	sub := text[start : end+1]
	if !gjson.Valid(sub) {
		return gjson.Result{}, false
	}
	return gjson.Parse(sub), true
}

func jsonAction(text string) (types.Action, bool) {
	obj, ok := jsonObject(text)
	if !ok {
		return "", false
	}
	for _, key := range []string{"action", "recommendation", "decision"} {
		if a, ok := matchAction(strings.TrimSpace(obj.Get(key).String())); ok {
			return a, true
		}
	}
	return "", false
}

func jsonConfidence(text string) *float64 {
	obj, ok := jsonObject(text)
	if !ok {
		return nil
	}
	c := obj.Get("confidence")
	if c.Type != gjson.Number {
		return nil
	}
	v := c.Float()
	// 0..1 fractions are scaled to percent
	if v > 0 && v <= 1 {
		v *= 100
	}
	return bounded(v)
}

// parseConfidence reads "7/10" as 70 and "85%" or "85" as 85. Values outside 0..100 are dropped.
func parseConfidence(text string) *float64 {
	var m []string
	for _, raw := range strings.Split(text, "\n") {
		if m = confidenceRe.FindStringSubmatch(clean(raw)); m != nil {
			break
		}
	}
	if m == nil {
		return nil
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	if m[2] == "/" {
		denom, err := strconv.ParseFloat(m[3], 64)
		if err != nil || denom <= 0 {
			return nil
		}
		v = v / denom * 100
	}
	return bounded(v)
}

func bounded(v float64) *float64 {
	if v < 0 || v > 100 {
		return nil
	}
	return &v
}

// extractReasoning returns the Reasoning section when present, otherwise the whole text.
func extractReasoning(text string) string {
	lines := strings.Split(text, "\n")
	var out []string
	in := false
	for _, raw := range lines {
		line := clean(raw)
		if !in {
			if loc := reasoningLabel.FindStringIndex(line); loc != nil {
				in = true
				if rest := strings.TrimSpace(strings.Trim(line[loc[1]:], "*")); rest != "" {
					out = append(out, rest)
				}
			}
			continue
		}
		if sectionLabel.MatchString(line) {
			break
		}
		if line != "" {
			out = append(out, line)
		}
	}
	if len(out) == 0 {
		return text
	}
	return strings.Join(out, " ")
}
