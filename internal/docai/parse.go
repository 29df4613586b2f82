// File path: internal/docai/parse.go
package docai

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	categoryRe   = regexp.MustCompile(`(?im)^\s*category:\s*(.+)$`)
	confidenceRe = regexp.MustCompile(`(?im)^\s*confidence:\s*([0-9]*\.?[0-9]+)`)
	reasoningRe  = regexp.MustCompile(`(?im)^\s*reasoning:\s*(.+)$`)
)

// ParseReply extracts the Category/Confidence/Reasoning lines from a model
// reply. Missing or malformed fields fall back to defaultCategory, 0.5,
// and an empty reasoning; models drift from the requested format often
// enough that a hard parse error would dominate the review queue.
func ParseReply(reply, defaultCategory string) *Classification {
	result := &Classification{
		Category:   defaultCategory,
		Confidence: 0.5,
	}
	if m := categoryRe.FindStringSubmatch(reply); m != nil {
		if cat := strings.TrimSpace(m[1]); cat != "" {
			result.Category = cat
		}
	}
	if m := confidenceRe.FindStringSubmatch(reply); m != nil {
		if conf, err := strconv.ParseFloat(m[1], 64); err == nil {
			if conf < 0 {
				conf = 0
			}
			if conf > 1 {
				conf = 1
			}
			result.Confidence = conf
		}
	}
	if m := reasoningRe.FindStringSubmatch(reply); m != nil {
		result.Reasoning = strings.TrimSpace(m[1])
	}
	return result
}
