package prompt

import (
	"encoding/json"
	"strings"
)

// Reply is the structured answer extracted from a raw model reply.
type Reply struct {
	Choice             string `json:"choice"`
	Reason             string `json:"reason"`
	AdditionalThoughts string `json:"additional_thoughts,omitempty"`
}

// ParseReply extracts a choice JSON object from a raw text reply.
// It first attempts a strict parse of the trimmed text; if that fails
// it retries on the substring between the first '{' and the last '}',
// which handles models that wrap their JSON in prose or code fences.
// It never fails hard: a reply with no extractable object reports
// ok=false so the caller can record a refusal instead of crashing the
// run.
func ParseReply(text string) (*Reply, bool) {
	trimmed := strings.TrimSpace(text)

	if reply, ok := tryUnmarshal(trimmed); ok {
		return reply, true
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end < start {
		return nil, false
	}
	return tryUnmarshal(trimmed[start : end+1])
}

func tryUnmarshal(s string) (*Reply, bool) {
	var reply Reply
	if err := json.Unmarshal([]byte(s), &reply); err != nil {
		return nil, false
	}
	return &reply, true
}
