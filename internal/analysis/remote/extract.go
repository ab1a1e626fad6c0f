package remote

import "strings"

// analyzeResult is the structured payload of a succeeded analysis job.
type analyzeResult struct {
	Content       string         `json:"content"`
	KeyValuePairs []keyValuePair `json:"keyValuePairs"`
	Entities      []entity       `json:"entities"`
}

type keyValuePair struct {
	Key   *contentSpan `json:"key"`
	Value *contentSpan `json:"value"`
}

type contentSpan struct {
	Content string `json:"content"`
}

type entity struct {
	Category string `json:"category"`
	Content  string `json:"content"`
}

// extractText flattens a result payload into plain text: the full document
// content first, then each key/value pair as "key: value", then each entity
// as "category: content". Missing sections and malformed items are skipped.
func extractText(result *analyzeResult) string {
	if result == nil {
		return ""
	}

	var lines []string
	if content := strings.TrimSpace(result.Content); content != "" {
		lines = append(lines, content)
	}

	for _, pair := range result.KeyValuePairs {
		if pair.Key == nil || pair.Value == nil {
			continue
		}
		key := strings.TrimSpace(pair.Key.Content)
		if key == "" {
			continue
		}
		lines = append(lines, key+": "+strings.TrimSpace(pair.Value.Content))
	}

	for _, ent := range result.Entities {
		category := strings.TrimSpace(ent.Category)
		content := strings.TrimSpace(ent.Content)
		if category == "" || content == "" {
			continue
		}
		lines = append(lines, category+": "+content)
	}

	return strings.Join(lines, "\n")
}
