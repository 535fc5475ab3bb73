package gemini

import "strings"

// The upstream response shape varies across API versions. Normalization is an
// ordered list of extractor strategies; the first one returning non-empty text
// wins. An empty result means the caller decides on a further fallback.
type extractor func(raw map[string]any) string

var extractors = []extractor{
	extractGeneratedText,
	extractCandidateParts,
	extractCandidateOutputText,
	extractCandidateFallbacks,
	extractTopLevelText,
	extractResultContentText,
}

// ExtractText pulls best-effort generated text out of a raw upstream response.
func ExtractText(raw map[string]any) string {
	for _, ex := range extractors {
		if text := ex(raw); text != "" {
			return text
		}
	}
	return ""
}

func extractGeneratedText(raw map[string]any) string {
	return trimmedString(raw["generatedText"])
}

func extractCandidateParts(raw map[string]any) string {
	first := firstCandidate(raw)
	if first == nil {
		return ""
	}
	content, _ := first["content"].(map[string]any)
	parts, _ := content["parts"].([]any)
	var joined strings.Builder
	for _, p := range parts {
		if part, ok := p.(map[string]any); ok {
			if text, ok := part["text"].(string); ok {
				joined.WriteString(text)
			}
		}
	}
	return strings.TrimSpace(joined.String())
}

func extractCandidateOutputText(raw map[string]any) string {
	first := firstCandidate(raw)
	if first == nil {
		return ""
	}
	return trimmedString(first["output_text"])
}

func extractCandidateFallbacks(raw map[string]any) string {
	first := firstCandidate(raw)
	if first == nil {
		return ""
	}
	if text := trimmedString(first["outputText"]); text != "" {
		return text
	}
	return trimmedString(first["text"])
}

func extractTopLevelText(raw map[string]any) string {
	return trimmedString(raw["text"])
}

func extractResultContentText(raw map[string]any) string {
	result, _ := raw["result"].(map[string]any)
	content, _ := result["content"].(map[string]any)
	return trimmedString(content["text"])
}

func firstCandidate(raw map[string]any) map[string]any {
	candidates, _ := raw["candidates"].([]any)
	if len(candidates) == 0 {
		return nil
	}
	first, _ := candidates[0].(map[string]any)
	return first
}

func trimmedString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}
