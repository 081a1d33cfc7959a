package llm

import "strings"

// CleanJSONBlock removes a markdown code fence from a model response. Models
// sometimes wrap the object in ```json ... ``` even when instructed not to.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")

	// Every response here is a JSON object, so anything on the fence line
	// before the first brace is a language tag.
	if idx := strings.IndexAny(text, "{\n"); idx >= 0 {
		text = text[idx:]
	}
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}
