package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExampleItem is a tagged variant for lesson examples and analogies. Models
// return either a plain string or an object carrying a description; both are
// decoded explicitly here, and anything else is rejected at validation time
// instead of being guessed at render time.
type ExampleItem struct {
	// Text is the example body for plain-string items.
	Text string
	// Description is set for structured items; Text mirrors it so consumers
	// can read one field.
	Description string
	structured  bool
}

// PlainExample returns an ExampleItem holding a bare string.
func PlainExample(text string) ExampleItem {
	return ExampleItem{Text: text}
}

// StructuredExample returns an ExampleItem holding a description object.
func StructuredExample(description string) ExampleItem {
	return ExampleItem{Text: description, Description: description, structured: true}
}

// IsStructured reports whether the item was decoded from an object form.
func (e ExampleItem) IsStructured() bool {
	return e.structured
}

// String returns the displayable body of the item.
func (e ExampleItem) String() string {
	return e.Text
}

// UnmarshalJSON decodes either a JSON string or an object with a string
// "description" field. Any other shape is an error.
func (e *ExampleItem) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))

	if strings.HasPrefix(trimmed, "\"") {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*e = PlainExample(s)
		return nil
	}

	if strings.HasPrefix(trimmed, "{") {
		var obj struct {
			Description *string `json:"description"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		if obj.Description == nil {
			return fmt.Errorf("example object is missing a description field")
		}
		*e = StructuredExample(*obj.Description)
		return nil
	}

	return fmt.Errorf("example item must be a string or an object, got %s", trimmed)
}

// MarshalJSON writes the item back in the form it was decoded from.
func (e ExampleItem) MarshalJSON() ([]byte, error) {
	if e.structured {
		return json.Marshal(struct {
			Description string `json:"description"`
		}{Description: e.Description})
	}
	return json.Marshal(e.Text)
}
