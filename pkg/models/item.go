package models

// Item is one unit of data flowing between workflow nodes.
type Item struct {
	JSON map[string]any `json:"json"`
}

// NewItem wraps data into an item, replacing nil with an empty object.
func NewItem(data map[string]any) Item {
	if data == nil {
		data = map[string]any{}
	}

	return Item{JSON: data}
}

// ErrorItem is the output produced for a failed item when the node continues on failure.
func ErrorItem(err error) Item {
	return Item{JSON: map[string]any{"error": err.Error()}}
}
