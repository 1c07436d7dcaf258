// Package models defines the values exchanged between the host, the CallMeLater nodes and the remote API.
package models

// CategoryType represents the category of node.
type CategoryType string

const (
	CategoryTypeAction  CategoryType = "action"  // Nodes fed by upstream items
	CategoryTypeTrigger CategoryType = "trigger" // Nodes fed by external events
)

// Node types provided by this module.
const (
	NodeTypeCallMeLater        = "callmelater"
	NodeTypeTriggerCallMeLater = "trigger:callmelater"
)

// NodeDescriptor is the registry view of a node factory.
type NodeDescriptor struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Category    CategoryType   `json:"category"`
	Schema      map[string]any `json:"schema,omitempty"`
}
