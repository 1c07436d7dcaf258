// Package protocol defines the interfaces and contracts between the host and pluggable nodes.
package protocol

import "github.com/callmelater/operion-callmelater/pkg/models"

// NodeFactory creates node instances and provides metadata about the node type.
type NodeFactory interface {
	// ID returns the unique identifier for this node type
	ID() string

	// Name returns the human-readable name for this node type
	Name() string

	// Description returns a description of what this node does
	Description() string

	// Category tells the host whether the node is an action or a trigger
	Category() models.CategoryType

	// Schema returns the JSON schema for configuring this node
	Schema() map[string]any
}
