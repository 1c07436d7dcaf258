package models

// ExecutionContext identifies one node invocation inside the host.
type ExecutionContext struct {
	ID             string         `json:"id"`
	NodeID         string         `json:"node_id"`
	ContinueOnFail bool           `json:"continue_on_fail"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}
