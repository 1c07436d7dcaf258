package registry

import (
	"github.com/callmelater/operion-callmelater/pkg/nodes/callmelater"
	"github.com/callmelater/operion-callmelater/pkg/nodes/trigger"
)

// RegisterDefaultNodes registers the built-in CallMeLater node factories.
func (r *Registry) RegisterDefaultNodes() {
	r.RegisterAction(callmelater.NewNodeFactory())
	r.RegisterTrigger(trigger.NewCallMeLaterTriggerNodeFactory())
}
