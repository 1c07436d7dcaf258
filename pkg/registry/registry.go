// Package registry keeps the node factories known to the host and validates
// node configuration against each factory's JSON schema before creating nodes.
package registry

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"plugin"
	"slices"
	"strings"

	"github.com/callmelater/operion-callmelater/pkg/models"
	"github.com/callmelater/operion-callmelater/pkg/protocol"
	"github.com/xeipuuv/gojsonschema"
)

var (
	ErrNotRegistered = errors.New("node type not registered")
	ErrInvalidConfig = errors.New("invalid node configuration")
)

type Registry struct {
	logger           *slog.Logger
	actionFactories  map[string]protocol.ActionNodeFactory
	triggerFactories map[string]protocol.TriggerNodeFactory
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		logger:           log,
		actionFactories:  make(map[string]protocol.ActionNodeFactory),
		triggerFactories: make(map[string]protocol.TriggerNodeFactory),
	}
}

// LoadActionPlugins opens every .so under <pluginsPath>/actions and returns
// the factories exported as the "Action" symbol.
func (r *Registry) LoadActionPlugins(pluginsPath string) ([]protocol.ActionNodeFactory, error) {
	return loadPlugin[protocol.ActionNodeFactory](r.logger, pluginsPath, "Action")
}

// LoadTriggerPlugins does the same for <pluginsPath>/triggers and the "Trigger" symbol.
func (r *Registry) LoadTriggerPlugins(pluginsPath string) ([]protocol.TriggerNodeFactory, error) {
	return loadPlugin[protocol.TriggerNodeFactory](r.logger, pluginsPath, "Trigger")
}

func (r *Registry) RegisterAction(factory protocol.ActionNodeFactory) {
	r.actionFactories[factory.ID()] = factory
}

func (r *Registry) RegisterTrigger(factory protocol.TriggerNodeFactory) {
	r.triggerFactories[factory.ID()] = factory
}

func (r *Registry) CreateAction(nodeType string, config map[string]any, client protocol.HTTPClient) (protocol.ActionNode, error) {
	factory, ok := r.actionFactories[nodeType]
	if !ok {
		return nil, fmt.Errorf("%w: action %q", ErrNotRegistered, nodeType)
	}

	if err := validateConfig(factory.Schema(), config); err != nil {
		return nil, err
	}

	return factory.Create(config, client)
}

func (r *Registry) CreateTrigger(nodeType string, config map[string]any) (protocol.WebhookTrigger, error) {
	factory, ok := r.triggerFactories[nodeType]
	if !ok {
		return nil, fmt.Errorf("%w: trigger %q", ErrNotRegistered, nodeType)
	}

	if err := validateConfig(factory.Schema(), config); err != nil {
		return nil, err
	}

	return factory.Create(config, r.logger)
}

// Descriptors lists all registered factories ordered by ID.
func (r *Registry) Descriptors() []models.NodeDescriptor {
	descriptors := make([]models.NodeDescriptor, 0, len(r.actionFactories)+len(r.triggerFactories))

	for _, f := range r.actionFactories {
		descriptors = append(descriptors, describe(f))
	}

	for _, f := range r.triggerFactories {
		descriptors = append(descriptors, describe(f))
	}

	slices.SortFunc(descriptors, func(a, b models.NodeDescriptor) int {
		return strings.Compare(a.ID, b.ID)
	})

	return descriptors
}

func describe(f protocol.NodeFactory) models.NodeDescriptor {
	return models.NodeDescriptor{
		ID:          f.ID(),
		Name:        f.Name(),
		Description: f.Description(),
		Category:    f.Category(),
		Schema:      f.Schema(),
	}
}

func validateConfig(schema map[string]any, config map[string]any) error {
	if config == nil {
		config = map[string]any{}
	}

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewGoLoader(config))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if !result.Valid() {
		var errs []string
		for _, desc := range result.Errors() {
			errs = append(errs, desc.String())
		}

		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(errs, "; "))
	}

	return nil
}

func loadPlugin[T any](logger *slog.Logger, pluginsPath string, symbolName string) ([]T, error) {
	rootPath := pluginsPath + "/" + strings.ToLower(symbolName) + "s"

	pluginPathList, err := fs.Glob(os.DirFS(rootPath), "*.so")
	if err != nil {
		return nil, err
	}

	l := logger.With(slog.String("path", pluginsPath), slog.String("type", symbolName))
	l.Info("Loading plugins")

	pluginList := make([]T, 0, len(pluginPathList))

	for _, p := range pluginPathList {
		plg, err := plugin.Open(rootPath + "/" + p)
		if err != nil {
			return nil, fmt.Errorf("failed to open plugin %s: %w", p, err)
		}

		v, err := plg.Lookup(symbolName)
		if err != nil {
			return nil, fmt.Errorf("plugin %s: %w", p, err)
		}

		castV, ok := v.(T)
		if !ok {
			return nil, fmt.Errorf("plugin %s: symbol %s has type %T", p, symbolName, v)
		}

		pluginList = append(pluginList, castV)

		l.Info("Loaded plugin", slog.String("plugin", p))
	}

	return pluginList, nil
}
