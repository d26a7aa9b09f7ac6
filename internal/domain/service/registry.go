package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/GriffinCanCode/FileSystemMCP/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/FileSystemMCP/internal/shared/types"
	"go.uber.org/zap"
)

var (
	// ErrInvalidToolID is returned for tool IDs without a service prefix
	ErrInvalidToolID = errors.New("invalid tool ID format")
	// ErrServiceNotFound is returned when no provider owns the tool's service
	ErrServiceNotFound = errors.New("service not found")
)

// Registry manages service discovery and execution
type Registry struct {
	services sync.Map
	metrics  *monitoring.Metrics
	logger   *zap.Logger
}

// Provider interface for service implementations
type Provider interface {
	Definition() types.Service
	Execute(ctx context.Context, toolID string, params map[string]any, appCtx *types.Context) (*types.Result, error)
}

// NewRegistry creates a new service registry
func NewRegistry() *Registry {
	return &Registry{logger: zap.NewNop()}
}

// WithMetrics adds tool call metrics to the registry
func (r *Registry) WithMetrics(metrics *monitoring.Metrics) *Registry {
	r.metrics = metrics
	return r
}

// WithLogger adds call logging to the registry
func (r *Registry) WithLogger(logger *zap.Logger) *Registry {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// Register adds a service provider
func (r *Registry) Register(provider Provider) error {
	def := provider.Definition()
	if def.ID == "" {
		return fmt.Errorf("service ID cannot be empty")
	}
	for _, tool := range def.Tools {
		if !strings.HasPrefix(tool.ID, def.ID+".") {
			return fmt.Errorf("tool %q does not belong to service %q", tool.ID, def.ID)
		}
	}

	r.services.Store(def.ID, provider)
	return nil
}

// Unregister removes a service provider
func (r *Registry) Unregister(serviceID string) {
	r.services.Delete(serviceID)
}

// Get retrieves a service by ID
func (r *Registry) Get(serviceID string) (Provider, bool) {
	val, ok := r.services.Load(serviceID)
	if !ok {
		return nil, false
	}
	return val.(Provider), true
}

// List returns all registered services ordered by ID
func (r *Registry) List(category *types.Category) []types.Service {
	services := []types.Service{}
	r.services.Range(func(_, value any) bool {
		def := value.(Provider).Definition()
		if category == nil || def.Category == *category {
			services = append(services, def)
		}
		return true
	})
	sort.Slice(services, func(i, j int) bool {
		return services[i].ID < services[j].ID
	})
	return services
}

// Tools returns every registered tool, ordered by service and then by
// declaration order within the service
func (r *Registry) Tools() []types.Tool {
	var tools []types.Tool
	for _, svc := range r.List(nil) {
		tools = append(tools, svc.Tools...)
	}
	return tools
}

// FindTool looks up a tool definition by its full ID
func (r *Registry) FindTool(toolID string) (types.Tool, bool) {
	serviceID, _, ok := strings.Cut(toolID, ".")
	if !ok {
		return types.Tool{}, false
	}
	provider, ok := r.Get(serviceID)
	if !ok {
		return types.Tool{}, false
	}
	for _, tool := range provider.Definition().Tools {
		if tool.ID == toolID {
			return tool, true
		}
	}
	return types.Tool{}, false
}

// Discover finds relevant services for a given intent
func (r *Registry) Discover(intent string, limit int) []types.Service {
	type scoredService struct {
		service types.Service
		score   float64
	}

	intentLower := strings.ToLower(intent)
	var results []scoredService

	r.services.Range(func(_, value any) bool {
		def := value.(Provider).Definition()
		score := r.calculateRelevance(intentLower, def)
		if score > 0 {
			results = append(results, scoredService{
				service: def,
				score:   score,
			})
		}
		return true
	})

	// Sort by score descending
	sort.Slice(results, func(i, j int) bool {
		if results[i].score == results[j].score {
			return results[i].service.ID < results[j].service.ID
		}
		return results[i].score > results[j].score
	})

	output := make([]types.Service, 0, limit)
	for i := 0; i < len(results) && i < limit; i++ {
		output = append(output, results[i].service)
	}

	return output
}

// Execute runs a service tool. Operation sentinels come back as a
// successful result; a failed result means the call itself was rejected.
func (r *Registry) Execute(ctx context.Context, toolID string, params map[string]any, appCtx *types.Context) (*types.Result, error) {
	timer := monitoring.NewTimer(r.metrics, toolID)

	serviceID, _, ok := strings.Cut(toolID, ".")
	if !ok {
		timer.Stop(monitoring.StatusFailure)
		err := fmt.Errorf("%w: %s", ErrInvalidToolID, toolID)
		return failure(err.Error()), err
	}

	provider, ok := r.Get(serviceID)
	if !ok {
		timer.Stop(monitoring.StatusFailure)
		err := fmt.Errorf("%w: %s", ErrServiceNotFound, serviceID)
		return failure(err.Error()), err
	}

	result, err := provider.Execute(ctx, toolID, params, appCtx)
	status := classify(result, err)
	duration := timer.Stop(status)

	fields := []zap.Field{
		zap.String("tool", toolID),
		zap.String("status", status),
		zap.Duration("duration", duration),
	}
	if appCtx != nil {
		fields = append(fields, zap.String("request_id", appCtx.RequestID), zap.String("transport", appCtx.Transport))
	}
	if err != nil {
		r.logger.Error("Tool call failed", append(fields, zap.Error(err))...)
	} else {
		r.logger.Debug("Tool call", fields...)
	}

	return result, err
}

// Stats returns registry statistics
func (r *Registry) Stats() map[string]any {
	var total, totalTools int
	categories := make(map[string]int)

	r.services.Range(func(_, value any) bool {
		def := value.(Provider).Definition()
		total++
		totalTools += len(def.Tools)
		categories[string(def.Category)]++
		return true
	})

	return map[string]any{
		"total_services": total,
		"total_tools":    totalTools,
		"categories":     categories,
	}
}

// classify maps a provider outcome onto a monitoring status
func classify(result *types.Result, err error) string {
	switch {
	case err != nil:
		return monitoring.StatusError
	case result == nil || !result.Success:
		return monitoring.StatusFailure
	case IsSentinel(result.Value()):
		return monitoring.StatusSentinel
	default:
		return monitoring.StatusOK
	}
}

// IsSentinel reports whether v is one of the failure sentinels an
// operation returns: false, -1 or nil
func IsSentinel(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case bool:
		return !x
	case int64:
		return x == -1
	case int:
		return x == -1
	}
	return false
}

func (r *Registry) calculateRelevance(intent string, service types.Service) float64 {
	score := 0.0

	// Check service name and ID
	if strings.Contains(intent, service.ID) || strings.Contains(intent, strings.ToLower(service.Name)) {
		score += 10.0
	}

	// Check description words
	for _, word := range strings.Fields(strings.ToLower(service.Description)) {
		if len(word) > 3 && strings.Contains(intent, word) {
			score += 5.0
		}
	}

	// Check capabilities
	for _, cap := range service.Capabilities {
		capClean := strings.ReplaceAll(strings.ToLower(cap), "_", " ")
		if strings.Contains(intent, capClean) {
			score += 3.0
		}
	}

	// Check tool names
	for _, tool := range service.Tools {
		if strings.Contains(intent, strings.ToLower(tool.Name)) {
			score += 4.0
		}
	}

	// Check category
	if strings.Contains(intent, string(service.Category)) {
		score += 2.0
	}

	return score
}

func failure(msg string) *types.Result {
	return &types.Result{Success: false, Error: &msg}
}
