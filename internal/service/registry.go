package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/GriffinCanCode/sandboxfs/internal/infrastructure/logging"
	"github.com/GriffinCanCode/sandboxfs/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/sandboxfs/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/sandboxfs/internal/shared/types"
	"go.uber.org/zap"
)

// Provider is implemented by every service behind the registry
type Provider interface {
	Definition() types.Service
	Execute(ctx context.Context, toolID string, params map[string]interface{}) (*types.Result, error)
}

// versionTracker is implemented by providers that keep a version store
type versionTracker interface {
	TrackedVersions() int
}

// Registry manages service discovery and execution
type Registry struct {
	services sync.Map
	logger   *logging.Logger
	metrics  *monitoring.Metrics
	tracer   *tracing.Tracer
}

// NewRegistry creates a new service registry
func NewRegistry(logger *logging.Logger) *Registry {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Registry{logger: logger}
}

// WithMetrics records every tool call on m
func (r *Registry) WithMetrics(m *monitoring.Metrics) *Registry {
	r.metrics = m
	return r
}

// WithTracer opens a span for every tool call
func (r *Registry) WithTracer(t *tracing.Tracer) *Registry {
	r.tracer = t
	return r
}

// Register adds a service provider
func (r *Registry) Register(provider Provider) error {
	def := provider.Definition()
	if def.ID == "" {
		return fmt.Errorf("service ID cannot be empty")
	}
	if _, loaded := r.services.LoadOrStore(def.ID, provider); loaded {
		return fmt.Errorf("service already registered: %s", def.ID)
	}
	r.logger.Info("service registered", zap.String("service", def.ID), zap.Int("tools", len(def.Tools)))
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

// List returns registered services ordered by ID, optionally filtered by category
func (r *Registry) List(category *types.Category) []types.Service {
	services := []types.Service{}
	r.services.Range(func(_, value interface{}) bool {
		def := value.(Provider).Definition()
		if category == nil || def.Category == *category {
			services = append(services, def)
		}
		return true
	})
	sort.Slice(services, func(i, j int) bool { return services[i].ID < services[j].ID })
	return services
}

// Discover finds relevant services for a given intent
func (r *Registry) Discover(intent string, limit int) []types.Service {
	type scoredService struct {
		service types.Service
		score   float64
	}

	intentLower := strings.ToLower(intent)
	var results []scoredService

	r.services.Range(func(_, value interface{}) bool {
		def := value.(Provider).Definition()
		if score := calculateRelevance(intentLower, def); score > 0 {
			results = append(results, scoredService{service: def, score: score})
		}
		return true
	})

	sort.Slice(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].service.ID < results[j].service.ID
	})

	if limit <= 0 || limit > len(results) {
		limit = len(results)
	}
	output := make([]types.Service, 0, limit)
	for i := 0; i < limit; i++ {
		output = append(output, results[i].service)
	}
	return output
}

// Execute routes a "<service>.<tool>" ID to its provider.
// Unroutable IDs yield a failed envelope with ErrorUnknownTool; the error
// return is reserved for provider faults.
func (r *Registry) Execute(ctx context.Context, toolID string, params map[string]interface{}) (*types.Result, error) {
	serviceID, _, found := strings.Cut(toolID, ".")
	if !found || serviceID == "" {
		return types.Fail(toolID, types.SubjectService, types.ErrorUnknownTool, fmt.Sprintf("invalid tool ID format: %s", toolID)), nil
	}

	provider, ok := r.Get(serviceID)
	if !ok {
		monitoring.NewTimer(r.metrics, serviceID, toolID).Stop(string(types.ErrorUnknownTool))
		return types.Fail(toolID, types.SubjectService, types.ErrorUnknownTool, fmt.Sprintf("service not found: %s", serviceID)), nil
	}

	var span *tracing.Span
	if r.tracer != nil {
		span, ctx = r.tracer.StartSpan(ctx, toolID)
		span.SetTag("tool", toolID)
	}
	log := r.logger.ForTool(toolID, tracing.RequestID(ctx).String())
	timer := monitoring.NewTimer(r.metrics, serviceID, toolID)

	result, err := provider.Execute(ctx, toolID, params)

	kind := ""
	switch {
	case err != nil:
		kind = string(types.ErrorIO)
	case !result.OK:
		kind = string(result.ErrorKind)
	}
	elapsed := timer.Stop(kind)

	if span != nil {
		if kind != "" {
			span.SetTag("error_kind", kind)
		}
		if err != nil {
			span.SetError(err)
		}
		span.Finish()
		r.tracer.Submit(span)
	}

	switch {
	case err != nil:
		log.Error("tool execution failed", zap.Error(err), zap.Duration("duration", elapsed))
		return nil, err
	case !result.OK:
		log.Warn("tool returned failure",
			zap.String("error_kind", kind),
			zap.String("error", result.Error),
			zap.Duration("duration", elapsed),
		)
	default:
		log.Debug("tool executed", zap.String("action", result.Action), zap.Duration("duration", elapsed))
	}

	r.observe(provider, result)
	return result, nil
}

// observe feeds sandbox gauges and counters from a result payload
func (r *Registry) observe(provider Provider, result *types.Result) {
	if r.metrics == nil {
		return
	}
	if vt, ok := provider.(versionTracker); ok {
		r.metrics.SetVersionsTracked(vt.TrackedVersions())
	}

	switch p := result.Payload.(type) {
	case *types.ArchiveOp:
		if result.OK {
			r.metrics.AddArchiveMembers(result.Action, p.Count)
		}
	case *types.SyncOp:
		addSkipped(r.metrics, p.Skipped)
	case *types.SearchOp:
		addSkipped(r.metrics, p.Skipped)
	}
}

func addSkipped(m *monitoring.Metrics, skipped []types.Failure) {
	counts := make(map[types.ErrorKind]int)
	for _, s := range skipped {
		counts[s.Kind]++
	}
	for kind, n := range counts {
		m.AddSkipped(string(kind), n)
	}
}

// Stats returns registry statistics
func (r *Registry) Stats() map[string]interface{} {
	var total, totalTools int
	categories := make(map[string]int)

	r.services.Range(func(_, value interface{}) bool {
		def := value.(Provider).Definition()
		total++
		totalTools += len(def.Tools)
		categories[string(def.Category)]++
		return true
	})

	return map[string]interface{}{
		"total_services": total,
		"total_tools":    totalTools,
		"categories":     categories,
	}
}

func calculateRelevance(intent string, service types.Service) float64 {
	score := 0.0

	if strings.Contains(intent, service.ID) || strings.Contains(intent, strings.ToLower(service.Name)) {
		score += 10.0
	}

	for _, word := range strings.Fields(strings.ToLower(service.Description)) {
		if len(word) > 2 && strings.Contains(intent, word) {
			score += 5.0
		}
	}

	for _, capability := range service.Capabilities {
		if strings.Contains(intent, strings.ReplaceAll(strings.ToLower(capability), "_", " ")) {
			score += 3.0
		}
	}

	for _, tool := range service.Tools {
		if strings.Contains(intent, strings.ToLower(tool.Name)) {
			score += 3.0
		}
	}

	if strings.Contains(intent, string(service.Category)) {
		score += 2.0
	}

	return score
}
