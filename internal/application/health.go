package application

import (
	"context"
	"sort"
	"sync"

	"github.com/jobrunner/picta/internal/ports/input"
)

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// HealthService provides health check functionality.
type HealthService struct {
	storageType string

	mu     sync.RWMutex
	checks map[string]HealthCheck
}

// NewHealthService creates a new health service.
func NewHealthService(storageType string) *HealthService {
	return &HealthService{
		storageType: storageType,
		checks:      make(map[string]HealthCheck),
	}
}

// AddCheck registers a readiness check under name.
func (s *HealthService) AddCheck(name string, check HealthCheck) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks[name] = check
}

// IsHealthy returns true if the service is healthy.
func (s *HealthService) IsHealthy(_ context.Context) bool {
	return true // Basic health check
}

// IsReady returns true when every registered check passes.
func (s *HealthService) IsReady(ctx context.Context) bool {
	for _, status := range s.runChecks(ctx) {
		if status != "ok" {
			return false
		}
	}
	return true
}

// GetHealthDetails returns detailed health information.
func (s *HealthService) GetHealthDetails(ctx context.Context) input.HealthDetails {
	components := s.runChecks(ctx)

	ready := true
	for _, status := range components {
		if status != "ok" {
			ready = false
			break
		}
	}

	return input.HealthDetails{
		Healthy:    s.IsHealthy(ctx),
		Ready:      ready,
		Storage:    s.storageType,
		Components: components,
	}
}

// CheckNames returns the registered check names in sorted order.
func (s *HealthService) CheckNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *HealthService) runChecks(ctx context.Context) map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	components := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			components[name] = err.Error()
			continue
		}
		components[name] = "ok"
	}
	return components
}
