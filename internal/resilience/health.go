package resilience

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ZanzyTHEbar/profile-insights/internal/errors"
)

// HealthLevel summarises how a dependency is behaving
type HealthLevel int

const (
	LevelNormal HealthLevel = iota
	LevelDegraded
	LevelUnavailable
)

func (l HealthLevel) String() string {
	switch l {
	case LevelNormal:
		return "healthy"
	case LevelDegraded:
		return "degraded"
	default:
		return "unavailable"
	}
}

// HealthConfig holds thresholds for the health registry
type HealthConfig struct {
	CheckInterval     time.Duration `json:"check_interval"`
	CheckTimeout      time.Duration `json:"check_timeout"`
	DegradedThreshold float64       `json:"degraded_threshold"` // error rate 0.0-1.0
	UnavailableAfter  int           `json:"unavailable_after"`  // consecutive failed checks
}

// DefaultHealthConfig returns the defaults used by the server
func DefaultHealthConfig() HealthConfig {
	return HealthConfig{
		CheckInterval:     30 * time.Second,
		CheckTimeout:      5 * time.Second,
		DegradedThreshold: 0.25,
		UnavailableAfter:  1,
	}
}

// ServiceHealth is a snapshot of one dependency's health
type ServiceHealth struct {
	ServiceName   string      `json:"service_name"`
	Level         HealthLevel `json:"-"`
	Status        string      `json:"status"`
	ErrorRate     float64     `json:"error_rate"`
	TotalRequests int64       `json:"total_requests"`
	ErrorCount    int64       `json:"error_count"`
	LastError     string      `json:"last_error,omitempty"`
	LastErrorTime time.Time   `json:"last_error_time,omitempty"`
	LastChecked   time.Time   `json:"last_checked,omitempty"`

	failedChecks int
}

// HealthCheckFunc reports whether a dependency is reachable
type HealthCheckFunc func(ctx context.Context) error

// HealthRegistry tracks request outcomes and probe results per dependency
type HealthRegistry struct {
	config   HealthConfig
	services map[string]*ServiceHealth
	checks   map[string]HealthCheckFunc
	mutex    sync.RWMutex
}

// NewHealthRegistry creates an empty registry
func NewHealthRegistry(config HealthConfig) *HealthRegistry {
	if config.CheckTimeout == 0 {
		config.CheckTimeout = 5 * time.Second
	}
	if config.UnavailableAfter == 0 {
		config.UnavailableAfter = 1
	}
	return &HealthRegistry{
		config:   config,
		services: make(map[string]*ServiceHealth),
		checks:   make(map[string]HealthCheckFunc),
	}
}

// RegisterService registers a dependency with an optional probe
func (hr *HealthRegistry) RegisterService(name string, check HealthCheckFunc) {
	hr.mutex.Lock()
	defer hr.mutex.Unlock()

	hr.services[name] = &ServiceHealth{ServiceName: name, Level: LevelNormal, Status: LevelNormal.String()}
	if check != nil {
		hr.checks[name] = check
	}

	slog.Info("Registered service for health tracking", "service", name)
}

// RecordRequest records the outcome of one call to a dependency
func (hr *HealthRegistry) RecordRequest(name string, err error) {
	hr.mutex.Lock()
	defer hr.mutex.Unlock()

	service, exists := hr.services[name]
	if !exists {
		return
	}

	service.TotalRequests++
	if err != nil {
		service.ErrorCount++
		service.LastError = err.Error()
		service.LastErrorTime = time.Now()
	}
	service.ErrorRate = float64(service.ErrorCount) / float64(service.TotalRequests)

	hr.updateLevel(service)
}

func (hr *HealthRegistry) recordCheck(name string, err error) {
	hr.mutex.Lock()
	defer hr.mutex.Unlock()

	service, exists := hr.services[name]
	if !exists {
		return
	}

	service.LastChecked = time.Now()
	if err != nil {
		service.failedChecks++
		service.LastError = err.Error()
		service.LastErrorTime = service.LastChecked
	} else {
		service.failedChecks = 0
	}

	hr.updateLevel(service)
}

func (hr *HealthRegistry) updateLevel(service *ServiceHealth) {
	oldLevel := service.Level

	switch {
	case service.failedChecks >= hr.config.UnavailableAfter:
		service.Level = LevelUnavailable
	case service.ErrorRate >= hr.config.DegradedThreshold && service.TotalRequests > 0:
		service.Level = LevelDegraded
	default:
		service.Level = LevelNormal
	}
	service.Status = service.Level.String()

	if oldLevel != service.Level {
		slog.Warn("Service health level changed",
			"service", service.ServiceName,
			"old_level", oldLevel.String(),
			"new_level", service.Level.String(),
			"error_rate", service.ErrorRate)
	}
}

// Check runs the registered probe for name now and returns the updated
// snapshot
func (hr *HealthRegistry) Check(ctx context.Context, name string) (*ServiceHealth, bool) {
	hr.mutex.RLock()
	check := hr.checks[name]
	hr.mutex.RUnlock()

	if check != nil {
		checkCtx, cancel := context.WithTimeout(ctx, hr.config.CheckTimeout)
		err := check(checkCtx)
		cancel()
		hr.recordCheck(name, errors.WrapError(err, "health check failed for service %s", name))
	}

	return hr.GetServiceHealth(name)
}

// GetServiceHealth returns a copy of the health status of a service
func (hr *HealthRegistry) GetServiceHealth(name string) (*ServiceHealth, bool) {
	hr.mutex.RLock()
	defer hr.mutex.RUnlock()

	service, exists := hr.services[name]
	if !exists {
		return nil, false
	}

	snapshot := *service
	return &snapshot, true
}

// GetAllServiceHealth returns health status for all services
func (hr *HealthRegistry) GetAllServiceHealth() map[string]*ServiceHealth {
	hr.mutex.RLock()
	defer hr.mutex.RUnlock()

	result := make(map[string]*ServiceHealth, len(hr.services))
	for name, service := range hr.services {
		snapshot := *service
		result[name] = &snapshot
	}
	return result
}

// IsServiceAvailable reports false only when probes have been failing
func (hr *HealthRegistry) IsServiceAvailable(name string) bool {
	hr.mutex.RLock()
	defer hr.mutex.RUnlock()

	service, exists := hr.services[name]
	return exists && service.Level != LevelUnavailable
}

// StartHealthChecks probes every registered service on CheckInterval until
// ctx is cancelled
func (hr *HealthRegistry) StartHealthChecks(ctx context.Context) {
	if hr.config.CheckInterval <= 0 {
		return
	}

	ticker := time.NewTicker(hr.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			hr.mutex.RLock()
			names := make([]string, 0, len(hr.checks))
			for name := range hr.checks {
				names = append(names, name)
			}
			hr.mutex.RUnlock()

			for _, name := range names {
				hr.Check(ctx, name)
			}
		}
	}
}
