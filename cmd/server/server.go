package main

import (
	stderrors "errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/ZanzyTHEbar/profile-insights/internal/adapters"
	"github.com/ZanzyTHEbar/profile-insights/internal/analysis"
	"github.com/ZanzyTHEbar/profile-insights/internal/comparison"
	"github.com/ZanzyTHEbar/profile-insights/internal/config"
	"github.com/ZanzyTHEbar/profile-insights/internal/errors"
	"github.com/ZanzyTHEbar/profile-insights/internal/monitoring"
	"github.com/ZanzyTHEbar/profile-insights/internal/ratelimit"
	"github.com/ZanzyTHEbar/profile-insights/internal/resilience"
	"github.com/ZanzyTHEbar/profile-insights/internal/security"
	"github.com/ZanzyTHEbar/profile-insights/internal/types"

	_ "github.com/ZanzyTHEbar/profile-insights/docs"
)

const (
	version         = "1.0.0"
	upstreamService = "analytics-service"
	redisService    = "redis"
)

type server struct {
	cfg       *config.Config
	client    *adapters.Client
	analyzer  *analysis.Analyzer
	assembler *comparison.Assembler
	health    *resilience.HealthRegistry
	limiter   *ratelimit.RateLimiter
	metrics   *monitoring.Metrics
	logger    *monitoring.Logger
}

// ProfileInsightsResponse is the success body of the profile endpoint
type ProfileInsightsResponse struct {
	Success bool              `json:"success"`
	Data    analysis.Insights `json:"data"`
}

// ComparisonData holds the per-subject outcomes and the chart series
type ComparisonData struct {
	Comparisons types.ComparisonResult `json:"comparisons"`
	Chart       comparison.Chart       `json:"chart"`
	Succeeded   int                    `json:"succeeded"`
	Failed      int                    `json:"failed"`
}

// ComparisonResponse is the success body of the compare endpoint
type ComparisonResponse struct {
	Success bool           `json:"success"`
	Data    ComparisonData `json:"data"`
}

func newServer(cfg *config.Config, logger *monitoring.Logger, metrics *monitoring.Metrics, limiter *ratelimit.RateLimiter) *server {
	s := &server{
		cfg:      cfg,
		analyzer: analysis.NewAnalyzer(),
		health:   resilience.NewHealthRegistry(resilience.DefaultHealthConfig()),
		limiter:  limiter,
		metrics:  metrics,
		logger:   logger,
	}

	breaker := adapters.NewCircuitBreaker(func(from, to resilience.CircuitBreakerState) {
		logger.Warn("Circuit breaker state changed", "service", upstreamService, "from", from.String(), "to", to.String())
		switch to {
		case resilience.StateOpen:
			metrics.IncrementCircuitBreakerOpen()
		case resilience.StateClosed:
			metrics.IncrementCircuitBreakerClose()
		}
	})

	s.client = adapters.NewClient(cfg.Analytics.BaseURL, cfg.Analytics.APIPrefix,
		adapters.WithTimeout(cfg.Analytics.Timeout),
		adapters.WithCircuitBreaker(breaker),
		adapters.WithObserver(s.observeUpstream),
	)
	s.assembler = comparison.NewBatchAssembler(s.client, s.analyzer)
	s.health.RegisterService(upstreamService, s.client.CheckHealth)

	return s
}

// registerRedis adds the rate limiter's Redis connection to the health
// registry. A disabled client is not probed.
func (s *server) registerRedis(rc *ratelimit.RedisClient) bool {
	if rc == nil || !rc.IsEnabled() {
		return false
	}
	s.health.RegisterService(redisService, rc.HealthCheck)
	return true
}

func (s *server) observeUpstream(method, endpoint string, statusCode int, duration time.Duration, err error) {
	s.logger.UpstreamLogger(method, endpoint, statusCode, duration, err)
	if endpoint == "/health" {
		return
	}

	var fault error
	if adapters.IsUpstreamFault(err) {
		fault = err
	}
	s.metrics.RecordUpstreamCall(fault == nil)
	s.health.RecordRequest(upstreamService, fault)
}

func (s *server) routes() *gin.Engine {
	r := gin.New()

	r.Use(monitoring.RequestIDMiddleware())
	r.Use(monitoring.MonitoringMiddleware(s.metrics, s.logger))
	r.Use(errors.ErrorHandler())
	r.Use(errors.RecoveryHandler())
	r.Use(security.HeadersMiddleware(security.HeadersConfig{
		HSTS:       s.cfg.Server.EnableHSTS,
		DocsPrefix: "/swagger",
	}))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = s.cfg.Server.CORSOrigins
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, monitoring.RequestIDHeader)
	corsConfig.ExposeHeaders = []string{monitoring.RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"}
	r.Use(cors.New(corsConfig))

	r.GET("/health", s.handleHealth)
	r.GET("/metrics", s.handleMetrics)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1/insights")
	api.GET("/profile/:username",
		s.limiter.EndpointRateLimitMiddleware(ratelimit.EndpointProfile, s.cfg.RateLimit.ProfilePerMin),
		s.handleProfile)
	api.POST("/compare",
		s.limiter.EndpointRateLimitMiddleware(ratelimit.EndpointCompare, s.cfg.RateLimit.ComparePerMin),
		s.handleCompare)

	return r
}

// handleHealth godoc
// @Summary      Service health
// @Description  Probes the analytics service and reports this server's view of it
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]interface{}
// @Router       /health [get]
func (s *server) handleHealth(c *gin.Context) {
	upstream, _ := s.health.Check(c.Request.Context(), upstreamService)

	status := "ok"
	code := http.StatusOK
	if upstream != nil {
		switch upstream.Level {
		case resilience.LevelDegraded:
			status = "degraded"
		case resilience.LevelUnavailable:
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}

	c.JSON(code, gin.H{
		"status":       status,
		"timestamp":    time.Now().Format(time.RFC3339),
		"version":      version,
		"services":     s.health.GetAllServiceHealth(),
		"rate_limiter": s.limiter.GetStats(),
	})
}

// handleMetrics godoc
// @Summary  Request and upstream counters
// @Tags     health
// @Produce  json
// @Success  200  {object}  map[string]interface{}
// @Router   /metrics [get]
func (s *server) handleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, s.metrics.GetStats())
}

// handleProfile godoc
// @Summary      Profile insights
// @Description  Fetches one profile from the analytics service and derives skills, languages, repositories and activity
// @Tags         insights
// @Produce      json
// @Param        username  path   string  true   "Username"
// @Param        sort      query  string  false  "Repository order"  Enums(stars, forks, recent, name)
// @Param        language  query  string  false  "Repository language filter, or all"
// @Success      200  {object}  ProfileInsightsResponse
// @Failure      400  {object}  errors.ErrorResponse
// @Failure      429  {object}  errors.ErrorResponse
// @Failure      502  {object}  errors.ErrorResponse
// @Failure      504  {object}  errors.ErrorResponse
// @Router       /api/v1/insights/profile/{username} [get]
func (s *server) handleProfile(c *gin.Context) {
	start := time.Now()
	s.metrics.IncrementProfileRequest()

	sortKey, err := analysis.ParseSortKey(c.Query("sort"))
	if err != nil {
		_ = c.Error(errors.NewValidationError(err.Error()))
		return
	}
	language := strings.TrimSpace(c.DefaultQuery("language", analysis.AllLanguages))

	profile, err := s.client.FetchProfile(c.Request.Context(), c.Param("username"))
	if err != nil {
		_ = c.Error(passThroughNotFound(err))
		return
	}

	insights := s.analyzer.Analyze(profile, analysis.ViewOptions{Sort: sortKey, LanguageFilter: language})
	s.logger.InsightLogger(profile.Username, insights.RepositoryCount, len(insights.Languages), time.Since(start))

	c.JSON(http.StatusOK, ProfileInsightsResponse{Success: true, Data: insights})
}

// handleCompare godoc
// @Summary      Compare profiles
// @Description  Compares two to five profiles; subjects fail individually
// @Tags         insights
// @Accept       json
// @Produce      json
// @Param        request  body  types.CompareRequest  true  "Usernames to compare"
// @Success      200  {object}  ComparisonResponse
// @Failure      400  {object}  errors.ErrorResponse
// @Failure      429  {object}  errors.ErrorResponse
// @Failure      502  {object}  errors.ErrorResponse
// @Router       /api/v1/insights/compare [post]
func (s *server) handleCompare(c *gin.Context) {
	start := time.Now()
	s.metrics.IncrementCompareRequest()

	var req types.CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errors.NewValidationError("request body must be JSON with a usernames list", err.Error()))
		return
	}

	result, err := s.assembler.Compare(c.Request.Context(), req.Usernames)
	if err != nil {
		_ = c.Error(err)
		return
	}

	succeeded := len(comparison.Successful(result))
	s.logger.ComparisonLogger(len(result), succeeded, time.Since(start))

	c.JSON(http.StatusOK, ComparisonResponse{
		Success: true,
		Data: ComparisonData{
			Comparisons: result,
			Chart:       comparison.BuildChart(result),
			Succeeded:   succeeded,
			Failed:      len(result) - succeeded,
		},
	})
}

// passThroughNotFound keeps an upstream 404 as a 404 instead of a gateway
// error
func passThroughNotFound(err error) error {
	var se *adapters.StatusError
	if !stderrors.As(err, &se) || se.StatusCode != http.StatusNotFound {
		return err
	}
	appErr := errors.ToAppError(err)
	appErr.HTTPStatus = http.StatusNotFound
	return appErr
}
