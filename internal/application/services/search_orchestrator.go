package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/maitricare/emergency-locator/internal/domain/entities"
	"github.com/maitricare/emergency-locator/internal/domain/providers"
	"github.com/maitricare/emergency-locator/internal/infrastructure/observability"
)

// OrchestratorConfig tunes one orchestrator instance.
type OrchestratorConfig struct {
	// CredentialConfigured gates the whole chain: without it a refresh
	// lands directly in ConfigError and never touches geolocation.
	CredentialConfigured bool

	Keyword         string
	RadiusMeters    int
	MaxResults      int
	LocationTimeout time.Duration
}

// SearchOrchestrator sequences coordinate acquisition, map service readiness
// and the facility search, and owns the externally observable status. Statuses
// move monotonically to a terminal state; only an explicit Refresh starts a
// new run. Each Refresh mints a new run token, and a completion whose token no
// longer matches is discarded without touching shared state, so a stale run
// can never corrupt the status of a newer one.
type SearchOrchestrator struct {
	cfg      OrchestratorConfig
	location providers.LocationProvider
	mapSvc   providers.MapService
	searcher providers.PlaceSearcher
	bus      providers.EventBus
	metrics  *observability.Metrics
	tracer   trace.Tracer

	mu      sync.Mutex
	token   uint64
	runID   string
	live    bool
	status  entities.SearchStatus
	results []*entities.FacilityRecord
}

// NewSearchOrchestrator creates an orchestrator in the Idle state.
func NewSearchOrchestrator(
	cfg OrchestratorConfig,
	location providers.LocationProvider,
	mapSvc providers.MapService,
	searcher providers.PlaceSearcher,
	bus providers.EventBus,
	metrics *observability.Metrics,
) *SearchOrchestrator {
	return &SearchOrchestrator{
		cfg:      cfg,
		location: location,
		mapSvc:   mapSvc,
		searcher: searcher,
		bus:      bus,
		metrics:  metrics,
		tracer:   otel.Tracer("github.com/maitricare/emergency-locator/internal/application/services"),
		live:     true,
		status:   entities.SearchStatus{State: entities.StateIdle, UpdatedAt: time.Now()},
	}
}

// Refresh starts a logically new run. It clears previously held records and
// errors, mints a new run token and returns the immediately observable
// status. An earlier run that is still in flight is not cancelled; its late
// completions simply fail the token check and are dropped.
func (o *SearchOrchestrator) Refresh() entities.SearchStatus {
	o.mu.Lock()

	if !o.live {
		status := o.status
		o.mu.Unlock()
		return status
	}

	o.token++
	token := o.token
	runID := uuid.NewString()
	o.runID = runID
	o.results = nil

	if !o.cfg.CredentialConfigured {
		status := entities.SearchStatus{
			State:     entities.StateConfigError,
			ErrorKind: "MISSING_CREDENTIAL",
			Message:   "no map platform credential is configured",
			Guidance:  "The locator is not set up for this deployment. Contact support.",
			Retryable: false,
			Token:     token,
			UpdatedAt: time.Now(),
		}
		o.status = status
		o.mu.Unlock()
		o.publish(runID, status, 0)
		return status
	}

	status := entities.SearchStatus{
		State:     entities.StateLocating,
		Retryable: false,
		Token:     token,
		UpdatedAt: time.Now(),
	}
	o.status = status
	o.mu.Unlock()

	o.publish(runID, status, 0)
	if o.metrics != nil {
		o.metrics.RunCount.Add(context.Background(), 1)
	}

	go o.run(token, runID)
	return status
}

// Snapshot returns the current status and the records of the run that
// produced it. The slice is a copy; callers cannot mutate orchestrator state.
func (o *SearchOrchestrator) Snapshot() (entities.SearchStatus, []*entities.FacilityRecord) {
	o.mu.Lock()
	defer o.mu.Unlock()

	results := make([]*entities.FacilityRecord, len(o.results))
	copy(results, o.results)
	return o.status, results
}

// Close marks the owning view as gone. Late completions of in-flight runs are
// discarded from here on, and Refresh becomes a no-op.
func (o *SearchOrchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.live = false
}

// run executes the three stages sequentially. Every transition is gated on
// the run token still being current.
func (o *SearchOrchestrator) run(token uint64, runID string) {
	ctx, span := o.tracer.Start(context.Background(), "locator.run",
		trace.WithAttributes(attribute.String("locator.run_id", runID)))
	defer span.End()

	// Stage 1: acquire a fresh coordinate.
	coord, err := o.acquireCoordinate(ctx)
	if err != nil {
		o.transition(token, runID, locationErrorStatus(err), nil)
		return
	}

	// Stage 2: map service readiness. Skipped entirely when a prior run
	// already confirmed the capability.
	if !o.mapSvc.IsReady() {
		if !o.transition(token, runID, entities.SearchStatus{State: entities.StateLoadingMapService}, nil) {
			return
		}
		if err := o.ensureMapService(ctx); err != nil {
			o.transition(token, runID, mapServiceErrorStatus(err), nil)
			return
		}
	}

	// Stage 3: the search itself.
	if !o.transition(token, runID, entities.SearchStatus{State: entities.StateSearching}, nil) {
		return
	}

	records, err := o.search(ctx, *coord)
	if err != nil {
		o.transition(token, runID, searchErrorStatus(err), nil)
		return
	}

	if len(records) == 0 {
		o.transition(token, runID, entities.SearchStatus{
			State:     entities.StateNoResults,
			Message:   "no medical facilities were found nearby",
			Guidance:  "Try again, or widen the search radius in settings.",
			Retryable: true,
		}, nil)
		return
	}

	if o.metrics != nil {
		o.metrics.FacilitiesReturned.Record(ctx, int64(len(records)))
	}
	o.transition(token, runID, entities.SearchStatus{State: entities.StateSuccess, Retryable: true}, records)
}

func (o *SearchOrchestrator) acquireCoordinate(ctx context.Context) (*entities.Coordinate, error) {
	ctx, span := o.tracer.Start(ctx, "locator.stage.locating")
	defer span.End()

	start := time.Now()
	coord, err := o.location.Acquire(ctx, providers.AcquireOptions{
		HighAccuracy: true,
		Timeout:      o.cfg.LocationTimeout,
		MaxCacheAge:  0, // a cached position may be far from where the user is now
	})
	o.recordStage(ctx, "locating", start, err)
	return coord, err
}

func (o *SearchOrchestrator) ensureMapService(ctx context.Context) error {
	ctx, span := o.tracer.Start(ctx, "locator.stage.loading_map_service")
	defer span.End()

	start := time.Now()
	err := o.mapSvc.EnsureReady(ctx)
	o.recordStage(ctx, "loading_map_service", start, err)
	return err
}

func (o *SearchOrchestrator) search(ctx context.Context, center entities.Coordinate) ([]*entities.FacilityRecord, error) {
	ctx, span := o.tracer.Start(ctx, "locator.stage.searching")
	defer span.End()

	start := time.Now()
	records, err := o.searcher.Search(ctx, providers.SearchRequest{
		Center:       center,
		Keyword:      o.cfg.Keyword,
		RadiusMeters: o.cfg.RadiusMeters,
		MaxResults:   o.cfg.MaxResults,
	})
	o.recordStage(ctx, "searching", start, err)
	return records, err
}

// transition publishes a new status if the run is still current. It reports
// false when the run has been superseded or the view is gone, in which case
// nothing was mutated.
func (o *SearchOrchestrator) transition(token uint64, runID string, status entities.SearchStatus, results []*entities.FacilityRecord) bool {
	o.mu.Lock()
	if token != o.token || !o.live {
		o.mu.Unlock()
		if o.metrics != nil {
			o.metrics.SuppressedCount.Add(context.Background(), 1)
		}
		logger := observability.GetLogger()
		logger.Debug().Str("run_id", runID).Uint64("token", token).
			Str("state", string(status.State)).Msg("discarded stale run callback")
		return false
	}

	status.Token = token
	status.UpdatedAt = time.Now()
	o.status = status
	if results != nil {
		o.results = results
	}
	count := len(o.results)
	o.mu.Unlock()

	o.publish(runID, status, count)
	return true
}

func (o *SearchOrchestrator) publish(runID string, status entities.SearchStatus, resultCount int) {
	logger := observability.GetLogger()
	evt := logger.Info()
	if status.Failed() {
		evt = logger.Warn()
	}
	evt.Str("run_id", runID).Str("state", string(status.State)).
		Str("error_kind", status.ErrorKind).Int("results", resultCount).
		Msg("locator status transition")

	if o.bus == nil {
		return
	}
	event := &entities.SearchEvent{
		EventType:   entities.SearchEventTransition,
		RunID:       runID,
		Token:       status.Token,
		Status:      status,
		ResultCount: resultCount,
		Timestamp:   time.Now(),
	}
	if err := o.bus.Publish(context.Background(), providers.EventChannelSearchRuns, event); err != nil {
		logger.Warn().Err(err).Str("run_id", runID).Msg("failed to publish run event")
	}
}

func (o *SearchOrchestrator) recordStage(ctx context.Context, stage string, start time.Time, err error) {
	if o.metrics == nil {
		return
	}
	o.metrics.StageDuration.Record(ctx, float64(time.Since(start).Milliseconds()),
		metric.WithAttributes(attribute.String("stage", stage)))
	if err != nil {
		o.metrics.StageFailureCount.Add(ctx, 1, metric.WithAttributes(
			attribute.String("stage", stage),
			attribute.String("kind", errorKind(err)),
		))
	}
}

func errorKind(err error) string {
	var locErr *providers.LocationError
	if errors.As(err, &locErr) {
		return string(locErr.Kind)
	}
	var svcErr *providers.MapServiceError
	if errors.As(err, &svcErr) {
		return string(svcErr.Kind)
	}
	var searchErr *providers.SearchError
	if errors.As(err, &searchErr) {
		return string(searchErr.Kind)
	}
	var cfgErr *providers.ConfigError
	if errors.As(err, &cfgErr) {
		return "MISSING_CREDENTIAL"
	}
	return "UNKNOWN"
}

func locationErrorStatus(err error) entities.SearchStatus {
	kind := providers.LocationUnavailable
	message := "your position could not be determined"
	var locErr *providers.LocationError
	if errors.As(err, &locErr) {
		kind = locErr.Kind
		message = locErr.Message
	}

	guidance := "Try again in a moment."
	switch kind {
	case providers.LocationUnsupported:
		guidance = "Location is not available on this device or browser."
	case providers.LocationPermissionDenied:
		guidance = "Allow location access for this site, then try again."
	case providers.LocationTimedOut:
		guidance = "Locating you took too long. Move somewhere with better reception and try again."
	}

	return entities.SearchStatus{
		State:     entities.StateLocationError,
		ErrorKind: string(kind),
		Message:   message,
		Guidance:  guidance,
		Retryable: true,
	}
}

func mapServiceErrorStatus(err error) entities.SearchStatus {
	var cfgErr *providers.ConfigError
	if errors.As(err, &cfgErr) {
		return entities.SearchStatus{
			State:     entities.StateConfigError,
			ErrorKind: "MISSING_CREDENTIAL",
			Message:   cfgErr.Message,
			Guidance:  "The locator is not set up for this deployment. Contact support.",
			Retryable: false,
		}
	}

	kind := providers.MapServiceScriptLoadFailed
	message := "the map service could not be initialized"
	var svcErr *providers.MapServiceError
	if errors.As(err, &svcErr) {
		kind = svcErr.Kind
		message = svcErr.Message
	}

	guidance := "Check your connection and try again."
	if kind == providers.MapServiceCapabilityMissing {
		guidance = "Try again. If this keeps happening, the map service is misconfigured; contact support."
	}

	return entities.SearchStatus{
		State:     entities.StateMapServiceError,
		ErrorKind: string(kind),
		Message:   message,
		Guidance:  guidance,
		Retryable: true,
	}
}

func searchErrorStatus(err error) entities.SearchStatus {
	kind := providers.SearchUnknown
	message := "the facility search failed"
	var searchErr *providers.SearchError
	if errors.As(err, &searchErr) {
		kind = searchErr.Kind
		message = searchErr.Message
	}

	guidance := "Try again in a moment."
	switch kind {
	case providers.SearchQuotaExceeded:
		guidance = "The search service is over its usage limit. Try again later."
	case providers.SearchRequestDenied:
		guidance = "The search service rejected the request. Contact support."
	case providers.SearchNetworkError:
		guidance = "Check your connection and try again."
	}

	return entities.SearchStatus{
		State:     entities.StateSearchError,
		ErrorKind: string(kind),
		Message:   message,
		Guidance:  guidance,
		Retryable: true,
	}
}
