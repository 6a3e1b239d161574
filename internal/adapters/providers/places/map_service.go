package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/maitricare/emergency-locator/internal/domain/providers"
)

const (
	googleDiscoveryURL = "https://places.googleapis.com/$discovery/rest?version=v1"
	defaultLoadTimeout = 15 * time.Second

	// searchTextMethod is the capability the locator depends on. Its
	// presence in the discovery document is what "ready" means; a
	// reachable provider without it is a misconfiguration, not an outage.
	searchTextMethod = "searchText"
)

type loadState int

const (
	stateUnloaded loadState = iota
	stateLoading
	stateReady
	stateFailed
)

// GoogleMapService confirms the Places text search capability once per
// process session. It is the single owner of that session-wide state: at most
// one readiness probe is ever in flight, and concurrent callers wait on its
// outcome bounded by a fallback timeout.
type GoogleMapService struct {
	apiKey       string
	discoveryURL string
	httpClient   *http.Client
	loadTimeout  time.Duration

	mu       sync.Mutex
	state    loadState
	inFlight chan struct{}
	lastErr  error
}

// NewGoogleMapService creates the owning map service instance.
func NewGoogleMapService(apiKey string) *GoogleMapService {
	return NewGoogleMapServiceWithOptions(apiKey, googleDiscoveryURL, nil, defaultLoadTimeout)
}

// NewGoogleMapServiceWithOptions allows overriding discovery URL, HTTP client
// and fallback timeout (used for tests).
func NewGoogleMapServiceWithOptions(apiKey, discoveryURL string, httpClient *http.Client, loadTimeout time.Duration) *GoogleMapService {
	if strings.TrimSpace(discoveryURL) == "" {
		discoveryURL = googleDiscoveryURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultLoadTimeout}
	}
	if loadTimeout <= 0 {
		loadTimeout = defaultLoadTimeout
	}
	return &GoogleMapService{
		apiKey:       apiKey,
		discoveryURL: discoveryURL,
		httpClient:   httpClient,
		loadTimeout:  loadTimeout,
	}
}

// IsReady reports whether the capability has been confirmed. No network action.
func (g *GoogleMapService) IsReady() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state == stateReady
}

// EnsureReady confirms the text search capability, probing at most once no
// matter how many goroutines call concurrently. Once ready it returns
// immediately forever after.
func (g *GoogleMapService) EnsureReady(ctx context.Context) error {
	g.mu.Lock()

	switch g.state {
	case stateReady:
		g.mu.Unlock()
		return nil

	case stateLoading:
		// Another caller already owns the probe; wait on it, but never
		// longer than the fallback bound.
		ch := g.inFlight
		g.mu.Unlock()

		select {
		case <-ch:
			return g.sharedOutcome()
		case <-time.After(g.loadTimeout):
			return providers.NewMapServiceError(providers.MapServiceInitTimeout,
				"capability initialization did not complete in time", nil)
		case <-ctx.Done():
			return providers.NewMapServiceError(providers.MapServiceInitTimeout,
				"capability initialization abandoned", ctx.Err())
		}

	default: // unloaded or failed: this caller performs the probe
		if strings.TrimSpace(g.apiKey) == "" {
			g.mu.Unlock()
			return providers.NewConfigError("maps api key is not configured")
		}

		ch := make(chan struct{})
		g.state = stateLoading
		g.inFlight = ch
		g.mu.Unlock()

		err := g.probe(ctx)

		g.mu.Lock()
		if err != nil {
			g.state = stateFailed
			g.lastErr = err
		} else {
			g.state = stateReady
			g.lastErr = nil
		}
		close(ch)
		g.mu.Unlock()

		return err
	}
}

func (g *GoogleMapService) sharedOutcome() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == stateReady {
		return nil
	}
	return g.lastErr
}

func (g *GoogleMapService) probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, g.loadTimeout)
	defer cancel()

	reqURL := g.discoveryURL
	if g.apiKey != "" {
		sep := "?"
		if strings.Contains(reqURL, "?") {
			sep = "&"
		}
		reqURL = reqURL + sep + url.Values{"key": []string{g.apiKey}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return providers.NewMapServiceError(providers.MapServiceScriptLoadFailed,
			"failed to build discovery request", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return providers.NewMapServiceError(providers.MapServiceInitTimeout,
				"capability initialization did not complete in time", err)
		}
		return providers.NewMapServiceError(providers.MapServiceScriptLoadFailed,
			"place service is unreachable", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusNotFound:
		return providers.NewMapServiceError(providers.MapServiceCapabilityMissing,
			fmt.Sprintf("place service rejected the capability probe with status %d", resp.StatusCode), nil)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return providers.NewMapServiceError(providers.MapServiceScriptLoadFailed,
			fmt.Sprintf("place service returned status %d", resp.StatusCode), nil)
	}

	var doc discoveryDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return providers.NewMapServiceError(providers.MapServiceScriptLoadFailed,
			"failed to decode discovery document", err)
	}

	// The service answered, but answering is not enough: the specific text
	// search method has to be advertised before the searcher may run.
	if !doc.hasMethod(searchTextMethod) {
		return providers.NewMapServiceError(providers.MapServiceCapabilityMissing,
			"text search capability is not available for this credential", nil)
	}

	return nil
}

type discoveryDocument struct {
	Name      string                       `json:"name"`
	Resources map[string]discoveryResource `json:"resources"`
}

type discoveryResource struct {
	Methods   map[string]json.RawMessage   `json:"methods"`
	Resources map[string]discoveryResource `json:"resources"`
}

func (d discoveryDocument) hasMethod(name string) bool {
	for _, res := range d.Resources {
		if res.hasMethod(name) {
			return true
		}
	}
	return false
}

func (r discoveryResource) hasMethod(name string) bool {
	if _, ok := r.Methods[name]; ok {
		return true
	}
	for _, nested := range r.Resources {
		if nested.hasMethod(name) {
			return true
		}
	}
	return false
}
