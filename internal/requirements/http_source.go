package requirements

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/billgate/billgate/internal/resilience"
)

// HTTPSource loads requirements from a remote configuration service.
//
// The service is expected to answer
//
//	GET {base}/requirements?layer={layer}
//
// with a JSON object mapping flag name -> selector -> []discriminator.
// Calls go through the shared resilient client, so transient upstream
// failures are retried with backoff and a misbehaving upstream trips the
// circuit breaker instead of stalling every gate evaluation.
type HTTPSource struct {
	baseURL string
	client  *resilience.Client
}

// NewHTTPSource creates a requirements source backed by a remote service.
func NewHTTPSource(baseURL string, client *resilience.Client) *HTTPSource {
	if client == nil {
		client = resilience.NewClient(resilience.DefaultClientConfig("requirements"))
	}
	return &HTTPSource{baseURL: baseURL, client: client}
}

// Load returns the full requirement set for the given layer.
func (s *HTTPSource) Load(ctx context.Context, layer Layer) (Set, error) {
	endpoint := fmt.Sprintf("%s/requirements?layer=%s", s.baseURL, url.QueryEscape(string(layer)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build requirements request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch requirements: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch requirements: unexpected status %d", resp.StatusCode)
	}

	var raw map[string]map[string][]string
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode requirements: %w", err)
	}

	set := make(Set, len(raw))
	for flag, selectors := range raw {
		entry := make(Entry, len(selectors))
		for selector, values := range selectors {
			if len(values) == 0 {
				values = []string{Wildcard}
			}
			entry[selector] = NewDiscriminatorSet(values...)
		}
		set[flag] = entry
	}
	return set, nil
}

// Ensure HTTPSource implements Source interface.
var _ Source = (*HTTPSource)(nil)
