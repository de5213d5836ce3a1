package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// tasaProviderResponse is the shape returned by the dolarapi-style aggregators
// that publish the BCV official USD/VES rate.
type tasaProviderResponse struct {
	Promedio           decimal.Decimal `json:"promedio"`
	FechaActualizacion string          `json:"fechaActualizacion"`
}

// TasaProvider fetches the current USD/VES exchange rate from an external
// HTTP provider. All calls go through a circuit breaker so a provider outage
// degrades to the cached rate instead of blocking checkouts.
type TasaProvider struct {
	url        string
	httpClient *http.Client
	cb         *CircuitBreaker
}

func NewTasaProvider(url string, cb *CircuitBreaker) *TasaProvider {
	return &TasaProvider{
		url:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cb:         cb,
	}
}

// CircuitState exposes the breaker state for the health endpoint.
func (p *TasaProvider) CircuitState() CBState {
	return p.cb.State()
}

// FetchTasa returns the current rate (VES per USD).
// Returns ErrCircuitOpen without touching the network while the breaker is open.
func (p *TasaProvider) FetchTasa(ctx context.Context) (decimal.Decimal, error) {
	var tasa decimal.Decimal

	err := p.cb.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
		if err != nil {
			return fmt.Errorf("tasa: create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := p.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("tasa: provider unreachable: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("tasa: provider returned %d", resp.StatusCode)
		}

		var body tasaProviderResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return fmt.Errorf("tasa: decode response: %w", err)
		}
		if !body.Promedio.IsPositive() {
			return fmt.Errorf("tasa: provider returned non-positive rate %s", body.Promedio)
		}

		tasa = body.Promedio
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return tasa, nil
}
