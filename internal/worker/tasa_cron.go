package worker

// tasa_cron.go
// Background goroutine that periodically refreshes the USD/VES rate from the
// external provider so cashiers always have a rate of the day without manual
// intervention. Skips ticks while the provider circuit breaker is open.

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"venpos/internal/infra"
)

const tasaTickInterval = 15 * time.Minute

// TasaRefresher is implemented by the tasa service. Declared here to keep
// the dependency pointing service → worker only.
type TasaRefresher interface {
	Refrescar(ctx context.Context) error
}

// StartTasaCron launches a background goroutine that refreshes the rate on
// startup and then every 15 minutes. It respects the context for graceful
// shutdown.
func StartTasaCron(ctx context.Context, refresher TasaRefresher, cb *infra.CircuitBreaker) {
	go func() {
		ticker := time.NewTicker(tasaTickInterval)
		defer ticker.Stop()

		log.Info().Msg("tasa_cron: started")
		refresh(ctx, refresher, cb)

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("tasa_cron: shutting down")
				return
			case <-ticker.C:
				refresh(ctx, refresher, cb)
			}
		}
	}()
}

func refresh(ctx context.Context, refresher TasaRefresher, cb *infra.CircuitBreaker) {
	// Don't hammer a downed provider
	if cb.State() == infra.CBOpen {
		log.Debug().Msg("tasa_cron: circuit breaker is open, skipping tick")
		return
	}
	if err := refresher.Refrescar(ctx); err != nil {
		log.Warn().Err(err).Msg("tasa_cron: refresh failed")
		return
	}
	log.Debug().Msg("tasa_cron: rate refreshed")
}
