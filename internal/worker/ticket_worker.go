package worker

// ticket_worker.go
// Processes receipt jobs from QueueTicket: generates the PDF ticket for a
// completed venta and, when the client has an email on file, chains an
// email job with the PDF attached.

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"venpos/internal/infra"
	"venpos/internal/money"
	"venpos/internal/repository"
)

// TicketJobPayload is the job envelope sent to QueueTicket.
type TicketJobPayload struct {
	VentaID      string  `json:"venta_id"`
	ClienteEmail *string `json:"cliente_email,omitempty"`
}

type TicketWorker struct {
	ventaRepo      repository.VentaRepository
	dispatcher     *Dispatcher
	pdfStoragePath string
	nombreNegocio  string
}

func NewTicketWorker(ventaRepo repository.VentaRepository, dispatcher *Dispatcher, pdfStoragePath, nombreNegocio string) *TicketWorker {
	return &TicketWorker{
		ventaRepo:      ventaRepo,
		dispatcher:     dispatcher,
		pdfStoragePath: pdfStoragePath,
		nombreNegocio:  nombreNegocio,
	}
}

// Process generates the PDF and chains the email job.
// A PDF failure is returned so the pool retries; an email enqueue failure is
// only logged — the receipt already exists on disk.
func (w *TicketWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload TicketJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("ticket_worker: invalid payload: %w", err)
	}

	ventaID, err := uuid.Parse(payload.VentaID)
	if err != nil {
		return fmt.Errorf("ticket_worker: invalid venta_id %q: %w", payload.VentaID, err)
	}

	venta, err := w.ventaRepo.FindByID(ctx, ventaID)
	if err != nil {
		return fmt.Errorf("ticket_worker: venta not found: %w", err)
	}

	// The rate frozen at sale time travels in the pagos; any VES entry carries it.
	tasa := decimal.Zero
	for _, pago := range venta.Pagos {
		if pago.TasaCambio.IsPositive() {
			tasa = pago.TasaCambio
			break
		}
	}

	pdfPath, err := infra.GenerateTicketPDF(venta, tasa, w.nombreNegocio, w.pdfStoragePath)
	if err != nil {
		return fmt.Errorf("ticket_worker: generate pdf: %w", err)
	}
	log.Info().Str("pdf", pdfPath).Str("venta_id", payload.VentaID).Msg("ticket_worker: PDF generated")

	if payload.ClienteEmail != nil && *payload.ClienteEmail != "" {
		emailJob := EmailJobPayload{
			ToEmail: *payload.ClienteEmail,
			Subject: fmt.Sprintf("Comprobante %s — Ticket #%d", w.nombreNegocio, venta.NumeroTicket),
			Body:    fmt.Sprintf("Adjunto encontrarás tu comprobante de compra.\nTotal: %s", money.FormatUSD(venta.TotalUSD)),
			PDFPath: pdfPath,
		}
		if err := w.dispatcher.EnqueueEmail(ctx, emailJob); err != nil {
			log.Warn().Err(err).Str("email", *payload.ClienteEmail).Msg("ticket_worker: failed to enqueue email")
		}
	}
	return nil
}
