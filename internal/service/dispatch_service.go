package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/clientmailer/clientmailer/internal/config"
	"github.com/clientmailer/clientmailer/internal/email"
	"github.com/clientmailer/clientmailer/internal/logger"
	"github.com/clientmailer/clientmailer/internal/metrics"
	"github.com/clientmailer/clientmailer/internal/render"
	"github.com/clientmailer/clientmailer/internal/repository"
	"github.com/clientmailer/clientmailer/internal/roster"
	"github.com/clientmailer/clientmailer/internal/sheets"
)

// Dispatch errors
var (
	ErrTemplateNotFound = errors.New("email template not found")
	ErrInvalidDispatch  = errors.New("invalid dispatch request")
)

// Delivery is the mail provider's verdict for one recipient.
type Delivery string

const (
	DeliveryOK     Delivery = "ok"
	DeliveryFailed Delivery = "failed"
)

// WriteBack is what happened to the recipient's roster row after delivery.
type WriteBack string

const (
	WriteBackOK             WriteBack = "ok"
	WriteBackFailed         WriteBack = "failed"
	WriteBackClientNotFound WriteBack = "client_not_found"
	WriteBackRowMismatch    WriteBack = "row_mismatch"
	WriteBackSkipped        WriteBack = "skipped"
)

// DispatchRequest asks for one template to be sent to a list of recipients.
type DispatchRequest struct {
	Subject         string
	TemplateID      string
	RecipientEmails []string
}

// SendOutcome is the per-recipient result of a dispatch.
type SendOutcome struct {
	Email     string    `json:"email"`
	Delivery  Delivery  `json:"delivery"`
	WriteBack WriteBack `json:"writeBack"`
	Row       int       `json:"row,omitempty"`
	MessageID string    `json:"messageId,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// DispatchResult aggregates the outcomes of one dispatch.
type DispatchResult struct {
	Outcomes    []SendOutcome `json:"outcomes"`
	Delivered   int           `json:"delivered"`
	Failed      int           `json:"failed"`
	WrittenBack int           `json:"writtenBack"`
}

// DispatchService sends a template to a set of clients and records the send in the
// roster sheet.
type DispatchService struct {
	templates         TemplateStore
	gateway           RosterGateway
	sender            email.BatchSender
	decoder           *roster.Decoder
	headerRows        int
	verifyRowIdentity bool
	metrics           *metrics.Metrics
	log               *logger.Logger
	now               func() time.Time
}

// NewDispatchService creates a new DispatchService.
func NewDispatchService(
	templates TemplateStore,
	gateway RosterGateway,
	sender email.BatchSender,
	decoder *roster.Decoder,
	cfg *config.Config,
	m *metrics.Metrics,
	log *logger.Logger,
) *DispatchService {
	return &DispatchService{
		templates:         templates,
		gateway:           gateway,
		sender:            sender,
		decoder:           decoder,
		headerRows:        cfg.Sheets.HeaderRows,
		verifyRowIdentity: cfg.Dispatch.VerifyRowIdentity,
		metrics:           m,
		log:               log.WithComponent("dispatch_service"),
		now:               time.Now,
	}
}

// Dispatch renders the template for every recipient, sends all messages in one batch and
// then marks each delivered recipient's roster row as SENT.
//
// An error is returned only when nothing was sent. Once the batch is accepted, roster
// problems are reported per recipient in the result.
func (s *DispatchService) Dispatch(ctx context.Context, req DispatchRequest) (result *DispatchResult, err error) {
	start := time.Now()
	defer func() {
		s.metrics.IncDispatch(err, time.Since(start).Seconds())
	}()

	recipients, err := normalizeRecipients(req)
	if err != nil {
		return nil, err
	}

	tpl, err := s.templates.FindByID(ctx, req.TemplateID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, req.TemplateID)
		}
		return nil, fmt.Errorf("failed to load template: %w", err)
	}
	if err := render.Validate(tpl.TemplateContent); err != nil {
		return nil, err
	}

	msgs := s.renderMessages(ctx, tpl.TemplateContent, req.Subject, recipients)

	results, err := s.sender.SendBatch(ctx, msgs)
	if err != nil {
		s.log.Error().Err(err).Int("recipients", len(msgs)).Msg("batch send failed")
		return nil, fmt.Errorf("%w: %w", sheets.ErrUpstreamUnavailable, err)
	}

	result = &DispatchResult{Outcomes: deliveryOutcomes(recipients, results)}
	s.writeBack(ctx, result.Outcomes)

	for i := range result.Outcomes {
		o := &result.Outcomes[i]
		switch {
		case o.Delivery == DeliveryFailed:
			result.Failed++
			s.metrics.IncRecipientOutcome("delivery_failed")
		default:
			result.Delivered++
			if o.WriteBack == WriteBackOK {
				result.WrittenBack++
			}
			s.metrics.IncRecipientOutcome("write_back_" + string(o.WriteBack))
		}
		s.log.DispatchOutcome(o.Email, string(o.Delivery), string(o.WriteBack), o.Row, o.Error)
	}

	s.log.Info().
		Str("template_id", tpl.ID).
		Int("delivered", result.Delivered).
		Int("failed", result.Failed).
		Int("written_back", result.WrittenBack).
		Msg("dispatch completed")
	return result, nil
}

// renderMessages personalizes the template. Names and ids come from a best-effort roster
// read; without it only the email variable is filled.
func (s *DispatchService) renderMessages(ctx context.Context, content, subject string, recipients []string) []email.Message {
	snap, err := readSnapshot(ctx, s.gateway, s.decoder, s.headerRows)
	if err != nil {
		s.log.Warn().Err(err).Msg("roster unavailable for personalization, using email only")
	}

	msgs := make([]email.Message, len(recipients))
	for i, addr := range recipients {
		vars := render.RecipientVars(addr, "", "")
		if snap != nil {
			if c, _, ok := snap.Lookup(addr); ok {
				vars = render.RecipientVars(addr, c.Name, c.ID)
			}
		}
		msgs[i] = email.Message{
			To:       addr,
			Subject:  subject,
			HTMLBody: render.Render(content, vars),
		}
	}
	return msgs
}

func deliveryOutcomes(recipients []string, results []email.Result) []SendOutcome {
	outcomes := make([]SendOutcome, len(recipients))
	for i, addr := range recipients {
		o := SendOutcome{Email: addr, Delivery: DeliveryOK, WriteBack: WriteBackSkipped}
		switch {
		case i >= len(results):
			o.Delivery = DeliveryFailed
			o.Error = "no delivery result reported"
		case !results[i].OK():
			o.Delivery = DeliveryFailed
			o.Error = results[i].Err.Error()
		default:
			o.MessageID = results[i].MessageID
		}
		outcomes[i] = o
	}
	return outcomes
}

// writeBack reads the roster once and updates the row of every delivered recipient.
// A failed write is recorded on its outcome and never stops the loop.
func (s *DispatchService) writeBack(ctx context.Context, outcomes []SendOutcome) {
	pending := 0
	for _, o := range outcomes {
		if o.Delivery == DeliveryOK {
			pending++
		}
	}
	if pending == 0 {
		return
	}

	snap, err := readSnapshot(ctx, s.gateway, s.decoder, s.headerRows)
	if err != nil {
		s.log.Error().Err(err).Msg("roster unavailable for write-back")
		for i := range outcomes {
			if outcomes[i].Delivery == DeliveryOK {
				outcomes[i].WriteBack = WriteBackFailed
				outcomes[i].Error = err.Error()
			}
		}
		return
	}
	if dups := snap.Duplicates(); len(dups) > 0 {
		s.log.Warn().Strs("emails", dups).Msg("roster has duplicate emails, first row wins")
	}

	stamp := [][]string{{s.decoder.FormatTimestamp(s.now()), string(roster.StatusSent)}}
	for i := range outcomes {
		if outcomes[i].Delivery == DeliveryOK {
			s.writeRow(ctx, snap, stamp, &outcomes[i])
		}
	}
}

func (s *DispatchService) writeRow(ctx context.Context, snap *roster.Snapshot, stamp [][]string, o *SendOutcome) {
	client, row, ok := snap.Lookup(o.Email)
	if !ok {
		o.WriteBack = WriteBackClientNotFound
		return
	}
	o.Row = row

	if s.verifyRowIdentity {
		cells, err := s.gateway.ReadRange(ctx, sheets.Cell(int(roster.ColumnID), row))
		if err != nil {
			o.WriteBack = WriteBackFailed
			o.Error = err.Error()
			return
		}
		var got string
		if len(cells) > 0 && len(cells[0]) > 0 {
			got = cells[0][0]
		}
		if got != client.ID {
			o.WriteBack = WriteBackRowMismatch
			o.Error = fmt.Sprintf("row %d holds id %q, expected %q", row, got, client.ID)
			return
		}
	}

	addr := sheets.Span(int(roster.ColumnLastEmailSentDate), row, int(roster.ColumnLastEmailSentStatus), row)
	if err := s.gateway.WriteRange(ctx, addr, stamp); err != nil {
		o.WriteBack = WriteBackFailed
		o.Error = err.Error()
		return
	}
	o.WriteBack = WriteBackOK
}

// normalizeRecipients checks the request and collapses duplicate recipients, keeping the
// first occurrence.
func normalizeRecipients(req DispatchRequest) ([]string, error) {
	if strings.TrimSpace(req.Subject) == "" {
		return nil, fmt.Errorf("%w: subject is required", ErrInvalidDispatch)
	}
	if len(req.RecipientEmails) == 0 {
		return nil, fmt.Errorf("%w: at least one recipient is required", ErrInvalidDispatch)
	}

	seen := make(map[string]bool, len(req.RecipientEmails))
	recipients := make([]string, 0, len(req.RecipientEmails))
	for _, addr := range req.RecipientEmails {
		addr = strings.TrimSpace(addr)
		parsed, err := mail.ParseAddress(addr)
		if err != nil || parsed.Address != addr {
			return nil, fmt.Errorf("%w: %q is not an email address", ErrInvalidDispatch, addr)
		}
		if seen[addr] {
			continue
		}
		seen[addr] = true
		recipients = append(recipients, addr)
	}
	return recipients, nil
}
