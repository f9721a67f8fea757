package service

import (
	"context"
	"fmt"

	"github.com/clientmailer/clientmailer/internal/logger"
	"github.com/clientmailer/clientmailer/internal/roster"
)

// ClientService exposes the roster read-only.
type ClientService struct {
	gateway    RosterGateway
	decoder    *roster.Decoder
	headerRows int
	log        *logger.Logger
}

// NewClientService creates a new ClientService.
func NewClientService(gateway RosterGateway, decoder *roster.Decoder, headerRows int, log *logger.Logger) *ClientService {
	return &ClientService{
		gateway:    gateway,
		decoder:    decoder,
		headerRows: headerRows,
		log:        log.WithComponent("client_service"),
	}
}

// List returns every client in sheet order.
func (s *ClientService) List(ctx context.Context) ([]roster.Client, error) {
	snap, err := readSnapshot(ctx, s.gateway, s.decoder, s.headerRows)
	if err != nil {
		return nil, err
	}
	s.log.Debug().Int("clients", len(snap.Clients)).Msg("roster listed")
	return snap.Clients, nil
}

func readSnapshot(ctx context.Context, gateway RosterGateway, decoder *roster.Decoder, headerRows int) (*roster.Snapshot, error) {
	rows, err := gateway.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster: %w", err)
	}
	return decoder.NewSnapshot(rows, headerRows), nil
}
