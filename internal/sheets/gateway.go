package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/clientmailer/clientmailer/internal/config"
	"github.com/clientmailer/clientmailer/internal/logger"
	"github.com/clientmailer/clientmailer/internal/metrics"
)

// valueInputUserEntered makes the provider parse written strings as if typed into the UI,
// so "05/3/2024 10:00:00" becomes a date cell.
const valueInputUserEntered = "USER_ENTERED"

// Gateway reads and writes cell ranges of one sheet inside one spreadsheet.
// It holds a single authenticated client configured at process start.
type Gateway struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
	boundingRange string
	metrics       *metrics.Metrics
	log           *logger.Logger
}

// NewGateway authenticates with a service account key and returns a Gateway.
func NewGateway(ctx context.Context, cfg config.SheetsConfig, m *metrics.Metrics, log *logger.Logger) (*Gateway, error) {
	creds := []byte(cfg.CredentialsJSON)
	if len(creds) == 0 {
		if cfg.CredentialsFile == "" {
			return nil, fmt.Errorf("sheets: credentials are required")
		}
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("sheets: failed to read credentials file: %w", err)
		}
		creds = data
	}

	jwtConfig, err := google.JWTConfigFromJSON(creds, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("sheets: failed to parse credentials: %w", err)
	}

	svc, err := sheets.NewService(ctx, option.WithHTTPClient(jwtConfig.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("sheets: failed to create service: %w", err)
	}

	return NewGatewayWithService(svc, cfg, m, log), nil
}

// NewGatewayWithService wraps an already constructed Sheets service.
func NewGatewayWithService(svc *sheets.Service, cfg config.SheetsConfig, m *metrics.Metrics, log *logger.Logger) *Gateway {
	bounding := cfg.BoundingRange
	if bounding == "" {
		bounding = "A1:Z1000"
	}
	return &Gateway{
		service:       svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     cfg.SheetName,
		boundingRange: bounding,
		metrics:       m,
		log:           log.WithComponent("sheets_gateway"),
	}
}

// SheetName returns the sheet the gateway reads and writes
func (g *Gateway) SheetName() string {
	return g.sheetName
}

// ReadAll fetches every row inside the bounding range, header rows included.
// Rows past the bounding range are not returned.
func (g *Gateway) ReadAll(ctx context.Context) ([][]string, error) {
	return g.read(ctx, "read_all", fmt.Sprintf("%s!%s", g.sheetName, g.boundingRange))
}

// ReadRange fetches the cells of addr.
func (g *Gateway) ReadRange(ctx context.Context, addr RangeAddress) ([][]string, error) {
	rng, err := BuildRange(g.sheetName, addr)
	if err != nil {
		return nil, err
	}
	return g.read(ctx, "read_range", rng)
}

// WriteRange overwrites the cells of addr with values. The provider either applies the
// whole grid or nothing.
func (g *Gateway) WriteRange(ctx context.Context, addr RangeAddress, values [][]string) error {
	rng, err := BuildRange(g.sheetName, addr)
	if err != nil {
		return err
	}
	if len(values) == 0 {
		return fmt.Errorf("%w: no values to write into %s", ErrInvalidAddress, rng)
	}

	grid := make([][]interface{}, len(values))
	for i, row := range values {
		grid[i] = make([]interface{}, len(row))
		for j, cell := range row {
			grid[i][j] = cell
		}
	}

	_, err = g.service.Spreadsheets.Values.
		Update(g.spreadsheetID, rng, &sheets.ValueRange{Range: rng, Values: grid}).
		ValueInputOption(valueInputUserEntered).
		Context(ctx).
		Do()
	g.metrics.IncSheetRequest("write_range", err)
	if err != nil {
		g.log.Error().Err(err).Str("range", rng).Msg("failed to write sheet range")
		return &UpstreamError{Op: "write " + rng, Err: err}
	}

	g.log.Debug().Str("range", rng).Int("rows", len(values)).Msg("wrote sheet range")
	return nil
}

func (g *Gateway) read(ctx context.Context, op, rng string) ([][]string, error) {
	resp, err := g.service.Spreadsheets.Values.Get(g.spreadsheetID, rng).Context(ctx).Do()
	g.metrics.IncSheetRequest(op, err)
	if err != nil {
		g.log.Error().Err(err).Str("range", rng).Msg("failed to fetch sheet data")
		return nil, &UpstreamError{Op: "read " + rng, Err: err}
	}
	if resp == nil {
		return nil, &UpstreamError{Op: "read " + rng, Err: errors.New("empty response")}
	}

	rows := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		rows[i] = make([]string, len(row))
		for j, cell := range row {
			rows[i][j] = cellString(cell)
		}
	}

	g.log.Debug().Str("range", rng).Int("rows", len(rows)).Msg("fetched sheet data")
	return rows, nil
}

func cellString(v interface{}) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	default:
		return fmt.Sprint(c)
	}
}
