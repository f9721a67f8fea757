package service

import (
	"context"

	"github.com/clientmailer/clientmailer/internal/model"
	"github.com/clientmailer/clientmailer/internal/sheets"
)

// TemplateStore persists uploaded templates. FindByID and Delete return
// repository.ErrNotFound for unknown ids.
type TemplateStore interface {
	Create(ctx context.Context, tpl *model.EmailTemplate) error
	FindAll(ctx context.Context) ([]*model.EmailTemplate, error)
	FindByID(ctx context.Context, id string) (*model.EmailTemplate, error)
	Delete(ctx context.Context, id string) error
}

// RosterGateway is the spreadsheet holding the client roster.
type RosterGateway interface {
	SheetName() string
	ReadAll(ctx context.Context) ([][]string, error)
	ReadRange(ctx context.Context, addr sheets.RangeAddress) ([][]string, error)
	WriteRange(ctx context.Context, addr sheets.RangeAddress, values [][]string) error
}
