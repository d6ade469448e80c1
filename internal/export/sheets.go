// Package export appends finance records to a Google Sheets
// spreadsheet. The sheet is an append-only backup, never read back.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"plata/internal/core"

	"google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// RecordWriter is what the export worker needs from a sheet backend.
type RecordWriter interface {
	AppendTransaction(ctx context.Context, t core.Transaction) error
	AppendPurchase(ctx context.Context, p core.BitcoinPurchase) error
}

// SheetsClient writes records to one spreadsheet using a service
// account credentials file.
type SheetsClient struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ RecordWriter = (*SheetsClient)(nil)

func NewSheetsClient(ctx context.Context, spreadsheetID, sheetName, credentialsFile string) (*SheetsClient, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("missing spreadsheet id")
	}
	if sheetName == "" {
		sheetName = "Registros"
	}

	svc, err := gsheet.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &SheetsClient{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

func (c *SheetsClient) AppendTransaction(ctx context.Context, t core.Transaction) error {
	category := t.CategoryName
	if category == "" {
		category = "Sin categoría"
	}
	row := []any{
		t.Date,
		t.Title,
		string(t.Type),
		string(t.PaymentMethod),
		t.Amount,
		category,
	}
	return c.appendRow(ctx, "transaction", t.ID, row)
}

func (c *SheetsClient) AppendPurchase(ctx context.Context, p core.BitcoinPurchase) error {
	row := []any{
		p.PurchaseTime.Format("2006-01-02 15:04:05"),
		"bitcoin",
		p.InvestedValue,
		p.BitcoinPrice,
		p.USDCOPRate,
		strconv.FormatFloat(p.BitcoinAmount(), 'f', 8, 64),
	}
	return c.appendRow(ctx, "purchase", p.ID, row)
}

func (c *SheetsClient) appendRow(ctx context.Context, kind string, id int64, row []any) error {
	vr := &gsheet.ValueRange{Values: [][]any{row}}

	_, err := c.svc.Spreadsheets.Values.
		Append(c.spreadsheetID, c.sheetName+"!A:F", vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append %s row: %w", kind, err)
	}

	slog.InfoContext(ctx, "Record appended to spreadsheet",
		"kind", kind,
		"id", id,
		"sheet", c.sheetName)
	return nil
}
