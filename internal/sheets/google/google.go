// Package google exports record snapshots to a Google Sheet so the
// dataset can be inspected and annotated outside the dashboard.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"chefsight/internal/core"
	ports "chefsight/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ ports.RecordWriter = (*Client)(nil)

var header = []any{
	"date", "store", "item", "total_cost", "units", "unit_type", "calculated_cost_per_unit", "category",
}

// NewFromEnv creates a Sheets client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID. Auth comes from
// GOOGLE_CREDENTIALS_JSON when set, otherwise application default
// credentials. GOOGLE_SHEET_NAME defaults to "Expenses".
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	sheetName := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if sheetName == "" {
		sheetName = "Expenses"
	}

	opts := []goption.ClientOption{goption.WithScopes(gsheet.SpreadsheetsScope)}
	if credsJSON := os.Getenv("GOOGLE_CREDENTIALS_JSON"); credsJSON != "" {
		opts = append(opts, goption.WithCredentialsJSON([]byte(credsJSON)))
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

// WriteRecords clears the configured sheet and writes the snapshot as
// a header row plus one row per record, matching the CSV source layout.
func (c *Client) WriteRecords(ctx context.Context, records []core.ExpenseRecord) error {
	clearRange := c.sheetName

	_, err := c.svc.Spreadsheets.Values.
		Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear sheet %s: %w", c.sheetName, err)
	}

	values := make([][]any, 0, len(records)+1)
	values = append(values, header)
	for _, r := range records {
		values = append(values, []any{
			r.Date.Format("2006-01-02"),
			r.Store,
			r.Item,
			formatCents(r.TotalCost.Cents),
			r.Units,
			r.UnitType,
			formatCents(r.CostPerUnit.Cents),
			r.Category,
		})
	}

	_, err = c.svc.Spreadsheets.Values.
		Update(c.spreadsheetID, c.sheetName+"!A1", &gsheet.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write %d rows to sheet %s: %w", len(values), c.sheetName, err)
	}

	slog.InfoContext(ctx, "Exported record snapshot to Google Sheets",
		"spreadsheet_id", c.spreadsheetID,
		"sheet", c.sheetName,
		"rows", len(records))

	return nil
}

func formatCents(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	s := strconv.FormatInt(cents/100, 10) + "." + fmt.Sprintf("%02d", cents%100)
	if neg {
		return "-" + s
	}
	return s
}
