// Package sheets is a thin Google Sheets values client used for lead exports.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Value input modes accepted by the Sheets API
const (
	InputRaw         = "RAW"
	InputUserEntered = "USER_ENTERED"
)

var errNoService = errors.New("sheets: service is nil")

type Client struct {
	service    *sheets.Service
	valueInput string
}

type Config struct {
	CredentialsPath string
	CredentialsJSON []byte
	// ValueInput defaults to USER_ENTERED so scores land as numbers
	ValueInput string
}

func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	var opt option.ClientOption
	switch {
	case cfg.CredentialsPath != "":
		opt = option.WithCredentialsFile(cfg.CredentialsPath)
	case len(cfg.CredentialsJSON) > 0:
		opt = option.WithCredentialsJSON(cfg.CredentialsJSON)
	default:
		return nil, fmt.Errorf("sheets: credentials path or JSON is required")
	}

	service, err := sheets.NewService(ctx, opt, option.WithScopes(sheets.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("sheets: failed to create service: %w", err)
	}

	input := cfg.ValueInput
	if input == "" {
		input = InputUserEntered
	}
	return &Client{service: service, valueInput: input}, nil
}

// EnsureTab adds a tab named title unless the spreadsheet already has one.
// It reports whether the tab was created.
func (c *Client) EnsureTab(ctx context.Context, spreadsheetID, title string) (bool, error) {
	if c.service == nil {
		return false, errNoService
	}

	doc, err := c.service.Spreadsheets.Get(spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return false, fmt.Errorf("sheets: get spreadsheet: %w", err)
	}
	for _, s := range doc.Sheets {
		if s.Properties != nil && strings.EqualFold(s.Properties.Title, title) {
			return false, nil
		}
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: title},
			},
		}},
	}
	if _, err := c.service.Spreadsheets.BatchUpdate(spreadsheetID, req).Context(ctx).Do(); err != nil {
		return false, fmt.Errorf("sheets: add tab %q: %w", title, err)
	}
	return true, nil
}

// AppendRows appends after the last row of the table at rng and returns the
// number of rows the API reports as written
func (c *Client) AppendRows(ctx context.Context, spreadsheetID, rng string, rows [][]any) (int, error) {
	if c.service == nil {
		return 0, errNoService
	}

	resp, err := c.service.Spreadsheets.Values.Append(spreadsheetID, rng, &sheets.ValueRange{Values: rows}).
		ValueInputOption(c.valueInput).
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return 0, err
	}
	if resp.Updates == nil {
		return len(rows), nil
	}
	return int(resp.Updates.UpdatedRows), nil
}

// WriteRows overwrites cells starting at rng
func (c *Client) WriteRows(ctx context.Context, spreadsheetID, rng string, rows [][]any) (int, error) {
	if c.service == nil {
		return 0, errNoService
	}

	resp, err := c.service.Spreadsheets.Values.Update(spreadsheetID, rng, &sheets.ValueRange{Values: rows}).
		ValueInputOption(c.valueInput).
		Context(ctx).
		Do()
	if err != nil {
		return 0, err
	}
	return int(resp.UpdatedRows), nil
}

func (c *Client) Clear(ctx context.Context, spreadsheetID, rng string) error {
	if c.service == nil {
		return errNoService
	}
	_, err := c.service.Spreadsheets.Values.Clear(spreadsheetID, rng, &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}
