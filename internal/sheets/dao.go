package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	sheetsv4 "google.golang.org/api/sheets/v4"

	"festreg/internal/export"
	"festreg/internal/models"
)

func (c *Client) rangeOf(a1 string) string {
	return "'" + strings.ReplaceAll(c.sheet, "'", "''") + "'!" + a1
}

func (c *Client) allColumns() string {
	return "A:" + column(len(export.Columns)-1)
}

func (c *Client) readAll(ctx context.Context, srv *sheetsv4.Service, a1 string) ([][]interface{}, error) {
	resp, err := srv.Spreadsheets.Values.Get(c.spreadsheetID, c.rangeOf(a1)).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (c *Client) updateRange(ctx context.Context, srv *sheetsv4.Service, a1 string, row []interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	vr := &sheetsv4.ValueRange{Values: [][]interface{}{row}}
	_, err := srv.Spreadsheets.Values.Update(c.spreadsheetID, c.rangeOf(a1), vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}

// ensureHeader writes the header into an empty sheet. A different existing
// header is only reported.
func (c *Client) ensureHeader(ctx context.Context, srv *sheetsv4.Service) error {
	values, err := c.readAll(ctx, srv, "1:1")
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if len(values) == 0 || len(values[0]) == 0 {
		if err := c.updateRange(ctx, srv, "A1", cells(export.Columns)); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		return nil
	}

	got := make([]string, len(values[0]))
	for i := range values[0] {
		got[i] = get(values[0], i)
	}
	if strings.Join(got, "|") != strings.Join(export.Columns, "|") {
		c.logger.WarnContext(ctx, "Sheet header does not match expected columns",
			slog.String("sheet", c.sheet),
			slog.Any("expected", export.Columns),
			slog.Any("found", got))
	}
	return nil
}

// AppendRow appends one row and returns its 1-based sheet row number.
func (c *Client) AppendRow(ctx context.Context, row []string) (int, error) {
	srv, err := c.service()
	if err != nil {
		return 0, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	vr := &sheetsv4.ValueRange{Values: [][]interface{}{cells(row)}}
	resp, err := srv.Spreadsheets.Values.Append(c.spreadsheetID, c.rangeOf(c.allColumns()), vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return 0, fmt.Errorf("append row: %w", err)
	}
	if resp.Updates == nil {
		return 0, nil
	}
	return rowNumber(resp.Updates.UpdatedRange), nil
}

// UpdatePaymentStatus rewrites the PaymentStatus cell of the row holding
// registrationID.
func (c *Client) UpdatePaymentStatus(ctx context.Context, registrationID string, status models.PaymentStatus) error {
	srv, err := c.service()
	if err != nil {
		return err
	}
	values, err := c.readAll(ctx, srv, c.allColumns())
	if err != nil {
		return fmt.Errorf("read rows: %w", err)
	}
	// header row at index 0
	for i := 1; i < len(values); i++ {
		if get(values[i], export.ColRegistrationID) == registrationID {
			a1 := fmt.Sprintf("%s%d", column(export.ColPaymentStatus), i+1)
			return c.updateRange(ctx, srv, a1, []interface{}{string(status)})
		}
	}
	return fmt.Errorf("registration %s not found in sheet", registrationID)
}

func cells(row []string) []interface{} {
	out := make([]interface{}, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out
}

func get(row []interface{}, idx int) string {
	if idx < 0 || idx >= len(row) || row[idx] == nil {
		return ""
	}
	return fmt.Sprint(row[idx])
}

// column converts a 0-based index to its letter. The layout stays under 26
// columns.
func column(idx int) string {
	return string(rune('A' + idx))
}

// rowNumber extracts the first row number from an A1 range such as
// "'Registrations'!A7:M7".
func rowNumber(a1 string) int {
	if i := strings.LastIndex(a1, "!"); i >= 0 {
		a1 = a1[i+1:]
	}
	if i := strings.Index(a1, ":"); i >= 0 {
		a1 = a1[:i]
	}
	digits := strings.TrimLeft(a1, "ABCDEFGHIJKLMNOPQRSTUVWXYZ$")
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}
