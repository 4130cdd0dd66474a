package sheets

import (
	"context"
	"fmt"
	"strings"

	"festreg/internal/export"
)

// RegistrationIDs returns the registration IDs already present in the sheet.
func (c *Client) RegistrationIDs(ctx context.Context) (map[string]bool, error) {
	srv, err := c.service()
	if err != nil {
		return nil, err
	}
	col := column(export.ColRegistrationID)
	values, err := c.readAll(ctx, srv, col+":"+col)
	if err != nil {
		return nil, fmt.Errorf("read registration ids: %w", err)
	}
	out := map[string]bool{}
	for i := 1; i < len(values); i++ {
		id := strings.TrimSpace(get(values[i], 0))
		if id == "" {
			continue
		}
		out[id] = true
	}
	return out, nil
}
