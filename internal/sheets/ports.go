package sheets

import (
	"context"

	"phambili/internal/core"
)

// Ports for outbound adapters.
type (
	// RowSource reads raw spreadsheet rows for import. The first row is
	// expected to be a header.
	RowSource interface {
		ReadRows(ctx context.Context) ([][]interface{}, error)
	}

	// SnapshotAppender records a user's monthly snapshot on an external sheet.
	SnapshotAppender interface {
		AppendSnapshot(ctx context.Context, userID string, snap core.MonthlySnapshot) (rowRef string, err error)
	}
)
