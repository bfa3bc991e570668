// ABOUTME: Adapter that records dispatcher tool calls in the audit store
// ABOUTME: Converts tools.Record values into store.ToolCall rows

package gateway

import (
	"context"

	"gorm.io/datatypes"

	"github.com/satriotsubasa/dataverse-mcp/internal/store"
	"github.com/satriotsubasa/dataverse-mcp/internal/tools"
)

type auditRecorder struct {
	store *store.Store
}

func (a *auditRecorder) RecordToolCall(ctx context.Context, rec tools.Record) error {
	return a.store.AppendToolCall(ctx, &store.ToolCall{
		RequestID:    rec.RequestID,
		Tool:         rec.Tool,
		Arguments:    datatypes.JSON(rec.Arguments),
		DurationMS:   rec.Duration.Milliseconds(),
		Cached:       rec.Cached,
		ErrorCode:    rec.ErrorCode,
		ErrorMessage: rec.ErrorMessage,
	})
}
