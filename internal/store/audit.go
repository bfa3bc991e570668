// ABOUTME: ToolCall audit model and store methods for recording MCP tool calls.
// ABOUTME: Records which tool ran with which arguments, how long it took and how it ended.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ToolCall is a single audit entry.
type ToolCall struct {
	ID           string         `gorm:"primaryKey;type:varchar(36)"`
	RequestID    string         `gorm:"type:varchar(36);index"`
	Tool         string         `gorm:"type:varchar(100);index;not null"`
	Arguments    datatypes.JSON `gorm:"type:json"`
	DurationMS   int64
	Cached       bool      `gorm:"default:false"`
	ErrorCode    int       `gorm:"default:0"`
	ErrorMessage string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"index"`
}

// Failed reports whether the call ended with an error.
func (c ToolCall) Failed() bool {
	return c.ErrorCode != 0
}

// ToolCallFilter specifies filtering options for listing tool calls.
type ToolCallFilter struct {
	Tool       string     // exact tool name
	Since      *time.Time // calls at or after this time
	FailedOnly bool       // only calls that returned an error
	Limit      int        // max results (default 100, max 1000)
}

// AppendToolCall records a tool call. ID and CreatedAt are generated if unset.
func (s *Store) AppendToolCall(ctx context.Context, c *ToolCall) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if len(c.Arguments) == 0 {
		c.Arguments = datatypes.JSON("{}")
	} else if !json.Valid(c.Arguments) {
		return fmt.Errorf("tool call arguments are not valid JSON")
	}

	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("inserting tool call: %w", err)
	}

	s.logger.Debug("appended tool call",
		"id", c.ID,
		"tool", c.Tool,
		"cached", c.Cached,
		"error_code", c.ErrorCode,
	)
	return nil
}

// GetToolCall returns a single tool call by ID.
func (s *Store) GetToolCall(ctx context.Context, id string) (*ToolCall, error) {
	var c ToolCall
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting tool call: %w", err)
	}
	return &c, nil
}

// normalizeLimit applies default (100) and cap (1000) to a list limit.
func normalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return 100
	case limit > 1000:
		return 1000
	default:
		return limit
	}
}

// ListToolCalls returns tool calls matching the filter, newest first.
func (s *Store) ListToolCalls(ctx context.Context, f ToolCallFilter) ([]ToolCall, error) {
	q := s.db.WithContext(ctx).Model(&ToolCall{})
	if f.Tool != "" {
		q = q.Where("tool = ?", f.Tool)
	}
	if f.Since != nil {
		q = q.Where("created_at >= ?", f.Since.UTC())
	}
	if f.FailedOnly {
		q = q.Where("error_code <> 0")
	}

	var calls []ToolCall
	if err := q.Order("created_at DESC").Limit(normalizeLimit(f.Limit)).Find(&calls).Error; err != nil {
		return nil, fmt.Errorf("querying tool calls: %w", err)
	}
	return calls, nil
}

// ToolStat summarises calls to one tool.
type ToolStat struct {
	Tool     string `json:"tool"`
	Calls    int64  `json:"calls"`
	Failures int64  `json:"failures"`
	CacheHit int64  `json:"cacheHits"`
}

// ToolStats aggregates call counts per tool, ordered by tool name.
func (s *Store) ToolStats(ctx context.Context) ([]ToolStat, error) {
	var stats []ToolStat
	err := s.db.WithContext(ctx).Model(&ToolCall{}).
		Select("tool, COUNT(*) AS calls, " +
			"SUM(CASE WHEN error_code <> 0 THEN 1 ELSE 0 END) AS failures, " +
			"SUM(CASE WHEN cached THEN 1 ELSE 0 END) AS cache_hit").
		Group("tool").
		Order("tool").
		Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("aggregating tool calls: %w", err)
	}
	return stats, nil
}
