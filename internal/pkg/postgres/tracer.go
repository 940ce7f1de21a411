package postgres

import (
	"context"
	"time"

	"github.com/bissquit/shop-subscriptions/internal/pkg/ctxlog"
	"github.com/jackc/pgx/v5"
)

type queryStartKey struct{}

type queryStart struct {
	sql   string
	start time.Time
}

// slowQueryTracer logs statements that take longer than threshold with the
// logger of the calling request or task.
type slowQueryTracer struct {
	threshold time.Duration
}

func (t *slowQueryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, queryStartKey{}, queryStart{sql: data.SQL, start: time.Now()})
}

func (t *slowQueryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	qs, ok := ctx.Value(queryStartKey{}).(queryStart)
	if !ok {
		return
	}

	elapsed := time.Since(qs.start)
	if elapsed < t.threshold {
		return
	}

	ctxlog.FromContext(ctx).Warn("slow query",
		"duration_ms", elapsed.Milliseconds(),
		"rows", data.CommandTag.RowsAffected(),
		"sql", qs.sql,
		"error", data.Err,
	)
}
