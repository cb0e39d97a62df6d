package obs

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const maxStatementLen = 300

// PGXTracer opens a client span per query. Spans are named after the sqlc
// query ("db.GetCandy") when the statement carries a "-- name:" header.
type PGXTracer struct{}

func (PGXTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	name, op := queryName(data.SQL)
	ctx, _ = otel.Tracer("db.pgx").Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", op),
			attribute.String("db.statement", clip(data.SQL, maxStatementLen)),
		),
	)
	return ctx
}

func (PGXTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	if data.Err != nil {
		span.RecordError(data.Err)
		span.SetStatus(codes.Error, "query failed")
	} else {
		span.SetAttributes(attribute.Int64("db.rows_affected", data.CommandTag.RowsAffected()))
	}
	span.End()
}

// queryName returns the span name and the SQL verb for a statement.
func queryName(sql string) (string, string) {
	sql = strings.TrimSpace(sql)
	name := ""
	if rest, ok := strings.CutPrefix(sql, "-- name:"); ok {
		line, body, _ := strings.Cut(rest, "\n")
		if fields := strings.Fields(line); len(fields) > 0 {
			name = fields[0]
		}
		sql = strings.TrimSpace(body)
	}
	op := ""
	if fields := strings.Fields(sql); len(fields) > 0 {
		op = strings.ToUpper(fields[0])
	}
	switch {
	case name != "":
		return "db." + name, op
	case op != "":
		return "pgx." + strings.ToLower(op), op
	default:
		return "pgx.query", op
	}
}

func clip(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
