// Package query implements the safe query gate: model-written SQL is parsed,
// checked against a fixed allow-list, capped, re-rendered and only then run
// against the store on a read-only connection.
package query

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/jmehdipour/crm-tools/internal/apperr"
	"github.com/jmehdipour/crm-tools/internal/db"
	"github.com/jmehdipour/crm-tools/internal/metrics"
	"github.com/jmehdipour/crm-tools/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/rqlite/sql"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	msgInvalidSyntax = "Invalid SQL syntax"
	msgSingleSelect  = "Only a single SELECT statement is allowed"
	msgNoTable       = "Query must reference the allowed table"
)

var tracer = otel.Tracer("github.com/jmehdipour/crm-tools/internal/query")

// Plan is a validated statement ready to run.
type Plan struct {
	SQL       string   // canonical text; the only thing ever executed
	Tables    []string // sorted, lower-cased
	Columns   []string // sorted, lower-cased
	Functions []string
	Capped    bool // the default limit was injected
}

type Gate struct {
	db     *sqlx.DB
	policy Policy
	log    *zap.Logger
}

func NewGate(conn *sqlx.DB, policy Policy, log *zap.Logger) *Gate {
	if log == nil {
		log = zap.NewNop()
	}
	if policy.DefaultLimit <= 0 {
		policy.DefaultLimit = DefaultPolicy().DefaultLimit
	}
	return &Gate{db: conn, policy: policy, log: log}
}

// Prepare validates raw and returns its canonical form without touching the store.
// table is advisory: when set it must be allowed, and a statement that does
// not reference it is only logged.
func (g *Gate) Prepare(table, raw string) (*Plan, error) {
	sel, refs, err := g.check(table, raw)
	if err != nil {
		return nil, err
	}

	capped := false
	if sel.LimitExpr == nil {
		sel.LimitExpr = &sql.NumberLit{Value: strconv.Itoa(g.policy.DefaultLimit)}
		capped = true
	}
	canonical := sel.String()

	// what runs is re-validated, not trusted from the rewrite
	again, _, err := g.check(table, canonical)
	if err != nil {
		g.log.Warn("canonical sql failed re-validation", zap.String("sql", canonical), zap.Error(err))
		return nil, err
	}
	if again.LimitExpr == nil {
		return nil, apperr.InvalidQuery(msgInvalidSyntax)
	}

	if t := strings.ToLower(strings.TrimSpace(table)); t != "" {
		if _, ok := refs.tables[t]; !ok {
			g.log.Warn("query does not reference requested table",
				zap.String("table", t), zap.Strings("tables", sortedKeys(refs.tables)))
		}
	}

	return &Plan{
		SQL:       canonical,
		Tables:    sortedKeys(refs.tables),
		Columns:   sortedKeys(refs.columns),
		Functions: refs.functions,
		Capped:    capped,
	}, nil
}

func (g *Gate) check(table, raw string) (*sql.SelectStatement, references, error) {
	stmt, err := parseSingle(raw)
	if err != nil {
		return nil, references{}, err
	}

	sel, ok := stmt.(*sql.SelectStatement)
	if !ok || sel.Compound != nil || len(sel.ValueLists) > 0 {
		return nil, references{}, apperr.InvalidQuery(msgSingleSelect)
	}

	refs, err := inspect(sel)
	if err != nil {
		return nil, references{}, apperr.Wrap(apperr.CodeInvalidQuery, err, msgInvalidSyntax)
	}

	if len(refs.tables) == 0 {
		return nil, references{}, apperr.InvalidQuery(msgNoTable)
	}
	for t := range refs.tables {
		if !g.policy.AllowsTable(t) {
			return nil, references{}, apperr.InvalidQuery("%s", g.policy.tablesMessage())
		}
	}
	if t := strings.TrimSpace(table); t != "" && !g.policy.AllowsTable(t) {
		return nil, references{}, apperr.InvalidQuery("%s", g.policy.tablesMessage())
	}

	for c := range refs.columns {
		if !g.policy.AllowsColumn(c) {
			return nil, references{}, apperr.InvalidQuery("%s", g.policy.columnsMessage())
		}
	}

	for _, fn := range refs.functions {
		if !g.policy.AllowsFunction(fn) {
			return nil, references{}, apperr.InvalidQuery("Function %s is not allowed", fn)
		}
	}

	return sel, refs, nil
}

// parseSingle parses exactly one statement. A trailing semicolon is accepted;
// anything after it is not.
func parseSingle(raw string) (sql.Statement, error) {
	p := sql.NewParser(strings.NewReader(raw))
	stmt, err := p.ParseStatement()
	if err != nil || stmt == nil {
		return nil, apperr.InvalidQuery(msgInvalidSyntax)
	}
	if next, err := p.ParseStatement(); next != nil || !errors.Is(err, io.EOF) {
		return nil, apperr.InvalidQuery(msgSingleSelect)
	}
	return stmt, nil
}

// Execute validates raw and runs its canonical form on a read-only connection.
func (g *Gate) Execute(ctx context.Context, table, raw string) ([]model.Row, error) {
	ctx, span := tracer.Start(ctx, "query.Execute",
		trace.WithAttributes(attribute.String("crm.query.table", table)),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	defer span.End()

	plan, err := g.Prepare(table, raw)
	if err != nil {
		metrics.QueriesTotal.WithLabelValues("rejected").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "rejected")
		g.log.Info("query rejected", zap.String("table", table), zap.Error(err))
		return nil, err
	}
	span.SetAttributes(
		attribute.String("crm.query.sql", plan.SQL),
		attribute.Bool("crm.query.capped", plan.Capped),
	)

	rows, err := g.run(ctx, plan.SQL)
	if err != nil {
		metrics.QueriesTotal.WithLabelValues("failed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "execution failed")
		g.log.Warn("query failed", zap.String("sql", plan.SQL), zap.Error(err))
		return nil, apperr.Wrap(apperr.CodeInvalidQuery, err, "SQLite error: %v. SQL was: %s", sqliteMessage(err), plan.SQL)
	}

	metrics.QueriesTotal.WithLabelValues("ok").Inc()
	span.SetAttributes(attribute.Int("crm.query.rows", len(rows)))
	g.log.Debug("query executed", zap.String("sql", plan.SQL), zap.Int("rows", len(rows)))
	return rows, nil
}

func (g *Gate) run(ctx context.Context, canonical string) ([]model.Row, error) {
	out := make([]model.Row, 0)
	err := db.WithReadOnlyConn(ctx, g.db, func(conn *sqlx.Conn) error {
		rows, err := conn.QueryxContext(ctx, canonical)
		if err != nil {
			return err
		}
		defer rows.Close()

		cols, err := rows.Columns()
		if err != nil {
			return err
		}
		for rows.Next() {
			vals, err := rows.SliceScan()
			if err != nil {
				return err
			}
			out = append(out, model.NewRow(cols, vals))
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// sqliteMessage strips our own wrapping so the model sees the engine's text.
func sqliteMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
