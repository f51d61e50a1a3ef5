// Package tools exposes the CRM operations to an agent framework as named
// tools with JSON Schema parameters and a stable result envelope.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jmehdipour/crm-tools/internal/apperr"
	"github.com/jmehdipour/crm-tools/internal/metrics"
	"github.com/jmehdipour/crm-tools/internal/model"
	"github.com/jmehdipour/crm-tools/internal/util"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.uber.org/zap"
)

const (
	AddCustomer                       = "add_customer"
	GetCustomerByID                   = "get_customer_by_id"
	GetCustomerByEmail                = "get_customer_by_email"
	LogMessage                        = "log_message"
	GetMessagesForCustomer            = "get_messages_for_customer"
	GetCustomersWithNoMessages        = "get_customers_with_no_messages"
	GetCustomersWithLastMessageBefore = "get_customers_with_last_message_before"
	QueryTable                        = "query_table"
)

// Service is the CRM surface the tools dispatch to.
type Service interface {
	AddCustomer(ctx context.Context, name, email string) (int64, error)
	GetCustomerByID(ctx context.Context, id int64) (*model.Customer, error)
	GetCustomerByEmail(ctx context.Context, email string) (*model.Customer, error)
	LogMessage(ctx context.Context, customerID int64, direction, content string) (int64, error)
	GetMessagesForCustomer(ctx context.Context, customerID int64) ([]model.Message, error)
	GetCustomersWithNoMessages(ctx context.Context) ([]model.Customer, error)
	GetCustomersWithLastMessageBefore(ctx context.Context, threshold string) ([]model.Customer, error)
	QueryTable(ctx context.Context, table, sql string) ([]model.Row, error)
}

type handler func(ctx context.Context, args json.RawMessage) (any, error)

// Declaration is what an agent framework needs to expose a tool to a model.
type Declaration struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

type tool struct {
	Declaration
	schema  *jsonschema.Schema
	handler handler
}

// Result is the envelope returned for every call. Exactly one of Result and
// Error is set.
type Result struct {
	CallID string          `json:"call_id"`
	Tool   string          `json:"tool"`
	OK     bool            `json:"ok"`
	Result any             `json:"result,omitempty"`
	Error  *apperr.Failure `json:"error,omitempty"`
}

type Registry struct {
	tools map[string]*tool
	names []string
	log   *zap.Logger
}

// NewRegistry declares every CRM tool over svc and compiles its schema.
func NewRegistry(svc Service, log *zap.Logger) (*Registry, error) {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Registry{tools: map[string]*tool{}, log: log}

	defs := []struct {
		name, desc, schema string
		h                  handler
	}{
		{AddCustomer, "Add a new customer. Fails with duplicate_email if the email is already registered.", schemaAddCustomer,
			decode(func(ctx context.Context, in AddCustomerInput) (any, error) {
				id, err := svc.AddCustomer(ctx, in.Name, in.Email)
				if err != nil {
					return nil, err
				}
				return map[string]int64{"customer_id": id}, nil
			})},
		{GetCustomerByID, "Look up a customer by id.", schemaCustomerID,
			decode(func(ctx context.Context, in CustomerIDInput) (any, error) {
				return svc.GetCustomerByID(ctx, in.CustomerID)
			})},
		{GetCustomerByEmail, "Look up a customer by email address.", schemaEmail,
			decode(func(ctx context.Context, in EmailInput) (any, error) {
				return svc.GetCustomerByEmail(ctx, in.Email)
			})},
		{LogMessage, "Record a message exchanged with a customer. The timestamp is set by the store.", schemaLogMessage,
			decode(func(ctx context.Context, in LogMessageInput) (any, error) {
				id, err := svc.LogMessage(ctx, in.CustomerID, in.Direction, in.Content)
				if err != nil {
					return nil, err
				}
				return map[string]int64{"message_id": id}, nil
			})},
		{GetMessagesForCustomer, "List a customer's messages, oldest first.", schemaCustomerID,
			decode(func(ctx context.Context, in CustomerIDInput) (any, error) {
				return svc.GetMessagesForCustomer(ctx, in.CustomerID)
			})},
		{GetCustomersWithNoMessages, "List customers that have never exchanged a message.", schemaNone,
			decode(func(ctx context.Context, _ NoInput) (any, error) {
				return svc.GetCustomersWithNoMessages(ctx)
			})},
		{GetCustomersWithLastMessageBefore, "List customers whose most recent message is strictly before the given ISO-8601 date-time. Customers without messages are excluded.", schemaThreshold,
			decode(func(ctx context.Context, in ThresholdInput) (any, error) {
				return svc.GetCustomersWithLastMessageBefore(ctx, in.ThresholdISO)
			})},
		{QueryTable, "Run a single read-only SELECT over the customers or messages tables. " +
			"Allowed columns: message_id, customer_id, direction, timestamp, content, name, email. " +
			"Queries without LIMIT return at most 100 rows.", schemaQueryTable,
			decode(func(ctx context.Context, in QueryTableInput) (any, error) {
				return svc.QueryTable(ctx, in.Table, in.SQL)
			})},
	}

	for _, d := range defs {
		schema, err := compileSchema(d.name, d.schema)
		if err != nil {
			return nil, err
		}
		r.tools[d.name] = &tool{
			Declaration: Declaration{Name: d.name, Description: d.desc, Parameters: json.RawMessage(d.schema)},
			schema:      schema,
			handler:     d.h,
		}
		r.names = append(r.names, d.name)
	}
	sort.Strings(r.names)
	return r, nil
}

func compileSchema(name, raw string) (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("unmarshal %s schema: %w", name, err)
	}
	url := name + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add %s schema: %w", name, err)
	}
	schema, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile %s schema: %w", name, err)
	}
	return schema, nil
}

// decode adapts a typed handler to raw JSON arguments.
func decode[In any](fn func(context.Context, In) (any, error)) handler {
	return func(ctx context.Context, args json.RawMessage) (any, error) {
		var in In
		if err := json.Unmarshal(args, &in); err != nil {
			return nil, apperr.Wrap(apperr.CodeInvalidArgument, err, "cannot decode arguments: %v", err)
		}
		return fn(ctx, in)
	}
}

// Declarations returns the tool declarations sorted by name.
func (r *Registry) Declarations() []Declaration {
	out := make([]Declaration, 0, len(r.names))
	for _, n := range r.names {
		out = append(out, r.tools[n].Declaration)
	}
	return out
}

func (r *Registry) Has(name string) bool {
	_, ok := r.tools[name]
	return ok
}

// Invoke validates args against the tool's schema and runs it. It never
// panics and never returns a Go error: failures are reported in the envelope.
func (r *Registry) Invoke(ctx context.Context, name string, args json.RawMessage) (res Result) {
	res = Result{CallID: util.NewID(), Tool: name}
	start := time.Now()

	defer func() {
		if p := recover(); p != nil {
			r.log.Error("tool panicked", zap.String("tool", name), zap.String("call_id", res.CallID), zap.Any("panic", p))
			res.OK = false
			res.Result = nil
			res.Error = &apperr.Failure{Code: apperr.CodeStorage, Message: fmt.Sprintf("internal failure in %s", name)}
		}

		outcome, label := "ok", name
		if !res.OK {
			outcome = res.Error.Code.String()
		}
		if !r.Has(name) {
			label = "unknown"
		}
		metrics.ToolCallsTotal.WithLabelValues(label, outcome).Inc()
		r.log.Debug("tool call",
			zap.String("tool", name),
			zap.String("call_id", res.CallID),
			zap.String("outcome", outcome),
			zap.Duration("took", time.Since(start)),
		)
	}()

	t, ok := r.tools[name]
	if !ok {
		return fail(res, apperr.New(apperr.CodeNotFound, "unknown tool %q", name))
	}

	if len(bytes.TrimSpace(args)) == 0 || bytes.Equal(bytes.TrimSpace(args), []byte("null")) {
		args = json.RawMessage(`{}`)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(args))
	if err != nil {
		return fail(res, apperr.Wrap(apperr.CodeInvalidArgument, err, "arguments are not valid JSON: %v", err))
	}
	if err := t.schema.Validate(doc); err != nil {
		return fail(res, apperr.Wrap(apperr.CodeInvalidArgument, err, "invalid arguments for %s: %v", name, err))
	}

	out, err := t.handler(ctx, args)
	if err != nil {
		return fail(res, err)
	}
	res.OK = true
	res.Result = out
	return res
}

func fail(res Result, err error) Result {
	res.OK = false
	res.Result = nil
	res.Error = apperr.ToFailure(err)
	return res
}
