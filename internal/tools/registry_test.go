package tools

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmehdipour/crm-tools/internal/apperr"
	"github.com/jmehdipour/crm-tools/internal/db"
	"github.com/jmehdipour/crm-tools/internal/model"
	"github.com/jmehdipour/crm-tools/internal/query"
	"github.com/jmehdipour/crm-tools/internal/service/crm"
	"go.uber.org/zap"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	conn, err := db.NewSQLiteConnection(filepath.Join(t.TempDir(), "crm.db"), db.SQLiteOpts{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	if err := db.EnsureSchema(context.Background(), conn); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	reg, err := NewRegistry(crm.NewFromDB(conn, query.DefaultPolicy(), zap.NewNop()), zap.NewNop())
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	return reg
}

func invoke(t *testing.T, reg *Registry, name, args string) Result {
	t.Helper()
	res := reg.Invoke(context.Background(), name, json.RawMessage(args))
	if res.CallID == "" || res.Tool != name {
		t.Fatalf("malformed envelope %+v", res)
	}
	if res.OK == (res.Error != nil) {
		t.Fatalf("envelope must carry exactly one of result/error: %+v", res)
	}
	return res
}

func requireFailure(t *testing.T, res Result, code apperr.Code) {
	t.Helper()
	if res.OK || res.Error == nil || res.Error.Code != code {
		t.Fatalf("expected %s failure, got %+v", code, res)
	}
}

func TestDeclarationsCoverEveryTool(t *testing.T) {
	reg := newTestRegistry(t)

	want := []string{
		AddCustomer, GetCustomerByEmail, GetCustomerByID, GetCustomersWithLastMessageBefore,
		GetCustomersWithNoMessages, GetMessagesForCustomer, LogMessage, QueryTable,
	}
	decls := reg.Declarations()
	if len(decls) != len(want) {
		t.Fatalf("expected %d declarations, got %d", len(want), len(decls))
	}
	for i, d := range decls {
		if d.Name != want[i] {
			t.Fatalf("declaration %d = %s, want %s", i, d.Name, want[i])
		}
		if d.Description == "" || !json.Valid(d.Parameters) {
			t.Fatalf("incomplete declaration %+v", d)
		}
	}
}

func TestAddCustomerThenDuplicate(t *testing.T) {
	reg := newTestRegistry(t)

	res := invoke(t, reg, AddCustomer, `{"name":"Jane Doe","email":"jane@example.com"}`)
	if !res.OK {
		t.Fatalf("add: %+v", res.Error)
	}
	out, ok := res.Result.(map[string]int64)
	if !ok || out["customer_id"] <= 0 {
		t.Fatalf("unexpected result %#v", res.Result)
	}

	dup := invoke(t, reg, AddCustomer, `{"name":"Jane Doe","email":"jane@example.com"}`)
	requireFailure(t, dup, apperr.CodeDuplicateEmail)
}

func TestArgumentsAreValidatedAgainstSchema(t *testing.T) {
	reg := newTestRegistry(t)

	cases := []struct{ tool, args string }{
		{AddCustomer, `{"name":"Jane"}`},
		{AddCustomer, `{"name":"Jane","email":"j@example.com","admin":true}`},
		{GetCustomerByID, `{"customer_id":"one"}`},
		{GetCustomerByID, `{"customer_id":0}`},
		{LogMessage, `{"customer_id":1,"content":"hi"}`},
		{QueryTable, `{"sql":"SELECT * FROM customers"}`},
		{QueryTable, `not json`},
	}
	for _, tc := range cases {
		res := invoke(t, reg, tc.tool, tc.args)
		requireFailure(t, res, apperr.CodeInvalidArgument)
	}
}

func TestUnknownTool(t *testing.T) {
	reg := newTestRegistry(t)
	res := invoke(t, reg, "drop_everything", `{}`)
	requireFailure(t, res, apperr.CodeNotFound)
}

func TestLogAndReadMessages(t *testing.T) {
	reg := newTestRegistry(t)

	add := invoke(t, reg, AddCustomer, `{"name":"A","email":"a@example.com"}`)
	id := add.Result.(map[string]int64)["customer_id"]

	logged := invoke(t, reg, LogMessage, `{"customer_id":`+itoa(id)+`,"direction":"inbound","content":"hi"}`)
	if !logged.OK {
		t.Fatalf("log: %+v", logged.Error)
	}

	list := invoke(t, reg, GetMessagesForCustomer, `{"customer_id":`+itoa(id)+`}`)
	msgs, ok := list.Result.([]model.Message)
	if !ok || len(msgs) != 1 || msgs[0].Content != "hi" {
		t.Fatalf("unexpected messages %#v", list.Result)
	}

	none := invoke(t, reg, GetCustomersWithNoMessages, ``)
	if got, _ := none.Result.([]model.Customer); !none.OK || len(got) != 0 {
		t.Fatalf("unexpected customers without messages %#v", none.Result)
	}

	missing := invoke(t, reg, LogMessage, `{"customer_id":999,"direction":"inbound","content":"hi"}`)
	requireFailure(t, missing, apperr.CodeStorage)

	badDate := invoke(t, reg, GetCustomersWithLastMessageBefore, `{"threshold_iso":"soon"}`)
	requireFailure(t, badDate, apperr.CodeInvalidArgument)
}

func TestQueryTableEnvelope(t *testing.T) {
	reg := newTestRegistry(t)
	invoke(t, reg, AddCustomer, `{"name":"A","email":"a@example.com"}`)

	res := invoke(t, reg, QueryTable, `{"table":"customers","sql":"SELECT name, email FROM customers"}`)
	if !res.OK {
		t.Fatalf("query: %+v", res.Error)
	}
	b, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"result":[{"name":"A","email":"a@example.com"}]`) {
		t.Fatalf("unexpected envelope %s", b)
	}

	rejected := invoke(t, reg, QueryTable, `{"table":"customers","sql":"SELECT * FROM sqlite_master"}`)
	requireFailure(t, rejected, apperr.CodeInvalidQuery)
	if rejected.Error.Message != "Only tables [customers, messages] are allowed" {
		t.Fatalf("unexpected message %q", rejected.Error.Message)
	}
}

type panickingService struct{ Service }

func (panickingService) GetCustomersWithNoMessages(context.Context) ([]model.Customer, error) {
	panic("driver exploded")
}

func TestInvokeRecoversPanics(t *testing.T) {
	reg, err := NewRegistry(panickingService{}, zap.NewNop())
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	res := invoke(t, reg, GetCustomersWithNoMessages, `{}`)
	requireFailure(t, res, apperr.CodeStorage)
}

func itoa(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}
