package query

import (
	"fmt"
	"sort"
	"strings"
)

// Policy is the fixed allow-list a statement is checked against. Names are
// compared lower-cased.
type Policy struct {
	Tables       map[string]struct{}
	Columns      map[string]struct{}
	DefaultLimit int

	deniedFuncs    map[string]struct{}
	deniedPrefixes []string
}

// DefaultPolicy allows the two CRM tables and their columns.
func DefaultPolicy() Policy {
	return Policy{
		Tables:       set("customers", "messages"),
		Columns:      set("message_id", "customer_id", "direction", "timestamp", "content", "name", "email"),
		DefaultLimit: 100,

		deniedFuncs:    set("load_extension", "readfile", "writefile", "fts3_tokenizer"),
		deniedPrefixes: []string{"sqlite_", "pragma_"},
	}
}

func (p Policy) AllowsTable(name string) bool {
	_, ok := p.Tables[strings.ToLower(name)]
	return ok
}

func (p Policy) AllowsColumn(name string) bool {
	_, ok := p.Columns[strings.ToLower(name)]
	return ok
}

func (p Policy) AllowsFunction(name string) bool {
	n := strings.ToLower(name)
	if _, denied := p.deniedFuncs[n]; denied {
		return false
	}
	for _, prefix := range p.deniedPrefixes {
		if strings.HasPrefix(n, prefix) {
			return false
		}
	}
	return true
}

func (p Policy) tablesMessage() string {
	return fmt.Sprintf("Only tables [%s] are allowed", strings.Join(sortedKeys(p.Tables), ", "))
}

func (p Policy) columnsMessage() string {
	return fmt.Sprintf("Only columns [%s] are allowed", strings.Join(sortedKeys(p.Columns), ", "))
}

func set(items ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(items))
	for _, it := range items {
		m[it] = struct{}{}
	}
	return m
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
