package query

import (
	"fmt"
	"strings"

	"github.com/rqlite/sql"
)

// references is everything a statement names: tables, columns and functions.
type references struct {
	tables    map[string]struct{}
	columns   map[string]struct{}
	functions []string
}

// inspector walks a parsed statement and records references. Identifiers that
// are not column references (aliases, function names, type names, window names)
// are skipped by pruning the node and walking only its expression children.
type inspector struct {
	refs references
}

func inspect(stmt sql.Statement) (refs references, err error) {
	v := &inspector{refs: references{
		tables:  map[string]struct{}{},
		columns: map[string]struct{}{},
	}}
	defer func() {
		// a malformed tree must never be executed
		if r := recover(); r != nil {
			err = fmt.Errorf("walk statement: %v", r)
		}
	}()
	if _, err := sql.Walk(v, stmt); err != nil {
		return references{}, err
	}
	return v.refs, nil
}

func (v *inspector) Visit(node sql.Node) (sql.Visitor, sql.Node, error) {
	switch n := node.(type) {
	case *sql.QualifiedTableName:
		v.addTable(n.Name)
		return nil, node, nil

	case *sql.QualifiedTableFunctionName:
		// table-valued functions such as json_each or pragma_table_info
		if n.Name != nil {
			v.refs.functions = append(v.refs.functions, n.Name.Name)
		}
		return nil, node, v.walkExprs(n.Args)

	case *sql.QualifiedRef:
		if n.Column != nil {
			v.addColumn(n.Column.Name)
		}
		return nil, node, nil

	case *sql.Ident:
		v.addColumn(n.Name)
		return nil, node, nil

	case *sql.ResultColumn:
		return nil, node, v.walk(n.Expr)

	case *sql.Call:
		if n.Name != nil {
			v.refs.functions = append(v.refs.functions, n.Name.Name)
		}
		if err := v.walkExprs(n.Args); err != nil {
			return nil, node, err
		}
		if n.Filter != nil {
			if err := v.walk(n.Filter.X); err != nil {
				return nil, node, err
			}
		}
		if n.Over != nil && n.Over.Definition != nil {
			if err := v.walk(n.Over.Definition); err != nil {
				return nil, node, err
			}
		}
		return nil, node, nil

	case *sql.Window:
		if n.Definition != nil {
			return nil, node, v.walk(n.Definition)
		}
		return nil, node, nil

	case *sql.WindowDefinition:
		if err := v.walkExprs(n.Partitions); err != nil {
			return nil, node, err
		}
		for _, term := range n.OrderingTerms {
			if err := v.walk(term); err != nil {
				return nil, node, err
			}
		}
		if n.Frame != nil {
			return nil, node, v.walk(n.Frame)
		}
		return nil, node, nil

	case *sql.CastExpr:
		return nil, node, v.walk(n.X)

	case *sql.OrderingTerm:
		return nil, node, v.walk(n.X)

	case *sql.ParenSource:
		if n.X != nil {
			return nil, node, v.walk(n.X)
		}
		return nil, node, nil

	// Walk does not descend into scalar and IN subqueries or into WITH
	// clauses, so their statements are walked here.
	case sql.SelectExpr:
		return nil, node, v.walkSelect(n.SelectStatement)

	case *sql.SelectExpr:
		if n != nil {
			return nil, node, v.walkSelect(n.SelectStatement)
		}
		return nil, node, nil

	case *sql.WithClause:
		for _, cte := range n.CTEs {
			if cte == nil {
				continue
			}
			if err := v.walkSelect(cte.Select); err != nil {
				return nil, node, err
			}
		}
		return nil, node, nil
	}
	return v, node, nil
}

func (v *inspector) VisitEnd(node sql.Node) (sql.Node, error) {
	return node, nil
}

func (v *inspector) walk(node sql.Node) error {
	if node == nil {
		return nil
	}
	_, err := sql.Walk(v, node)
	return err
}

func (v *inspector) walkExprs(exprs []sql.Expr) error {
	for _, x := range exprs {
		if err := v.walk(x); err != nil {
			return err
		}
	}
	return nil
}

func (v *inspector) walkSelect(stmt *sql.SelectStatement) error {
	if stmt == nil {
		return nil
	}
	return v.walk(stmt)
}

func (v *inspector) addTable(name *sql.Ident) {
	if name == nil {
		return
	}
	v.refs.tables[strings.ToLower(name.Name)] = struct{}{}
}

func (v *inspector) addColumn(name string) {
	if name == "" {
		return
	}
	v.refs.columns[strings.ToLower(name)] = struct{}{}
}
