package postgres

import (
	"context"
	"fmt"
)

// Table is one user table in the public schema.
type Table struct {
	Name  string
	Owner string
}

// Column is one column of a user table.
type Column struct {
	Name string
	Type string
}

// ListTables returns the public-schema tables on the endpoint.
func ListTables(ctx context.Context, q Querier) ([]Table, error) {
	sql := `SELECT tablename, tableowner FROM pg_tables WHERE schemaname = 'public' ORDER BY tablename`
	debugQuery(sql)
	rows, err := q.Query(ctx, sql)
	if err != nil {
		return nil, dbErr("list tables", err)
	}
	defer rows.Close()

	var tables []Table
	for rows.Next() {
		var t Table
		if err := rows.Scan(&t.Name, &t.Owner); err != nil {
			return nil, dbErr("list tables", err)
		}
		tables = append(tables, t)
	}
	return tables, dbErr("list tables", rows.Err())
}

// ListColumns returns the columns of a public-schema table, ordered by name.
func ListColumns(ctx context.Context, q Querier, table string) ([]Column, error) {
	sql := `SELECT column_name, data_type FROM information_schema.columns
            WHERE table_schema = 'public' AND table_name = $1 ORDER BY column_name`
	debugQuery(sql, table)
	rows, err := q.Query(ctx, sql, table)
	if err != nil {
		return nil, dbErr(fmt.Sprintf("list columns of %s", table), err)
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var c Column
		if err := rows.Scan(&c.Name, &c.Type); err != nil {
			return nil, dbErr(fmt.Sprintf("list columns of %s", table), err)
		}
		cols = append(cols, c)
	}
	return cols, dbErr(fmt.Sprintf("list columns of %s", table), rows.Err())
}
