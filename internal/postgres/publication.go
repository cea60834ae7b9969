package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Publication mirrors one pg_publication row on the source.
type Publication struct {
	Name      string
	AllTables bool
}

// ListPublications returns all publications on the endpoint.
func ListPublications(ctx context.Context, q Querier) ([]Publication, error) {
	sql := `SELECT pubname, puballtables FROM pg_publication ORDER BY pubname`
	debugQuery(sql)
	rows, err := q.Query(ctx, sql)
	if err != nil {
		return nil, dbErr("list publications", err)
	}
	defer rows.Close()

	var pubs []Publication
	for rows.Next() {
		var p Publication
		if err := rows.Scan(&p.Name, &p.AllTables); err != nil {
			return nil, dbErr("list publications", err)
		}
		pubs = append(pubs, p)
	}
	return pubs, dbErr("list publications", rows.Err())
}

// GetPublication returns the named publication, or nil when it does not exist.
func GetPublication(ctx context.Context, q Querier, name string) (*Publication, error) {
	sql := `SELECT pubname, puballtables FROM pg_publication WHERE pubname = $1`
	debugQuery(sql, name)
	var p Publication
	err := q.QueryRow(ctx, sql, name).Scan(&p.Name, &p.AllTables)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, dbErr(fmt.Sprintf("get publication %s", name), err)
	}
	return &p, nil
}

// CreatePublication creates a FOR ALL TABLES publication.
func CreatePublication(ctx context.Context, q Querier, name string) error {
	sql := fmt.Sprintf(`CREATE PUBLICATION %s FOR ALL TABLES`, quoteIdent(name))
	debugQuery(sql)
	_, err := q.Exec(ctx, sql)
	return dbErr(fmt.Sprintf("create publication %s", name), err)
}

// DropPublication drops the publication.
func DropPublication(ctx context.Context, q Querier, name string) error {
	sql := fmt.Sprintf(`DROP PUBLICATION %s`, quoteIdent(name))
	debugQuery(sql)
	_, err := q.Exec(ctx, sql)
	return dbErr(fmt.Sprintf("drop publication %s", name), err)
}
