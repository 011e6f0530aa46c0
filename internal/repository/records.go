package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

type Record struct {
	RunId      string  `json:"run_id"`
	Username   *string `json:"username"`
	Rank       int     `json:"rank"`
	BoardSize  int     `json:"board_size"`
	MineCount  int     `json:"mine_count"`
	Status     string  `json:"status"`
	PlaytimeMs float64 `json:"playtime_ms"`
}

type RecordFilter struct {
	username *string
	limit    int
}

type RecordsOption = func(*RecordFilter) error

func RecordsForPlayer(username string) RecordsOption {
	return func(f *RecordFilter) error {
		f.username = &username
		return nil
	}
}

func RecordsLimit(n int) RecordsOption {
	return func(f *RecordFilter) error {
		if n <= 0 || n > 100 {
			return fmt.Errorf("limit must be within 1..100, got %d", n)
		}
		f.limit = n
		return nil
	}
}

func (f RecordFilter) WhereClause() (string, pgx.NamedArgs) {
	args := pgx.NamedArgs{}
	clauses := []string{}
	if f.username != nil {
		args["username"] = *f.username
		clauses = append(clauses, "username = @username")
	}
	return strings.Join(clauses, " AND "), args
}

// GetRecords lists finished runs, deepest first and then fastest.
func (q *Queries) GetRecords(ctx context.Context, options ...RecordsOption) ([]Record, error) {
	filter := RecordFilter{limit: 20}
	for _, op := range options {
		if err := op(&filter); err != nil {
			return nil, err
		}
	}

	sql := `
	SELECT
		run_id::text
		, username
		, rank
		, board_size
		, mine_count
		, status
		, (
			extract('epoch' from coalesce(ended_at, updated_at)) -
			extract('epoch' from started_at)
		) * 1000 playtime_ms
	FROM run
		LEFT OUTER JOIN player USING (player_id)
	WHERE status <> 'active'`

	whereClause, args := filter.WhereClause()
	if whereClause != "" {
		sql += " AND " + whereClause
	}
	sql += " ORDER BY rank DESC, playtime_ms LIMIT @limit"
	args["limit"] = filter.limit

	rows, err := q.db.Query(ctx, sql, args)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[Record])
}
