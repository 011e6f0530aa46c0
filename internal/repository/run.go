package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const (
	RunActive   = "active"
	RunCleared  = "cleared"
	RunGameOver = "game_over"
)

type Run struct {
	RunId     uuid.UUID
	PlayerId  *int64
	Rank      int32
	Hp        int32
	BoardSize int32
	MineCount int32
	Status    string
	State     []byte
	StartedAt pgtype.Timestamptz
	EndedAt   pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

type SaveRunParams struct {
	RunId     uuid.UUID
	PlayerId  *int64
	Rank      int
	Hp        int
	BoardSize int
	MineCount int
	Status    string
	State     []byte
	StartedAt time.Time
	EndedAt   *time.Time
}

// SaveRun inserts the run or overwrites its progress.
func (q *Queries) SaveRun(ctx context.Context, params SaveRunParams) (*Run, error) {
	rows, _ := q.db.Query(ctx, `
		INSERT INTO run (
			run_id, player_id, rank, hp, board_size, mine_count,
			status, state, started_at, ended_at
		)
		VALUES (
			@run_id, @player_id, @rank, @hp, @board_size, @mine_count,
			@status, @state, @started_at, @ended_at
		)
		ON CONFLICT (run_id) DO UPDATE
		SET rank = EXCLUDED.rank
			, hp = EXCLUDED.hp
			, board_size = EXCLUDED.board_size
			, mine_count = EXCLUDED.mine_count
			, status = EXCLUDED.status
			, state = EXCLUDED.state
			, ended_at = EXCLUDED.ended_at
			, updated_at = now()
		RETURNING *`,
		pgx.NamedArgs{
			"run_id":     params.RunId,
			"player_id":  params.PlayerId,
			"rank":       params.Rank,
			"hp":         params.Hp,
			"board_size": params.BoardSize,
			"mine_count": params.MineCount,
			"status":     params.Status,
			"state":      params.State,
			"started_at": params.StartedAt,
			"ended_at":   params.EndedAt,
		},
	)
	return pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[Run])
}

func (q *Queries) FetchRun(ctx context.Context, runId uuid.UUID) (*Run, error) {
	rows, _ := q.db.Query(ctx, "SELECT * FROM run WHERE run_id = $1", runId)
	run, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[Run])
	return run, notFound(err)
}
