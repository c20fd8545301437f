package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/yakoovad/member-search/internal/db"
)

type Team struct {
	ID   int64  `db:"team_id"`
	Name string `db:"name"`
}

type TeamRepository interface {
	Create(ctx context.Context, team *Team) error
	Get(ctx context.Context, id int64) (*Team, error)
	GetByName(ctx context.Context, name string) (*Team, error)
	GetTeamMembers(ctx context.Context, teamID int64) ([]*Member, error)
}

type pgxTeamRepository struct {
	pool *pgxpool.Pool
}

func NewPgxTeamRepository(pool *pgxpool.Pool) TeamRepository {
	return &pgxTeamRepository{pool: pool}
}

func (p *pgxTeamRepository) Create(ctx context.Context, team *Team) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Insert(
		im.Into(teamTable, "name"),
		im.Values(psql.Arg(team.Name)),
		im.Returning("team_id"),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	err = e.QueryRow(ctx, sql, args...).Scan(&team.ID)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrAlreadyExists
	}
	if err != nil {
		return errors.Wrap(err, "insert team")
	}
	return nil
}

func (p *pgxTeamRepository) Get(ctx context.Context, id int64) (*Team, error) {
	return p.getBy(ctx, psql.Quote("team_id").EQ(psql.Arg(id)))
}

func (p *pgxTeamRepository) GetByName(ctx context.Context, name string) (*Team, error) {
	return p.getBy(ctx, psql.Quote("name").EQ(psql.Arg(name)))
}

func (p *pgxTeamRepository) getBy(ctx context.Context, where bob.Expression) (*Team, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("team_id", "name"),
		sm.From(teamTable),
		sm.Where(where),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	team := &Team{}
	if err = e.QueryRow(ctx, sql, args...).Scan(&team.ID, &team.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "find team")
	}
	return team, nil
}

func (p *pgxTeamRepository) GetTeamMembers(ctx context.Context, teamID int64) ([]*Member, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		memberColumns(),
		fromMember(),
		sm.Where(memberCol("team_id").EQ(psql.Arg(teamID))),
		sm.OrderBy(memberCol("member_id")),
	)

	return collect(ctx, e, q, scanMember)
}
