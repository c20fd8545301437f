package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/yakoovad/member-search/internal/db"
	"github.com/yakoovad/member-search/internal/model"
)

type Member struct {
	ID       int64   `db:"member_id"`
	Username *string `db:"username"`
	Age      int     `db:"age"`
	TeamID   *int64  `db:"team_id"`
}

type MemberRepository interface {
	Save(ctx context.Context, member *Member) error
	FindByID(ctx context.Context, id int64) (*Member, error)
	FindAll(ctx context.Context) ([]*Member, error)
	FindByUsername(ctx context.Context, username string) ([]*Member, error)
	CountAll(ctx context.Context) (int64, error)

	SearchByBuilder(ctx context.Context, cond *model.MemberSearchCondition) ([]*model.MemberTeam, error)
	Search(ctx context.Context, cond *model.MemberSearchCondition) ([]*model.MemberTeam, error)

	SearchPageSimple(ctx context.Context, cond *model.MemberSearchCondition, page model.PageRequest) (*model.Page[*model.MemberTeam], error)
	SearchPageComplex(ctx context.Context, cond *model.MemberSearchCondition, page model.PageRequest) (*model.Page[*model.MemberTeam], error)
	SearchPageOptimized(ctx context.Context, cond *model.MemberSearchCondition, page model.PageRequest) (*model.Page[*model.MemberTeam], error)

	SearchMembersPage(ctx context.Context, cond *model.MemberSearchCondition, page model.PageRequest) (*model.Page[*Member], error)
	SearchMembersPageSeparateCount(ctx context.Context, cond *model.MemberSearchCondition, page model.PageRequest) (*model.Page[*Member], error)
}

type pgxMemberRepository struct {
	pool *pgxpool.Pool
}

func NewPgxMemberRepository(pool *pgxpool.Pool) MemberRepository {
	return &pgxMemberRepository{pool: pool}
}

func scanMember(row pgx.CollectableRow) (*Member, error) {
	m := &Member{}
	if err := row.Scan(&m.ID, &m.Username, &m.Age, &m.TeamID); err != nil {
		return nil, err
	}
	return m, nil
}

func scanMemberTeam(row pgx.CollectableRow) (*model.MemberTeam, error) {
	mt := &model.MemberTeam{}
	if err := row.Scan(&mt.MemberID, &mt.Username, &mt.Age, &mt.TeamID, &mt.TeamName); err != nil {
		return nil, err
	}
	return mt, nil
}

// Save inserts member and sets member.ID
func (p *pgxMemberRepository) Save(ctx context.Context, member *Member) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Insert(
		im.Into(memberTable, "username", "age", "team_id"),
		im.Values(psql.Arg(member.Username), psql.Arg(member.Age), psql.Arg(member.TeamID)),
		im.Returning("member_id"),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	err = e.QueryRow(ctx, sql, args...).Scan(&member.ID)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" { // team_id does not exist
		return ErrNotFound
	}
	if err != nil {
		return errors.Wrap(err, "insert member")
	}
	return nil
}

func (p *pgxMemberRepository) FindByID(ctx context.Context, id int64) (*Member, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		memberColumns(),
		fromMember(),
		sm.Where(memberCol("member_id").EQ(psql.Arg(id))),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	m := &Member{}
	if err = e.QueryRow(ctx, sql, args...).Scan(&m.ID, &m.Username, &m.Age, &m.TeamID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "find member")
	}
	return m, nil
}

func (p *pgxMemberRepository) FindAll(ctx context.Context) ([]*Member, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		memberColumns(),
		fromMember(),
		sm.OrderBy(memberCol("member_id")),
	)

	return collect(ctx, e, q, scanMember)
}

func (p *pgxMemberRepository) FindByUsername(ctx context.Context, username string) ([]*Member, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		memberColumns(),
		fromMember(),
		sm.Where(memberCol("username").EQ(psql.Arg(username))),
		sm.OrderBy(memberCol("member_id")),
	)

	return collect(ctx, e, q, scanMember)
}

func (p *pgxMemberRepository) CountAll(ctx context.Context) (int64, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns(psql.F("count", memberCol("member_id"))),
		fromMember(),
	)

	return fetchCount(ctx, e, q)
}

// builderPredicates maps each filter field on its own, so a single age bound still applies.
func builderPredicates(cond *model.MemberSearchCondition) *predicateBuilder {
	b := &predicateBuilder{}
	if cond.IsEmpty() {
		return b
	}
	if model.HasText(cond.Username) {
		b.And(memberCol("username").EQ(psql.Arg(*cond.Username)))
	}
	if model.HasText(cond.TeamName) {
		b.And(teamCol("name").EQ(psql.Arg(*cond.TeamName)))
	}
	if cond.AgeGoe != nil {
		b.And(memberCol("age").GTE(psql.Arg(*cond.AgeGoe)))
	}
	if cond.AgeLoe != nil {
		b.And(memberCol("age").LTE(psql.Arg(*cond.AgeLoe)))
	}
	return b
}

func builderSearchQuery(cond *model.MemberSearchCondition) bob.BaseQuery[*dialect.SelectQuery] {
	b := builderPredicates(cond)

	q := psql.Select(
		memberTeamColumns(),
		fromMember(),
		leftJoinTeam(),
	)
	q.Apply(b.Where()...)
	q.Apply(sm.OrderBy(memberCol("member_id")))
	return q
}

func searchQuery(cond *model.MemberSearchCondition) bob.BaseQuery[*dialect.SelectQuery] {
	q := psql.Select(
		memberTeamColumns(),
		fromMember(),
		leftJoinTeam(),
	)
	q.Apply(whereAll(searchConditions(cond)...)...)
	return q
}

// searchCountQuery drops the team join unless a team-name filter needs it;
// the join is many-to-one, so it never changes the member count.
func searchCountQuery(cond *model.MemberSearchCondition) bob.BaseQuery[*dialect.SelectQuery] {
	q := psql.Select(
		sm.Columns(psql.F("count", memberCol("member_id"))),
		fromMember(),
	)
	if cond != nil && model.HasText(cond.TeamName) {
		q.Apply(leftJoinTeam())
	}
	q.Apply(whereAll(searchConditions(cond)...)...)
	return q
}

func membersQuery(cond *model.MemberSearchCondition) bob.BaseQuery[*dialect.SelectQuery] {
	q := psql.Select(
		memberColumns(),
		fromMember(),
		leftJoinTeam(),
	)
	q.Apply(whereAll(searchConditions(cond)...)...)
	return q
}

// derivedCountQuery counts whatever rows q would return.
func derivedCountQuery(q bob.BaseQuery[*dialect.SelectQuery]) bob.BaseQuery[*dialect.SelectQuery] {
	return psql.Select(
		sm.Columns(psql.Raw("count(*)")),
		sm.From(q).As("content"),
	)
}

func (p *pgxMemberRepository) SearchByBuilder(ctx context.Context, cond *model.MemberSearchCondition) ([]*model.MemberTeam, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)
	return collect(ctx, e, builderSearchQuery(cond), scanMemberTeam)
}

func (p *pgxMemberRepository) Search(ctx context.Context, cond *model.MemberSearchCondition) ([]*model.MemberTeam, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := searchQuery(cond)
	q.Apply(sm.OrderBy(memberCol("member_id")))

	return collect(ctx, e, q, scanMemberTeam)
}

// SearchPageSimple fetches content and total in one round trip with a window count.
// A page past the end has no rows to carry the total, so only then a count query follows.
func (p *pgxMemberRepository) SearchPageSimple(ctx context.Context, cond *model.MemberSearchCondition, page model.PageRequest) (*model.Page[*model.MemberTeam], error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := searchQuery(cond)
	q.Apply(sm.Columns(psql.Raw("count(*) OVER ()")))
	if err := applyPagination(q, page); err != nil {
		return nil, err
	}

	var total int64
	items, err := collect(ctx, e, q, func(row pgx.CollectableRow) (*model.MemberTeam, error) {
		mt := &model.MemberTeam{}
		if err := row.Scan(&mt.MemberID, &mt.Username, &mt.Age, &mt.TeamID, &mt.TeamName, &total); err != nil {
			return nil, err
		}
		return mt, nil
	})
	if err != nil {
		return nil, err
	}

	if len(items) == 0 && page.Offset() > 0 {
		if total, err = fetchCount(ctx, e, searchCountQuery(cond)); err != nil {
			return nil, err
		}
	}

	return model.NewPage(items, page, total), nil
}

// SearchPageComplex always runs the content query and the count query.
func (p *pgxMemberRepository) SearchPageComplex(ctx context.Context, cond *model.MemberSearchCondition, page model.PageRequest) (*model.Page[*model.MemberTeam], error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	total, err := fetchCount(ctx, e, searchCountQuery(cond))
	if err != nil {
		return nil, err
	}

	q := searchQuery(cond)
	if err = applyPagination(q, page); err != nil {
		return nil, err
	}

	items, err := collect(ctx, e, q, scanMemberTeam)
	if err != nil {
		return nil, err
	}

	return model.NewPage(items, page, total), nil
}

// SearchPageOptimized skips the count query when the content already tells the total.
func (p *pgxMemberRepository) SearchPageOptimized(ctx context.Context, cond *model.MemberSearchCondition, page model.PageRequest) (*model.Page[*model.MemberTeam], error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)
	return fetchPage(ctx, e, searchQuery(cond), searchCountQuery(cond), page, scanMemberTeam)
}

// SearchMembersPage counts by wrapping the content query, so the two can never disagree.
func (p *pgxMemberRepository) SearchMembersPage(ctx context.Context, cond *model.MemberSearchCondition, page model.PageRequest) (*model.Page[*Member], error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)
	return fetchPage(ctx, e, membersQuery(cond), derivedCountQuery(membersQuery(cond)), page, scanMember)
}

func (p *pgxMemberRepository) SearchMembersPageSeparateCount(ctx context.Context, cond *model.MemberSearchCondition, page model.PageRequest) (*model.Page[*Member], error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	count := psql.Select(
		sm.Columns(psql.F("count", memberCol("member_id"))),
		fromMember(),
		leftJoinTeam(),
	)
	count.Apply(whereAll(searchConditions(cond)...)...)

	return fetchPage(ctx, e, membersQuery(cond), count, page, scanMember)
}
