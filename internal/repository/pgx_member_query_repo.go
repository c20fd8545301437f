package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/dm"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/bob/dialect/psql/um"
	"github.com/yakoovad/member-search/internal/db"
	"github.com/yakoovad/member-search/internal/model"
)

// MemberQueryRepository is a catalogue of read and bulk queries over members and teams.
type MemberQueryRepository interface {
	FindOne(ctx context.Context, username string, age int) (*Member, error)
	FindFirst(ctx context.Context) (*Member, error)
	SortedByAgeDescUsernameAscNullsLast(ctx context.Context, age int) ([]*Member, error)
	PageByUsernameDesc(ctx context.Context, offset, limit int64) ([]*Member, int64, error)

	AgeStats(ctx context.Context) (*model.AgeStats, error)
	TeamAverageAges(ctx context.Context) ([]*model.TeamAgeAverage, error)

	MembersOfTeam(ctx context.Context, teamName string) ([]*Member, error)
	MembersNamedAfterTeams(ctx context.Context) ([]*Member, error)
	MembersWithTeamJoinedOn(ctx context.Context, teamName string) ([]*model.MemberTeam, error)
	MembersJoinedToTeamByName(ctx context.Context) ([]*model.MemberTeam, error)
	FindWithTeam(ctx context.Context, username string) (*model.MemberWithTeam, error)

	OldestMembers(ctx context.Context) ([]*Member, error)
	MembersAtLeastAverageAge(ctx context.Context) ([]*Member, error)
	MembersWithAgeInOlderThan(ctx context.Context, age int) ([]*Member, error)
	UsernamesWithAverageAge(ctx context.Context) ([]*model.UsernameAverage, error)

	AgeLabels(ctx context.Context) ([]*model.LabeledMember, error)
	AgeBands(ctx context.Context) ([]*model.LabeledMember, error)
	UsernamesWithConstant(ctx context.Context, constant string) ([]*model.LabeledMember, error)
	UsernameAgeLabels(ctx context.Context, age int) ([]*model.LabeledMember, error)

	MemberSummaries(ctx context.Context) ([]*model.MemberSummary, error)
	UserSummariesWithMaxAge(ctx context.Context) ([]*model.UserSummary, error)

	ReplaceInUsernames(ctx context.Context, from, to string) ([]*model.LabeledMember, error)
	UsernamesEqualToLower(ctx context.Context) ([]string, error)

	RenameYoungerThan(ctx context.Context, age int, username string) (int64, error)
	AddToAllAges(ctx context.Context, delta int) (int64, error)
	MultiplyAllAges(ctx context.Context, factor int) (int64, error)
	DeleteOlderThan(ctx context.Context, age int) (int64, error)
}

type pgxMemberQueryRepository struct {
	pool *pgxpool.Pool
}

func NewPgxMemberQueryRepository(pool *pgxpool.Pool) MemberQueryRepository {
	return &pgxMemberQueryRepository{pool: pool}
}

func scanLabeled(row pgx.CollectableRow) (*model.LabeledMember, error) {
	lm := &model.LabeledMember{}
	if err := row.Scan(&lm.Username, &lm.Label); err != nil {
		return nil, err
	}
	return lm, nil
}

func selectMembers(mods ...bob.Mod[*dialect.SelectQuery]) bob.BaseQuery[*dialect.SelectQuery] {
	q := psql.Select(memberColumns(), fromMember())
	q.Apply(mods...)
	return q
}

func byMemberID() bob.Mod[*dialect.SelectQuery] {
	return sm.OrderBy(memberCol("member_id"))
}

func findOneQuery(username string, age int) bob.BaseQuery[*dialect.SelectQuery] {
	return selectMembers(
		sm.Where(psql.And(
			memberCol("username").EQ(psql.Arg(username)),
			memberCol("age").EQ(psql.Arg(age)),
		)),
		byMemberID(),
		sm.Limit(2),
	)
}

func (p *pgxMemberQueryRepository) FindOne(ctx context.Context, username string, age int) (*Member, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	members, err := collect(ctx, e, findOneQuery(username, age), scanMember)
	if err != nil {
		return nil, err
	}

	switch len(members) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return members[0], nil
	default:
		return nil, ErrNotUnique
	}
}

func (p *pgxMemberQueryRepository) FindFirst(ctx context.Context) (*Member, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	members, err := collect(ctx, e, selectMembers(byMemberID(), sm.Limit(1)), scanMember)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, ErrNotFound
	}
	return members[0], nil
}

func sortedByAgeQuery(age int) bob.BaseQuery[*dialect.SelectQuery] {
	return selectMembers(
		sm.Where(memberCol("age").EQ(psql.Arg(age))),
		sm.OrderBy(memberCol("age")).Desc(),
		sm.OrderBy(memberCol("username")).Asc().NullsLast(),
	)
}

func (p *pgxMemberQueryRepository) SortedByAgeDescUsernameAscNullsLast(ctx context.Context, age int) ([]*Member, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)
	return collect(ctx, e, sortedByAgeQuery(age), scanMember)
}

// PageByUsernameDesc returns one slice of members and the total number of members.
func (p *pgxMemberQueryRepository) PageByUsernameDesc(ctx context.Context, offset, limit int64) ([]*Member, int64, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := selectMembers(
		sm.OrderBy(memberCol("username")).Desc(),
		sm.Offset(offset),
		sm.Limit(limit),
	)

	members, err := collect(ctx, e, q, scanMember)
	if err != nil {
		return nil, 0, err
	}

	total, err := fetchCount(ctx, e, psql.Select(
		sm.Columns(psql.F("count", memberCol("member_id"))),
		fromMember(),
	))
	if err != nil {
		return nil, 0, err
	}
	return members, total, nil
}

func ageStatsQuery() bob.BaseQuery[*dialect.SelectQuery] {
	return psql.Select(
		sm.Columns(
			psql.F("count", memberCol("member_id")),
			psql.F("sum", memberCol("age")),
			psql.Raw(`avg("m"."age")::float8`),
			psql.F("max", memberCol("age")),
			psql.F("min", memberCol("age")),
		),
		fromMember(),
	)
}

// AgeStats reports zeros for sum, avg, max and min when there are no members.
func (p *pgxMemberQueryRepository) AgeStats(ctx context.Context) (*model.AgeStats, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	sql, args, err := ageStatsQuery().Build(ctx)
	if err != nil {
		return nil, err
	}

	var (
		stats  model.AgeStats
		sum    *int64
		avg    *float64
		maxAge *int
		minAge *int
	)
	if err = e.QueryRow(ctx, sql, args...).Scan(&stats.Count, &sum, &avg, &maxAge, &minAge); err != nil {
		return nil, errors.Wrap(err, "age stats")
	}

	if sum != nil {
		stats.Sum = *sum
	}
	if avg != nil {
		stats.Avg = *avg
	}
	if maxAge != nil {
		stats.Max = *maxAge
	}
	if minAge != nil {
		stats.Min = *minAge
	}
	return &stats, nil
}

func teamAverageAgesQuery() bob.BaseQuery[*dialect.SelectQuery] {
	return psql.Select(
		sm.Columns(teamCol("name"), psql.Raw(`avg("m"."age")::float8`)),
		fromMember(),
		innerJoinTeam(),
		sm.GroupBy(teamCol("name")),
		sm.OrderBy(teamCol("name")),
	)
}

func (p *pgxMemberQueryRepository) TeamAverageAges(ctx context.Context) ([]*model.TeamAgeAverage, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	return collect(ctx, e, teamAverageAgesQuery(), func(row pgx.CollectableRow) (*model.TeamAgeAverage, error) {
		ta := &model.TeamAgeAverage{}
		if err := row.Scan(&ta.TeamName, &ta.AvgAge); err != nil {
			return nil, err
		}
		return ta, nil
	})
}

func (p *pgxMemberQueryRepository) MembersOfTeam(ctx context.Context, teamName string) ([]*Member, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := selectMembers(
		leftJoinTeam(),
		sm.Where(teamCol("name").EQ(psql.Arg(teamName))),
		byMemberID(),
	)

	return collect(ctx, e, q, scanMember)
}

// membersNamedAfterTeamsQuery is a theta join: no relation links the two tables.
func membersNamedAfterTeamsQuery() bob.BaseQuery[*dialect.SelectQuery] {
	return selectMembers(
		sm.CrossJoin(teamTable).As(teamAlias),
		sm.Where(memberCol("username").EQ(teamCol("name"))),
		byMemberID(),
	)
}

func (p *pgxMemberQueryRepository) MembersNamedAfterTeams(ctx context.Context) ([]*Member, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)
	return collect(ctx, e, membersNamedAfterTeamsQuery(), scanMember)
}

// membersWithTeamJoinedOnQuery filters the team inside ON, so members of other teams
// still appear, only without a team.
func membersWithTeamJoinedOnQuery(teamName string) bob.BaseQuery[*dialect.SelectQuery] {
	return psql.Select(
		memberTeamColumns(),
		fromMember(),
		sm.LeftJoin(teamTable).As(teamAlias).On(psql.And(
			memberCol("team_id").EQ(teamCol("team_id")),
			teamCol("name").EQ(psql.Arg(teamName)),
		)),
		byMemberID(),
	)
}

func (p *pgxMemberQueryRepository) MembersWithTeamJoinedOn(ctx context.Context, teamName string) ([]*model.MemberTeam, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)
	return collect(ctx, e, membersWithTeamJoinedOnQuery(teamName), scanMemberTeam)
}

func (p *pgxMemberQueryRepository) MembersJoinedToTeamByName(ctx context.Context) ([]*model.MemberTeam, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		memberTeamColumns(),
		fromMember(),
		sm.InnerJoin(teamTable).As(teamAlias).On(memberCol("username").EQ(teamCol("name"))),
		byMemberID(),
	)

	return collect(ctx, e, q, scanMemberTeam)
}

// FindWithTeam loads a member and its team in one query. Members without a team are not found.
func (p *pgxMemberQueryRepository) FindWithTeam(ctx context.Context, username string) (*model.MemberWithTeam, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		memberTeamColumns(),
		fromMember(),
		innerJoinTeam(),
		sm.Where(memberCol("username").EQ(psql.Arg(username))),
		byMemberID(),
		sm.Limit(1),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	var (
		member = &model.Member{}
		team   = &model.Team{}
	)
	err = e.QueryRow(ctx, sql, args...).Scan(&member.ID, &member.Username, &member.Age, &team.ID, &team.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "find member with team")
	}

	member.ChangeTeam(team)
	return &model.MemberWithTeam{Member: member, Team: team}, nil
}

func maxAgeSubquery() bob.BaseQuery[*dialect.SelectQuery] {
	return psql.Select(
		sm.Columns(psql.F("max", memberSubCol("age"))),
		sm.From(memberTable).As(memberSubAlias),
	)
}

func avgAgeSubquery() bob.BaseQuery[*dialect.SelectQuery] {
	return psql.Select(
		sm.Columns(psql.Raw(`avg("ms"."age")::float8`)),
		sm.From(memberTable).As(memberSubAlias),
	)
}

func (p *pgxMemberQueryRepository) OldestMembers(ctx context.Context) ([]*Member, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := selectMembers(
		sm.Where(memberCol("age").EQ(maxAgeSubquery())),
		byMemberID(),
	)

	return collect(ctx, e, q, scanMember)
}

func (p *pgxMemberQueryRepository) MembersAtLeastAverageAge(ctx context.Context) ([]*Member, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := selectMembers(
		sm.Where(memberCol("age").GTE(avgAgeSubquery())),
		byMemberID(),
	)

	return collect(ctx, e, q, scanMember)
}

// ageInOlderThanQuery selects members whose age is among the ages above age.
// The membership test is written as a correlated EXISTS.
func ageInOlderThanQuery(age int) bob.BaseQuery[*dialect.SelectQuery] {
	sub := psql.Select(
		sm.Columns(psql.Raw("1")),
		sm.From(memberTable).As(memberSubAlias),
		sm.Where(psql.And(
			memberSubCol("age").EQ(memberCol("age")),
			memberSubCol("age").GT(psql.Arg(age)),
		)),
	)

	return selectMembers(
		sm.Where(psql.F("EXISTS", sub)),
		byMemberID(),
	)
}

func (p *pgxMemberQueryRepository) MembersWithAgeInOlderThan(ctx context.Context, age int) ([]*Member, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)
	return collect(ctx, e, ageInOlderThanQuery(age), scanMember)
}

func (p *pgxMemberQueryRepository) UsernamesWithAverageAge(ctx context.Context) ([]*model.UsernameAverage, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns(memberCol("username"), psql.Group(avgAgeSubquery())),
		fromMember(),
		byMemberID(),
	)

	return collect(ctx, e, q, func(row pgx.CollectableRow) (*model.UsernameAverage, error) {
		ua := &model.UsernameAverage{}
		if err := row.Scan(&ua.Username, &ua.AvgAge); err != nil {
			return nil, err
		}
		return ua, nil
	})
}

const (
	ageLabelCase = `CASE "m"."age" WHEN 10 THEN 'ten' WHEN 20 THEN 'twenty' ELSE 'other' END`
	ageBandCase  = `CASE WHEN "m"."age" BETWEEN 0 AND 20 THEN '0~20' WHEN "m"."age" BETWEEN 21 AND 30 THEN '21~30' ELSE 'other' END`
)

func labeledQuery(label bob.Expression, mods ...bob.Mod[*dialect.SelectQuery]) bob.BaseQuery[*dialect.SelectQuery] {
	q := psql.Select(
		sm.Columns(memberCol("username"), label),
		fromMember(),
	)
	q.Apply(mods...)
	q.Apply(byMemberID())
	return q
}

func (p *pgxMemberQueryRepository) AgeLabels(ctx context.Context) ([]*model.LabeledMember, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)
	return collect(ctx, e, labeledQuery(psql.Raw(ageLabelCase)), scanLabeled)
}

func (p *pgxMemberQueryRepository) AgeBands(ctx context.Context) ([]*model.LabeledMember, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)
	return collect(ctx, e, labeledQuery(psql.Raw(ageBandCase)), scanLabeled)
}

func (p *pgxMemberQueryRepository) UsernamesWithConstant(ctx context.Context, constant string) ([]*model.LabeledMember, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)
	return collect(ctx, e, labeledQuery(psql.Raw("?::text", constant)), scanLabeled)
}

func usernameAgeLabelsQuery(age int) bob.BaseQuery[*dialect.SelectQuery] {
	return labeledQuery(
		psql.Raw(`"m"."username" || '_' || "m"."age"::text`),
		sm.Where(memberCol("age").EQ(psql.Arg(age))),
	)
}

// UsernameAgeLabels skips members without a username: the concatenation would be null.
func (p *pgxMemberQueryRepository) UsernameAgeLabels(ctx context.Context, age int) ([]*model.LabeledMember, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := usernameAgeLabelsQuery(age)
	q.Apply(sm.Where(memberCol("username").IsNotNull()))

	return collect(ctx, e, q, scanLabeled)
}

func (p *pgxMemberQueryRepository) MemberSummaries(ctx context.Context) ([]*model.MemberSummary, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns(memberCol("username"), memberCol("age")),
		fromMember(),
		byMemberID(),
	)

	return collect(ctx, e, q, func(row pgx.CollectableRow) (*model.MemberSummary, error) {
		s := &model.MemberSummary{}
		if err := row.Scan(&s.Username, &s.Age); err != nil {
			return nil, err
		}
		return s, nil
	})
}

func userSummariesQuery() bob.BaseQuery[*dialect.SelectQuery] {
	return psql.Select(
		sm.Columns(
			psql.Quote(memberAlias, "username").As("name"),
			psql.Group(maxAgeSubquery()).As("age"),
		),
		fromMember(),
		byMemberID(),
	)
}

// UserSummariesWithMaxAge pairs every username with the maximum age of all members.
func (p *pgxMemberQueryRepository) UserSummariesWithMaxAge(ctx context.Context) ([]*model.UserSummary, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	return collect(ctx, e, userSummariesQuery(), func(row pgx.CollectableRow) (*model.UserSummary, error) {
		s := &model.UserSummary{}
		if err := row.Scan(&s.Name, &s.Age); err != nil {
			return nil, err
		}
		return s, nil
	})
}

func (p *pgxMemberQueryRepository) ReplaceInUsernames(ctx context.Context, from, to string) ([]*model.LabeledMember, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := labeledQuery(
		psql.F("replace", memberCol("username"), psql.Arg(from), psql.Arg(to)),
		sm.Where(memberCol("username").IsNotNull()),
	)

	return collect(ctx, e, q, scanLabeled)
}

func (p *pgxMemberQueryRepository) UsernamesEqualToLower(ctx context.Context) ([]string, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns(memberCol("username")),
		fromMember(),
		sm.Where(memberCol("username").EQ(psql.F("lower", memberCol("username")))),
		byMemberID(),
	)

	return collect(ctx, e, q, pgx.RowTo[string])
}

func (p *pgxMemberQueryRepository) RenameYoungerThan(ctx context.Context, age int, username string) (int64, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Update(
		um.Table(memberTable),
		um.SetCol("username").ToArg(username),
		um.Where(psql.Quote("age").LT(psql.Arg(age))),
	)

	return execAffected(ctx, e, q)
}

func (p *pgxMemberQueryRepository) AddToAllAges(ctx context.Context, delta int) (int64, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Update(
		um.Table(memberTable),
		um.SetCol("age").To(psql.Raw(`"age" + ?`, delta)),
	)

	return execAffected(ctx, e, q)
}

func (p *pgxMemberQueryRepository) MultiplyAllAges(ctx context.Context, factor int) (int64, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Update(
		um.Table(memberTable),
		um.SetCol("age").To(psql.Raw(`"age" * ?`, factor)),
	)

	return execAffected(ctx, e, q)
}

func (p *pgxMemberQueryRepository) DeleteOlderThan(ctx context.Context, age int) (int64, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Delete(
		dm.From(memberTable),
		dm.Where(psql.Quote("age").GT(psql.Arg(age))),
	)

	return execAffected(ctx, e, q)
}
