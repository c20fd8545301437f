//go:build integration

package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/yakoovad/member-search/internal/db"
	"github.com/yakoovad/member-search/internal/model"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:17",
		postgres.WithDatabase("member_search"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		panic(err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		panic(err)
	}

	if err = db.NewMigrator(dsn).Up(ctx); err != nil {
		panic(err)
	}

	testPool, err = pgxpool.New(ctx, dsn)
	if err != nil {
		panic(err)
	}

	code := m.Run()

	testPool.Close()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

type fixture struct {
	teams   TeamRepository
	members MemberRepository
	queries MemberQueryRepository
	teamIDs map[string]int64
}

// newFixture resets the tables and inserts teamA{member1:10, member2:20} and teamB{member3:30, member4:40}.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	_, err := testPool.Exec(ctx, "TRUNCATE member, team RESTART IDENTITY CASCADE")
	require.NoError(t, err)

	f := &fixture{
		teams:   NewPgxTeamRepository(testPool),
		members: NewPgxMemberRepository(testPool),
		queries: NewPgxMemberQueryRepository(testPool),
		teamIDs: map[string]int64{},
	}

	for _, name := range []string{"teamA", "teamB"} {
		team := &Team{Name: name}
		require.NoError(t, f.teams.Create(ctx, team))
		f.teamIDs[name] = team.ID
	}

	f.addMember(t, strPtr("member1"), 10, "teamA")
	f.addMember(t, strPtr("member2"), 20, "teamA")
	f.addMember(t, strPtr("member3"), 30, "teamB")
	f.addMember(t, strPtr("member4"), 40, "teamB")
	return f
}

func (f *fixture) addMember(t *testing.T, username *string, age int, teamName string) *Member {
	t.Helper()

	m := &Member{Username: username, Age: age}
	if id, ok := f.teamIDs[teamName]; ok {
		m.TeamID = &id
	}
	require.NoError(t, f.members.Save(context.Background(), m))
	return m
}

func usernames(members []*Member) []string {
	out := make([]string, 0, len(members))
	for _, m := range members {
		if m.Username == nil {
			out = append(out, "<nil>")
			continue
		}
		out = append(out, *m.Username)
	}
	return out
}

func TestIntegration_TeamRepository(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.teams.Create(ctx, &Team{Name: "teamA"})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	team, err := f.teams.GetByName(ctx, "teamB")
	require.NoError(t, err)
	assert.Equal(t, f.teamIDs["teamB"], team.ID)

	_, err = f.teams.Get(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	members, err := f.teams.GetTeamMembers(ctx, team.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"member3", "member4"}, usernames(members))
}

func TestIntegration_MemberRepository(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	missing := int64(999)
	err := f.members.Save(ctx, &Member{Username: strPtr("ghost"), Age: 1, TeamID: &missing})
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := f.members.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)

	found, err := f.members.FindByID(ctx, all[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "member1", *found.Username)

	_, err = f.members.FindByID(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	byName, err := f.members.FindByUsername(ctx, "member2")
	require.NoError(t, err)
	assert.Equal(t, []string{"member2"}, usernames(byName))

	total, err := f.members.CountAll(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
}

func TestIntegration_SearchStyles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cond := &model.MemberSearchCondition{TeamName: strPtr("teamB"), AgeGoe: intPtr(35), AgeLoe: intPtr(40)}

	byBuilder, err := f.members.SearchByBuilder(ctx, cond)
	require.NoError(t, err)
	byWhere, err := f.members.Search(ctx, cond)
	require.NoError(t, err)

	require.Len(t, byBuilder, 1)
	assert.Equal(t, "member4", *byBuilder[0].Username)
	assert.Equal(t, byBuilder, byWhere)
}

func TestIntegration_SearchPages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	empty := &model.MemberSearchCondition{}
	variants := map[string]func(context.Context, *model.MemberSearchCondition, model.PageRequest) (*model.Page[*model.MemberTeam], error){
		"simple":    f.members.SearchPageSimple,
		"complex":   f.members.SearchPageComplex,
		"optimized": f.members.SearchPageOptimized,
	}

	for name, search := range variants {
		t.Run(name, func(t *testing.T) {
			first, err := search(ctx, empty, model.NewPageRequest(0, 3))
			require.NoError(t, err)
			assert.Len(t, first.Content, 3)
			assert.EqualValues(t, 4, first.Total)
			assert.True(t, first.HasNext())

			last, err := search(ctx, empty, model.NewPageRequest(1, 3))
			require.NoError(t, err)
			assert.Len(t, last.Content, 1)
			assert.EqualValues(t, 4, last.Total)
			assert.True(t, last.IsLast())

			past, err := search(ctx, empty, model.NewPageRequest(5, 3))
			require.NoError(t, err)
			assert.Empty(t, past.Content)
			assert.EqualValues(t, 4, past.Total)
		})
	}
}

func TestIntegration_SearchMembersPage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	page := model.NewPageRequest(0, 2, model.SortOrder{Property: "username", Direction: model.Desc})
	cond := &model.MemberSearchCondition{}

	derived, err := f.members.SearchMembersPage(ctx, cond, page)
	require.NoError(t, err)
	assert.Equal(t, []string{"member4", "member3"}, usernames(derived.Content))
	assert.EqualValues(t, 4, derived.Total)

	separate, err := f.members.SearchMembersPageSeparateCount(ctx, cond, page)
	require.NoError(t, err)
	assert.Equal(t, derived, separate)
}

func TestIntegration_BasicQueries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m, err := f.queries.FindOne(ctx, "member1", 10)
	require.NoError(t, err)
	assert.Equal(t, 10, m.Age)

	_, err = f.queries.FindOne(ctx, "member1", 11)
	assert.ErrorIs(t, err, ErrNotFound)

	f.addMember(t, strPtr("member1"), 10, "")
	_, err = f.queries.FindOne(ctx, "member1", 10)
	assert.ErrorIs(t, err, ErrNotUnique)

	first, err := f.queries.FindFirst(ctx)
	require.NoError(t, err)
	assert.Equal(t, "member1", *first.Username)
}

func TestIntegration_SortNullsLast(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addMember(t, nil, 100, "")
	f.addMember(t, strPtr("member5"), 100, "")
	f.addMember(t, strPtr("member6"), 100, "")

	sorted, err := f.queries.SortedByAgeDescUsernameAscNullsLast(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, []string{"member5", "member6", "<nil>"}, usernames(sorted))
}

func TestIntegration_Paging(t *testing.T) {
	f := newFixture(t)

	members, total, err := f.queries.PageByUsernameDesc(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"member3", "member2"}, usernames(members))
	assert.EqualValues(t, 4, total)
}

func TestIntegration_Aggregates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	stats, err := f.queries.AgeStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.AgeStats{Count: 4, Sum: 100, Avg: 25, Max: 40, Min: 10}, *stats)

	avgs, err := f.queries.TeamAverageAges(ctx)
	require.NoError(t, err)
	require.Len(t, avgs, 2)
	assert.Equal(t, model.TeamAgeAverage{TeamName: "teamA", AvgAge: 15}, *avgs[0])
	assert.Equal(t, model.TeamAgeAverage{TeamName: "teamB", AvgAge: 35}, *avgs[1])
}

func TestIntegration_Joins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ofTeam, err := f.queries.MembersOfTeam(ctx, "teamA")
	require.NoError(t, err)
	assert.Equal(t, []string{"member1", "member2"}, usernames(ofTeam))

	f.addMember(t, strPtr("teamA"), 0, "")
	f.addMember(t, strPtr("teamB"), 0, "")
	f.addMember(t, strPtr("teamC"), 0, "")

	theta, err := f.queries.MembersNamedAfterTeams(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"teamA", "teamB"}, usernames(theta))

	joinedOn, err := f.queries.MembersWithTeamJoinedOn(ctx, "teamA")
	require.NoError(t, err)
	require.Len(t, joinedOn, 7)
	assert.Equal(t, "teamA", *joinedOn[0].TeamName)
	assert.Equal(t, "teamA", *joinedOn[1].TeamName)
	assert.Nil(t, joinedOn[2].TeamName)

	byName, err := f.queries.MembersJoinedToTeamByName(ctx)
	require.NoError(t, err)
	require.Len(t, byName, 2)
	assert.Equal(t, "teamA", *byName[0].TeamName)

	withTeam, err := f.queries.FindWithTeam(ctx, "member1")
	require.NoError(t, err)
	assert.Equal(t, "teamA", withTeam.Team.Name)
	assert.Same(t, withTeam.Team, withTeam.Member.Team)
	assert.Contains(t, withTeam.Team.Members, withTeam.Member)

	_, err = f.queries.FindWithTeam(ctx, "teamC")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIntegration_Subqueries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	oldest, err := f.queries.OldestMembers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"member4"}, usernames(oldest))

	aboveAvg, err := f.queries.MembersAtLeastAverageAge(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"member3", "member4"}, usernames(aboveAvg))

	in, err := f.queries.MembersWithAgeInOlderThan(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"member2", "member3", "member4"}, usernames(in))

	withAvg, err := f.queries.UsernamesWithAverageAge(ctx)
	require.NoError(t, err)
	require.Len(t, withAvg, 4)
	for _, ua := range withAvg {
		assert.Equal(t, 25.0, ua.AvgAge)
	}

	summaries, err := f.queries.UserSummariesWithMaxAge(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 4)
	assert.Equal(t, "member1", *summaries[0].Name)
	assert.Equal(t, 40, summaries[0].Age)
}

func labels(items []*model.LabeledMember) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Label)
	}
	return out
}

func TestIntegration_Expressions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ageLabels, err := f.queries.AgeLabels(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ten", "twenty", "other", "other"}, labels(ageLabels))

	bands, err := f.queries.AgeBands(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"0~20", "0~20", "21~30", "other"}, labels(bands))

	constants, err := f.queries.UsernamesWithConstant(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "A", "A", "A"}, labels(constants))

	concat, err := f.queries.UsernameAgeLabels(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"member1_10"}, labels(concat))

	replaced, err := f.queries.ReplaceInUsernames(ctx, "member", "M")
	require.NoError(t, err)
	assert.Equal(t, []string{"M1", "M2", "M3", "M4"}, labels(replaced))

	lower, err := f.queries.UsernamesEqualToLower(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"member1", "member2", "member3", "member4"}, lower)

	summaries, err := f.queries.MemberSummaries(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 4)
	assert.Equal(t, 40, summaries[3].Age)
}

func TestIntegration_BulkOperations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	renamed, err := f.queries.RenameYoungerThan(ctx, 28, "nonmember")
	require.NoError(t, err)
	assert.EqualValues(t, 2, renamed)

	// bulk writes go straight to storage, the next read sees them
	all, err := f.members.FindAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"nonmember", "nonmember", "member3", "member4"}, usernames(all))

	added, err := f.queries.AddToAllAges(ctx, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 4, added)

	multiplied, err := f.queries.MultiplyAllAges(ctx, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 4, multiplied)

	stats, err := f.queries.AgeStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 22, stats.Min)
	assert.Equal(t, 82, stats.Max)

	deleted, err := f.queries.DeleteOlderThan(ctx, 40)
	require.NoError(t, err)
	assert.EqualValues(t, 3, deleted)
}

func TestIntegration_TransactionScope(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tx := db.NewPgxTransactor(testPool)

	err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
		team := &Team{Name: "teamC"}
		if err := f.teams.Create(ctx, team); err != nil {
			return err
		}
		if err := f.members.Save(ctx, &Member{Username: strPtr("member5"), Age: 50, TeamID: &team.ID}); err != nil {
			return err
		}
		return f.teams.Create(ctx, &Team{Name: "teamA"})
	})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	_, err = f.teams.GetByName(ctx, "teamC")
	assert.ErrorIs(t, err, ErrNotFound)
	total, err := f.members.CountAll(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
}
