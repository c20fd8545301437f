package service

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/yakoovad/member-search/internal/model"
	"github.com/yakoovad/member-search/internal/repository"
)

type MockTransactor struct {
	mock.Mock
}

func (m *MockTransactor) WithinTransaction(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type MockTeamRepository struct {
	mock.Mock
}

func (m *MockTeamRepository) Create(ctx context.Context, team *repository.Team) error {
	args := m.Called(ctx, team)
	return args.Error(0)
}

func (m *MockTeamRepository) Get(ctx context.Context, id int64) (*repository.Team, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Team), args.Error(1)
}

func (m *MockTeamRepository) GetByName(ctx context.Context, name string) (*repository.Team, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Team), args.Error(1)
}

func (m *MockTeamRepository) GetTeamMembers(ctx context.Context, teamID int64) ([]*repository.Member, error) {
	args := m.Called(ctx, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.Member), args.Error(1)
}

type MockMemberRepository struct {
	mock.Mock
}

func (m *MockMemberRepository) Save(ctx context.Context, member *repository.Member) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

func (m *MockMemberRepository) FindByID(ctx context.Context, id int64) (*repository.Member, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Member), args.Error(1)
}

func (m *MockMemberRepository) CountAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMemberRepository) FindAll(ctx context.Context) ([]*repository.Member, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.Member), args.Error(1)
}

func (m *MockMemberRepository) FindByUsername(ctx context.Context, username string) ([]*repository.Member, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.Member), args.Error(1)
}

func (m *MockMemberRepository) SearchByBuilder(ctx context.Context, cond *model.MemberSearchCondition) ([]*model.MemberTeam, error) {
	args := m.Called(ctx, cond)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.MemberTeam), args.Error(1)
}

func (m *MockMemberRepository) Search(ctx context.Context, cond *model.MemberSearchCondition) ([]*model.MemberTeam, error) {
	args := m.Called(ctx, cond)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.MemberTeam), args.Error(1)
}

func (m *MockMemberRepository) SearchPageSimple(ctx context.Context, cond *model.MemberSearchCondition, page model.PageRequest) (*model.Page[*model.MemberTeam], error) {
	args := m.Called(ctx, cond, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Page[*model.MemberTeam]), args.Error(1)
}

func (m *MockMemberRepository) SearchPageComplex(ctx context.Context, cond *model.MemberSearchCondition, page model.PageRequest) (*model.Page[*model.MemberTeam], error) {
	args := m.Called(ctx, cond, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Page[*model.MemberTeam]), args.Error(1)
}

func (m *MockMemberRepository) SearchPageOptimized(ctx context.Context, cond *model.MemberSearchCondition, page model.PageRequest) (*model.Page[*model.MemberTeam], error) {
	args := m.Called(ctx, cond, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Page[*model.MemberTeam]), args.Error(1)
}

func (m *MockMemberRepository) SearchMembersPage(ctx context.Context, cond *model.MemberSearchCondition, page model.PageRequest) (*model.Page[*repository.Member], error) {
	args := m.Called(ctx, cond, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Page[*repository.Member]), args.Error(1)
}

func (m *MockMemberRepository) SearchMembersPageSeparateCount(ctx context.Context, cond *model.MemberSearchCondition, page model.PageRequest) (*model.Page[*repository.Member], error) {
	args := m.Called(ctx, cond, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Page[*repository.Member]), args.Error(1)
}

type MockMemberQueryRepository struct {
	mock.Mock
}

func (m *MockMemberQueryRepository) PageByUsernameDesc(ctx context.Context, offset, limit int64) ([]*repository.Member, int64, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*repository.Member), args.Get(1).(int64), args.Error(2)
}

func (m *MockMemberQueryRepository) FindOne(ctx context.Context, username string, age int) (*repository.Member, error) {
	args := m.Called(ctx, username, age)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Member), args.Error(1)
}

func (m *MockMemberQueryRepository) FindFirst(ctx context.Context) (*repository.Member, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Member), args.Error(1)
}

func (m *MockMemberQueryRepository) SortedByAgeDescUsernameAscNullsLast(ctx context.Context, age int) ([]*repository.Member, error) {
	args := m.Called(ctx, age)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.Member), args.Error(1)
}

func (m *MockMemberQueryRepository) AgeStats(ctx context.Context) (*model.AgeStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AgeStats), args.Error(1)
}

func (m *MockMemberQueryRepository) TeamAverageAges(ctx context.Context) ([]*model.TeamAgeAverage, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.TeamAgeAverage), args.Error(1)
}

func (m *MockMemberQueryRepository) MembersOfTeam(ctx context.Context, teamName string) ([]*repository.Member, error) {
	args := m.Called(ctx, teamName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.Member), args.Error(1)
}

func (m *MockMemberQueryRepository) MembersNamedAfterTeams(ctx context.Context) ([]*repository.Member, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.Member), args.Error(1)
}

func (m *MockMemberQueryRepository) MembersWithTeamJoinedOn(ctx context.Context, teamName string) ([]*model.MemberTeam, error) {
	args := m.Called(ctx, teamName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.MemberTeam), args.Error(1)
}

func (m *MockMemberQueryRepository) MembersJoinedToTeamByName(ctx context.Context) ([]*model.MemberTeam, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.MemberTeam), args.Error(1)
}

func (m *MockMemberQueryRepository) FindWithTeam(ctx context.Context, username string) (*model.MemberWithTeam, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MemberWithTeam), args.Error(1)
}

func (m *MockMemberQueryRepository) OldestMembers(ctx context.Context) ([]*repository.Member, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.Member), args.Error(1)
}

func (m *MockMemberQueryRepository) MembersAtLeastAverageAge(ctx context.Context) ([]*repository.Member, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.Member), args.Error(1)
}

func (m *MockMemberQueryRepository) MembersWithAgeInOlderThan(ctx context.Context, age int) ([]*repository.Member, error) {
	args := m.Called(ctx, age)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.Member), args.Error(1)
}

func (m *MockMemberQueryRepository) UsernamesWithAverageAge(ctx context.Context) ([]*model.UsernameAverage, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.UsernameAverage), args.Error(1)
}

func (m *MockMemberQueryRepository) AgeLabels(ctx context.Context) ([]*model.LabeledMember, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.LabeledMember), args.Error(1)
}

func (m *MockMemberQueryRepository) AgeBands(ctx context.Context) ([]*model.LabeledMember, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.LabeledMember), args.Error(1)
}

func (m *MockMemberQueryRepository) UsernamesWithConstant(ctx context.Context, constant string) ([]*model.LabeledMember, error) {
	args := m.Called(ctx, constant)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.LabeledMember), args.Error(1)
}

func (m *MockMemberQueryRepository) UsernameAgeLabels(ctx context.Context, age int) ([]*model.LabeledMember, error) {
	args := m.Called(ctx, age)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.LabeledMember), args.Error(1)
}

func (m *MockMemberQueryRepository) MemberSummaries(ctx context.Context) ([]*model.MemberSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.MemberSummary), args.Error(1)
}

func (m *MockMemberQueryRepository) UserSummariesWithMaxAge(ctx context.Context) ([]*model.UserSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.UserSummary), args.Error(1)
}

func (m *MockMemberQueryRepository) ReplaceInUsernames(ctx context.Context, from string, to string) ([]*model.LabeledMember, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.LabeledMember), args.Error(1)
}

func (m *MockMemberQueryRepository) UsernamesEqualToLower(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockMemberQueryRepository) RenameYoungerThan(ctx context.Context, age int, username string) (int64, error) {
	args := m.Called(ctx, age, username)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMemberQueryRepository) AddToAllAges(ctx context.Context, delta int) (int64, error) {
	args := m.Called(ctx, delta)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMemberQueryRepository) MultiplyAllAges(ctx context.Context, factor int) (int64, error) {
	args := m.Called(ctx, factor)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMemberQueryRepository) DeleteOlderThan(ctx context.Context, age int) (int64, error) {
	args := m.Called(ctx, age)
	return args.Get(0).(int64), args.Error(1)
}
