package service

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/yakoovad/member-search/internal/db"
	"github.com/yakoovad/member-search/internal/model"
	"github.com/yakoovad/member-search/internal/repository"
	"github.com/yakoovad/member-search/pkg/logger"
	"go.uber.org/zap"
)

type SearchStyle string

const (
	SearchStyleBuilder SearchStyle = "builder"
	SearchStyleWhere   SearchStyle = "where"
)

type PageMode string

const (
	PageModeSimple    PageMode = "simple"
	PageModeComplex   PageMode = "complex"
	PageModeOptimized PageMode = "optimized"
)

type MemberService struct {
	tx db.Transactor

	members repository.MemberRepository
	teams   repository.TeamRepository
	queries repository.MemberQueryRepository

	maxPageSize int
}

func NewMemberService(tx db.Transactor) *MemberService {
	return &MemberService{
		tx:          tx,
		maxPageSize: defaultMaxPageSize,
	}
}

// Join creates a member, optionally as part of an existing team.
func (s *MemberService) Join(ctx context.Context, member *model.Member, teamID *int64) *Error {
	l := logger.FromContext(ctx)
	l.Info("member joining", zap.String("username", member.Name()), zap.Int("age", member.Age))

	if member.Age < 0 {
		return NewError(ErrorCodeInvalidBody, "age must not be negative")
	}

	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if teamID != nil {
			teamRow, err := s.teams.Get(txCtx, *teamID)
			if errors.Is(err, repository.ErrNotFound) {
				l.Warn("team not found", zap.Int64("team_id", *teamID))
				return NewError(ErrorCodeNotFound, "team not found")
			}
			if err != nil {
				l.Error("failed to get team", zap.Int64("team_id", *teamID), zap.Error(err))
				return NewError(ErrorCodeUnspecified, "failed to get team")
			}
			member.ChangeTeam(&model.Team{ID: teamRow.ID, Name: teamRow.Name})
		}

		row := &repository.Member{
			Username: member.Username,
			Age:      member.Age,
			TeamID:   member.TeamID(),
		}
		err := s.members.Save(txCtx, row)
		if errors.Is(err, repository.ErrNotFound) {
			return NewError(ErrorCodeNotFound, "team not found")
		}
		if err != nil {
			l.Error("failed to save member", zap.String("username", member.Name()), zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to save member")
		}
		member.ID = row.ID

		return nil
	})

	var res *Error
	if err != nil && !errors.As(err, &res) {
		l.Error("transaction failed", zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to save member")
	}

	return res
}

func (s *MemberService) GetMember(ctx context.Context, id int64) (*model.Member, *Error) {
	l := logger.FromContext(ctx)
	l.Debug("getting member", zap.Int64("member_id", id))

	row, err := s.members.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		l.Warn("member not found", zap.Int64("member_id", id))
		return nil, NewError(ErrorCodeNotFound, "member not found")
	}
	if err != nil {
		l.Error("failed to get member", zap.Int64("member_id", id), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to get member")
	}

	member := toModelMember(row)
	if row.TeamID != nil {
		teamRow, err := s.teams.Get(ctx, *row.TeamID)
		if err != nil {
			l.Error("failed to get member team", zap.Int64("member_id", id), zap.Error(err))
			return nil, NewError(ErrorCodeUnspecified, "failed to get member team")
		}
		member.ChangeTeam(&model.Team{ID: teamRow.ID, Name: teamRow.Name})
	}

	return member, nil
}

// ListMembers returns every member, or only those with the given username.
func (s *MemberService) ListMembers(ctx context.Context, username *string) ([]*model.Member, *Error) {
	l := logger.FromContext(ctx)

	var (
		rows []*repository.Member
		err  error
	)
	if model.HasText(username) {
		l.Debug("listing members by username", zap.String("username", *username))
		rows, err = s.members.FindByUsername(ctx, *username)
	} else {
		l.Debug("listing all members")
		rows, err = s.members.FindAll(ctx)
	}
	if err != nil {
		l.Error("failed to list members", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list members")
	}

	members := make([]*model.Member, 0, len(rows))
	for _, row := range rows {
		members = append(members, withTeamRef(row))
	}
	return members, nil
}

// Search runs an unpaged search. A condition that puts no constraint on the chosen style
// would scan the whole table, so it is rejected.
func (s *MemberService) Search(ctx context.Context, cond *model.MemberSearchCondition, style SearchStyle) ([]*model.MemberTeam, *Error) {
	l := logger.FromContext(ctx)
	l.Debug("searching members", zap.String("style", string(style)), zap.Any("condition", cond))

	if err := validateCondition(cond); err != nil {
		return nil, err
	}

	var (
		search   func(context.Context, *model.MemberSearchCondition) ([]*model.MemberTeam, error)
		filtered bool
	)
	switch style {
	case SearchStyleBuilder:
		search, filtered = s.members.SearchByBuilder, repository.FiltersBuilder(cond)
	case SearchStyleWhere, "":
		search, filtered = s.members.Search, repository.FiltersWhere(cond)
	default:
		return nil, NewError(ErrorCodeInvalidCondition, fmt.Sprintf("unknown search style %q", style))
	}
	if !filtered {
		l.Warn("rejected unpaged search without filter", zap.String("style", string(style)))
		return nil, NewError(ErrorCodeEmptyFilter, "at least one filter is required for an unpaged search")
	}

	items, err := search(ctx, cond)
	if err != nil {
		l.Error("failed to search members", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to search members")
	}

	return items, nil
}

func (s *MemberService) SearchPage(ctx context.Context, cond *model.MemberSearchCondition, page model.PageRequest, mode PageMode) (*model.Page[*model.MemberTeam], *Error) {
	l := logger.FromContext(ctx)
	l.Debug("searching member page",
		zap.String("mode", string(mode)),
		zap.Int("page", page.Page),
		zap.Int("size", page.Size),
		zap.Any("condition", cond))

	if err := validateCondition(cond); err != nil {
		return nil, err
	}
	if err := validatePage(page, s.maxPageSize); err != nil {
		return nil, err
	}

	var (
		res *model.Page[*model.MemberTeam]
		err error
	)
	switch mode {
	case PageModeSimple:
		res, err = s.members.SearchPageSimple(ctx, cond, page)
	case PageModeComplex:
		res, err = s.members.SearchPageComplex(ctx, cond, page)
	case PageModeOptimized, "":
		res, err = s.members.SearchPageOptimized(ctx, cond, page)
	default:
		return nil, NewError(ErrorCodeInvalidPage, fmt.Sprintf("unknown page mode %q", mode))
	}
	if err != nil {
		return nil, pageError(l, err)
	}

	return res, nil
}

// SearchMembersPage pages member rows; only the team id of each member is known.
func (s *MemberService) SearchMembersPage(ctx context.Context, cond *model.MemberSearchCondition, page model.PageRequest) (*model.Page[*model.Member], *Error) {
	l := logger.FromContext(ctx)
	l.Debug("searching members page", zap.Int("page", page.Page), zap.Int("size", page.Size))

	if err := validateCondition(cond); err != nil {
		return nil, err
	}
	if err := validatePage(page, s.maxPageSize); err != nil {
		return nil, err
	}

	res, err := s.members.SearchMembersPage(ctx, cond, page)
	if err != nil {
		return nil, pageError(l, err)
	}

	return model.Map(res, withTeamRef), nil
}

func (s *MemberService) GetMemberWithTeam(ctx context.Context, username string) (*model.MemberWithTeam, *Error) {
	l := logger.FromContext(ctx)
	l.Debug("getting member with team", zap.String("username", username))

	res, err := s.queries.FindWithTeam(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		l.Warn("member with team not found", zap.String("username", username))
		return nil, NewError(ErrorCodeNotFound, "member with team not found")
	}
	if err != nil {
		l.Error("failed to get member with team", zap.String("username", username), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to get member with team")
	}

	return res, nil
}

func (s *MemberService) WithMemberRepo(r repository.MemberRepository) *MemberService {
	s.members = r
	return s
}

func (s *MemberService) WithTeamRepo(r repository.TeamRepository) *MemberService {
	s.teams = r
	return s
}

func (s *MemberService) WithQueryRepo(r repository.MemberQueryRepository) *MemberService {
	s.queries = r
	return s
}

func (s *MemberService) WithMaxPageSize(size int) *MemberService {
	if size > 0 {
		s.maxPageSize = size
	}
	return s
}

func pageError(l *zap.Logger, err error) *Error {
	if errors.Is(err, repository.ErrUnknownSortProperty) {
		l.Warn("invalid sort property", zap.Error(err))
		return NewError(ErrorCodeInvalidPage, err.Error())
	}
	l.Error("failed to search member page", zap.Error(err))
	return NewError(ErrorCodeUnspecified, "failed to search members")
}

// withTeamRef converts a row and attaches a team that carries only its id.
func withTeamRef(row *repository.Member) *model.Member {
	m := toModelMember(row)
	if row.TeamID != nil {
		m.ChangeTeam(&model.Team{ID: *row.TeamID})
	}
	return m
}
