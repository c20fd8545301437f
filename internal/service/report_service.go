package service

import (
	"context"

	"github.com/pkg/errors"
	"github.com/yakoovad/member-search/internal/db"
	"github.com/yakoovad/member-search/internal/model"
	"github.com/yakoovad/member-search/internal/repository"
	"github.com/yakoovad/member-search/pkg/logger"
	"go.uber.org/zap"
)

// ReportService exposes the query catalogue and the bulk member updates.
type ReportService struct {
	tx db.Transactor

	queries repository.MemberQueryRepository
}

func NewReportService(tx db.Transactor) *ReportService {
	return &ReportService{
		tx: tx,
	}
}

func (r *ReportService) WithQueryRepo(q repository.MemberQueryRepository) *ReportService {
	r.queries = q
	return r
}

func runReport[T any](ctx context.Context, name string, fn func(context.Context) (T, error)) (T, *Error) {
	l := logger.FromContext(ctx)
	l.Debug("running report", zap.String("report", name))

	res, err := fn(ctx)
	if err == nil {
		return res, nil
	}

	var zero T
	switch {
	case errors.Is(err, repository.ErrNotFound):
		l.Warn("report found nothing", zap.String("report", name))
		return zero, NewError(ErrorCodeNotFound, name+": no matching member")
	case errors.Is(err, repository.ErrNotUnique):
		l.Warn("report matched several members", zap.String("report", name))
		return zero, NewError(ErrorCodeInvalidCondition, name+": more than one member matched")
	default:
		l.Error("report failed", zap.String("report", name), zap.Error(err))
		return zero, NewError(ErrorCodeUnspecified, name+" failed")
	}
}

func members(rows []*repository.Member) []*model.Member {
	out := make([]*model.Member, 0, len(rows))
	for _, row := range rows {
		out = append(out, withTeamRef(row))
	}
	return out
}

func listReport(ctx context.Context, name string, fn func(context.Context) ([]*repository.Member, error)) ([]*model.Member, *Error) {
	rows, err := runReport(ctx, name, fn)
	if err != nil {
		return nil, err
	}
	return members(rows), nil
}

func memberReport(ctx context.Context, name string, fn func(context.Context) (*repository.Member, error)) (*model.Member, *Error) {
	row, err := runReport(ctx, name, fn)
	if err != nil {
		return nil, err
	}
	return withTeamRef(row), nil
}

func (r *ReportService) FindOne(ctx context.Context, username string, age int) (*model.Member, *Error) {
	return memberReport(ctx, "find one", func(ctx context.Context) (*repository.Member, error) {
		return r.queries.FindOne(ctx, username, age)
	})
}

func (r *ReportService) FindFirst(ctx context.Context) (*model.Member, *Error) {
	return memberReport(ctx, "find first", r.queries.FindFirst)
}

func (r *ReportService) SortedByAge(ctx context.Context, age int) ([]*model.Member, *Error) {
	return listReport(ctx, "sorted by age", func(ctx context.Context) ([]*repository.Member, error) {
		return r.queries.SortedByAgeDescUsernameAscNullsLast(ctx, age)
	})
}

// PageByUsername pages members by username descending. Only page and size of the request are used.
func (r *ReportService) PageByUsername(ctx context.Context, page model.PageRequest) (*model.Page[*model.Member], *Error) {
	if err := validatePage(page, defaultMaxPageSize); err != nil {
		return nil, err
	}

	var total int64
	rows, err := runReport(ctx, "page by username", func(ctx context.Context) ([]*repository.Member, error) {
		rows, n, err := r.queries.PageByUsernameDesc(ctx, page.Offset(), int64(page.Size))
		total = n
		return rows, err
	})
	if err != nil {
		return nil, err
	}
	return model.NewPage(members(rows), page, total), nil
}

func (r *ReportService) AgeStats(ctx context.Context) (*model.AgeStats, *Error) {
	return runReport(ctx, "age stats", r.queries.AgeStats)
}

func (r *ReportService) TeamAverageAges(ctx context.Context) ([]*model.TeamAgeAverage, *Error) {
	return runReport(ctx, "team average ages", r.queries.TeamAverageAges)
}

func (r *ReportService) MembersOfTeam(ctx context.Context, teamName string) ([]*model.Member, *Error) {
	return listReport(ctx, "members of team", func(ctx context.Context) ([]*repository.Member, error) {
		return r.queries.MembersOfTeam(ctx, teamName)
	})
}

func (r *ReportService) MembersNamedAfterTeams(ctx context.Context) ([]*model.Member, *Error) {
	return listReport(ctx, "members named after teams", r.queries.MembersNamedAfterTeams)
}

func (r *ReportService) MembersWithTeamJoinedOn(ctx context.Context, teamName string) ([]*model.MemberTeam, *Error) {
	return runReport(ctx, "members with team joined on", func(ctx context.Context) ([]*model.MemberTeam, error) {
		return r.queries.MembersWithTeamJoinedOn(ctx, teamName)
	})
}

func (r *ReportService) MembersJoinedToTeamByName(ctx context.Context) ([]*model.MemberTeam, *Error) {
	return runReport(ctx, "members joined to team by name", r.queries.MembersJoinedToTeamByName)
}

func (r *ReportService) OldestMembers(ctx context.Context) ([]*model.Member, *Error) {
	return listReport(ctx, "oldest members", r.queries.OldestMembers)
}

func (r *ReportService) MembersAtLeastAverageAge(ctx context.Context) ([]*model.Member, *Error) {
	return listReport(ctx, "members at least average age", r.queries.MembersAtLeastAverageAge)
}

func (r *ReportService) MembersWithAgeInOlderThan(ctx context.Context, age int) ([]*model.Member, *Error) {
	return listReport(ctx, "members with age in older than", func(ctx context.Context) ([]*repository.Member, error) {
		return r.queries.MembersWithAgeInOlderThan(ctx, age)
	})
}

func (r *ReportService) UsernamesWithAverageAge(ctx context.Context) ([]*model.UsernameAverage, *Error) {
	return runReport(ctx, "usernames with average age", r.queries.UsernamesWithAverageAge)
}

func (r *ReportService) AgeLabels(ctx context.Context) ([]*model.LabeledMember, *Error) {
	return runReport(ctx, "age labels", r.queries.AgeLabels)
}

func (r *ReportService) AgeBands(ctx context.Context) ([]*model.LabeledMember, *Error) {
	return runReport(ctx, "age bands", r.queries.AgeBands)
}

func (r *ReportService) UsernamesWithConstant(ctx context.Context, constant string) ([]*model.LabeledMember, *Error) {
	return runReport(ctx, "usernames with constant", func(ctx context.Context) ([]*model.LabeledMember, error) {
		return r.queries.UsernamesWithConstant(ctx, constant)
	})
}

func (r *ReportService) UsernameAgeLabels(ctx context.Context, age int) ([]*model.LabeledMember, *Error) {
	return runReport(ctx, "username age labels", func(ctx context.Context) ([]*model.LabeledMember, error) {
		return r.queries.UsernameAgeLabels(ctx, age)
	})
}

func (r *ReportService) MemberSummaries(ctx context.Context) ([]*model.MemberSummary, *Error) {
	return runReport(ctx, "member summaries", r.queries.MemberSummaries)
}

func (r *ReportService) UserSummariesWithMaxAge(ctx context.Context) ([]*model.UserSummary, *Error) {
	return runReport(ctx, "user summaries", r.queries.UserSummariesWithMaxAge)
}

func (r *ReportService) ReplaceInUsernames(ctx context.Context, from, to string) ([]*model.LabeledMember, *Error) {
	return runReport(ctx, "replace in usernames", func(ctx context.Context) ([]*model.LabeledMember, error) {
		return r.queries.ReplaceInUsernames(ctx, from, to)
	})
}

func (r *ReportService) UsernamesEqualToLower(ctx context.Context) ([]string, *Error) {
	return runReport(ctx, "usernames equal to lower", r.queries.UsernamesEqualToLower)
}

// bulk runs a bulk statement in its own transaction and returns the affected row count.
func (r *ReportService) bulk(ctx context.Context, name string, fn func(context.Context) (int64, error)) (int64, *Error) {
	l := logger.FromContext(ctx)
	l.Info("running bulk operation", zap.String("operation", name))

	var affected int64
	err := r.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		n, err := fn(txCtx)
		if err != nil {
			return err
		}
		affected = n
		return nil
	})
	if err != nil {
		l.Error("bulk operation failed", zap.String("operation", name), zap.Error(err))
		return 0, NewError(ErrorCodeUnspecified, name+" failed")
	}

	l.Info("bulk operation done", zap.String("operation", name), zap.Int64("affected", affected))
	return affected, nil
}

func (r *ReportService) RenameYoungerThan(ctx context.Context, age int, username string) (int64, *Error) {
	return r.bulk(ctx, "rename younger than", func(ctx context.Context) (int64, error) {
		return r.queries.RenameYoungerThan(ctx, age, username)
	})
}

// AdjustAges adds delta and then multiplies by factor, both in one transaction. Nil steps are skipped.
func (r *ReportService) AdjustAges(ctx context.Context, delta, factor *int) (int64, *Error) {
	if delta == nil && factor == nil {
		return 0, NewError(ErrorCodeInvalidBody, "add or multiply is required")
	}

	return r.bulk(ctx, "adjust ages", func(ctx context.Context) (int64, error) {
		var affected int64
		if delta != nil {
			n, err := r.queries.AddToAllAges(ctx, *delta)
			if err != nil {
				return 0, err
			}
			affected = n
		}
		if factor != nil {
			n, err := r.queries.MultiplyAllAges(ctx, *factor)
			if err != nil {
				return 0, err
			}
			affected = n
		}
		return affected, nil
	})
}

func (r *ReportService) DeleteOlderThan(ctx context.Context, age int) (int64, *Error) {
	return r.bulk(ctx, "delete older than", func(ctx context.Context) (int64, error) {
		return r.queries.DeleteOlderThan(ctx, age)
	})
}
