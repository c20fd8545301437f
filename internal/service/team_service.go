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

type TeamService struct {
	tx db.Transactor

	teams   repository.TeamRepository
	members repository.MemberRepository
}

func NewTeamService(tx db.Transactor) *TeamService {
	return &TeamService{
		tx: tx,
	}
}

// AddTeam stores the team and its members in one transaction and fills in the generated ids.
func (t *TeamService) AddTeam(ctx context.Context, team *model.Team) *Error {
	l := logger.FromContext(ctx)
	l.Info("adding team", zap.String("team_name", team.Name), zap.Int("members", len(team.Members)))

	// decoded members carry no back reference yet
	members := team.Members
	team.Members = nil
	for _, m := range members {
		team.AddMember(m)
	}

	err := t.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		row := &repository.Team{Name: team.Name}
		err := t.teams.Create(txCtx, row)
		if errors.Is(err, repository.ErrAlreadyExists) {
			l.Warn("team already exists", zap.String("team_name", team.Name))
			return NewError(ErrorCodeTeamExists, "team name already exists")
		}
		if err != nil {
			l.Error("failed to create team", zap.String("team_name", team.Name), zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to create team")
		}
		team.ID = row.ID

		for _, m := range team.Members {
			memberRow := &repository.Member{
				Username: m.Username,
				Age:      m.Age,
				TeamID:   m.TeamID(),
			}
			if err = t.members.Save(txCtx, memberRow); err != nil {
				l.Error("failed to save team member",
					zap.String("team_name", team.Name),
					zap.String("username", m.Name()),
					zap.Error(err))
				return NewError(ErrorCodeUnspecified, "failed to save team member")
			}
			m.ID = memberRow.ID
		}

		l.Debug("team added successfully", zap.String("team_name", team.Name), zap.Int64("team_id", team.ID))

		return nil
	})

	var res *Error
	if err != nil && !errors.As(err, &res) {
		l.Error("transaction failed", zap.String("team_name", team.Name), zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to add team")
	}

	return res
}

// GetTeam loads a team with its members linked on both sides.
func (t *TeamService) GetTeam(ctx context.Context, id int64) (*model.Team, *Error) {
	l := logger.FromContext(ctx)
	l.Debug("getting team", zap.Int64("team_id", id))

	teamRow, err := t.teams.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		l.Warn("team not found", zap.Int64("team_id", id))
		return nil, NewError(ErrorCodeNotFound, "team not found")
	}
	if err != nil {
		l.Error("failed to get team", zap.Int64("team_id", id), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to get team")
	}

	memberRows, err := t.teams.GetTeamMembers(ctx, id)
	if err != nil {
		l.Error("failed to get team members", zap.Int64("team_id", id), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to get team members")
	}

	team := &model.Team{ID: teamRow.ID, Name: teamRow.Name}
	for _, row := range memberRows {
		team.AddMember(toModelMember(row))
	}

	l.Debug("team retrieved successfully", zap.Int64("team_id", id), zap.Int("members", len(team.Members)))

	return team, nil
}

func (t *TeamService) WithTeamRepo(r repository.TeamRepository) *TeamService {
	t.teams = r
	return t
}

func (t *TeamService) WithMemberRepo(r repository.MemberRepository) *TeamService {
	t.members = r
	return t
}

// toModelMember converts a row without its team. Callers link the team when they have it.
func toModelMember(row *repository.Member) *model.Member {
	return &model.Member{
		ID:       row.ID,
		Username: row.Username,
		Age:      row.Age,
	}
}
