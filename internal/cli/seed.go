package cli

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/yakoovad/member-search/internal/db"
	"github.com/yakoovad/member-search/internal/model"
	"github.com/yakoovad/member-search/internal/repository"
	"github.com/yakoovad/member-search/internal/service"
	"github.com/yakoovad/member-search/pkg/logger"
	"go.uber.org/zap"
)

// seedTeams is the sample data set: teamA{member1:10, member2:20}, teamB{member3:30, member4:40}.
func seedTeams() []*model.Team {
	teamA := model.NewTeam("teamA")
	teamB := model.NewTeam("teamB")

	model.NewMemberOfTeam("member1", 10, teamA)
	model.NewMemberOfTeam("member2", 20, teamA)
	model.NewMemberOfTeam("member3", 30, teamB)
	model.NewMemberOfTeam("member4", 40, teamB)

	return []*model.Team{teamA, teamB}
}

func NewSeedCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the sample teams and members",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, l, err := setup(opts)
			if err != nil {
				return err
			}
			defer l.Sync()

			ctx := logger.WithLogger(cmd.Context(), l)

			pool, err := db.NewPool(ctx, cfg.Postgres)
			if err != nil {
				return errors.Wrap(err, "connect to database")
			}
			defer pool.Close()

			teams := service.NewTeamService(db.NewPgxTransactor(pool)).
				WithTeamRepo(repository.NewPgxTeamRepository(pool)).
				WithMemberRepo(repository.NewPgxMemberRepository(pool))

			for _, team := range seedTeams() {
				if serr := teams.AddTeam(ctx, team); serr != nil {
					if serr.Code == service.ErrorCodeTeamExists {
						l.Info("team already seeded", zap.String("team_name", team.Name))
						continue
					}
					return serr
				}
				l.Info("team seeded", zap.String("team_name", team.Name), zap.Int64("team_id", team.ID))
			}
			return nil
		},
	}
}
