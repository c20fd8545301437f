package repository

import (
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/sm"
)

const (
	memberTable = "member"
	teamTable   = "team"

	memberAlias    = "m"
	teamAlias      = "t"
	memberSubAlias = "ms"
)

func memberCol(name string) dialect.Expression {
	return psql.Quote(memberAlias, name)
}

func teamCol(name string) dialect.Expression {
	return psql.Quote(teamAlias, name)
}

func memberSubCol(name string) dialect.Expression {
	return psql.Quote(memberSubAlias, name)
}

func fromMember() bob.Mod[*dialect.SelectQuery] {
	return sm.From(memberTable).As(memberAlias)
}

func leftJoinTeam() bob.Mod[*dialect.SelectQuery] {
	return sm.LeftJoin(teamTable).As(teamAlias).On(memberCol("team_id").EQ(teamCol("team_id")))
}

func innerJoinTeam() bob.Mod[*dialect.SelectQuery] {
	return sm.InnerJoin(teamTable).As(teamAlias).On(memberCol("team_id").EQ(teamCol("team_id")))
}

func memberColumns() bob.Mod[*dialect.SelectQuery] {
	return sm.Columns(memberCol("member_id"), memberCol("username"), memberCol("age"), memberCol("team_id"))
}

func memberTeamColumns() bob.Mod[*dialect.SelectQuery] {
	return sm.Columns(memberCol("member_id"), memberCol("username"), memberCol("age"), teamCol("team_id"), teamCol("name"))
}
