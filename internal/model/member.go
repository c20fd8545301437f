package model

import (
	"encoding/json"
	"fmt"
)

type Member struct {
	ID       int64   `json:"member_id"`
	Username *string `json:"username"`
	Age      int     `json:"age"`
	Team     *Team   `json:"-"`
}

func NewMember(username string, age int) *Member {
	return &Member{Username: &username, Age: age}
}

// NewMemberOfTeam creates a member and joins it to team when team is not nil.
func NewMemberOfTeam(username string, age int, team *Team) *Member {
	m := NewMember(username, age)
	if team != nil {
		m.ChangeTeam(team)
	}
	return m
}

func NewAnonymousMember(age int) *Member {
	return &Member{Age: age}
}

// ChangeTeam is the only writer of the member/team association: both sides are updated here.
func (m *Member) ChangeTeam(team *Team) {
	if m.Team == team {
		if team != nil && !team.hasMember(m) {
			team.Members = append(team.Members, m)
		}
		return
	}

	if m.Team != nil {
		m.Team.removeMember(m)
	}

	m.Team = team
	if team != nil {
		team.Members = append(team.Members, m)
	}
}

func (m *Member) Name() string {
	if m.Username == nil {
		return ""
	}
	return *m.Username
}

func (m *Member) TeamID() *int64 {
	if m.Team == nil {
		return nil
	}
	return &m.Team.ID
}

func (m *Member) String() string {
	return fmt.Sprintf("Member(id=%d, username=%s, age=%d)", m.ID, m.Name(), m.Age)
}

// MarshalJSON writes the team as its id; the team side holds the member list.
func (m *Member) MarshalJSON() ([]byte, error) {
	type member Member
	return json.Marshal(struct {
		*member
		TeamID *int64 `json:"team_id"`
	}{
		member: (*member)(m),
		TeamID: m.TeamID(),
	})
}
