package model

type Team struct {
	ID      int64     `json:"team_id"`
	Name    string    `json:"name" validate:"required"`
	Members []*Member `json:"members,omitempty"`
}

func NewTeam(name string) *Team {
	return &Team{Name: name}
}

// AddMember moves m into t through the member's side of the association.
func (t *Team) AddMember(m *Member) {
	m.ChangeTeam(t)
}

func (t *Team) removeMember(m *Member) {
	for i, member := range t.Members {
		if member == m {
			t.Members = append(t.Members[:i], t.Members[i+1:]...)
			return
		}
	}
}

func (t *Team) hasMember(m *Member) bool {
	for _, member := range t.Members {
		if member == m {
			return true
		}
	}
	return false
}
