package model

import "strings"

// MemberSearchCondition is an open-world filter: nil or blank fields impose no constraint.
type MemberSearchCondition struct {
	Username *string `json:"username,omitempty"`
	TeamName *string `json:"team_name,omitempty"`
	AgeGoe   *int    `json:"age_goe,omitempty" validate:"omitempty,gte=0"`
	AgeLoe   *int    `json:"age_loe,omitempty" validate:"omitempty,gte=0"`
}

func (c *MemberSearchCondition) IsEmpty() bool {
	if c == nil {
		return true
	}
	return !HasText(c.Username) && !HasText(c.TeamName) && c.AgeGoe == nil && c.AgeLoe == nil
}

func HasText(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}
