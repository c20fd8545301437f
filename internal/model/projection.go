package model

type MemberTeam struct {
	MemberID int64   `json:"member_id"`
	Username *string `json:"username"`
	Age      int     `json:"age"`
	TeamID   *int64  `json:"team_id"`
	TeamName *string `json:"team_name"`
}

type MemberSummary struct {
	Username *string `json:"username"`
	Age      int     `json:"age"`
}

type UserSummary struct {
	Name *string `json:"name"`
	Age  int     `json:"age"`
}

type MemberWithTeam struct {
	Member *Member `json:"member"`
	Team   *Team   `json:"team"`
}

type AgeStats struct {
	Count int64   `json:"count"`
	Sum   int64   `json:"sum"`
	Avg   float64 `json:"avg"`
	Max   int     `json:"max"`
	Min   int     `json:"min"`
}

type TeamAgeAverage struct {
	TeamName string  `json:"team_name"`
	AvgAge   float64 `json:"avg_age"`
}

// LabeledMember pairs a username with a computed label (CASE, concat or constant columns).
type LabeledMember struct {
	Username *string `json:"username"`
	Label    string  `json:"label"`
}

type UsernameAverage struct {
	Username *string `json:"username"`
	AvgAge   float64 `json:"avg_age"`
}
