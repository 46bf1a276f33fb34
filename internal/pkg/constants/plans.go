package constants

// Limits bounds how much content a namespace may hold.
type Limits struct {
	Projects         int `json:"projects"`
	BoardsPerProject int `json:"boards_per_project"`
	DocSpaces        int `json:"doc_spaces"`
	PagesPerSpace    int `json:"pages_per_space"`
	TeamMembers      int `json:"team_members"`
}

// PersonalLimits apply to single accounts.
var PersonalLimits = Limits{
	Projects:         3,
	BoardsPerProject: 3,
	DocSpaces:        2,
	PagesPerSpace:    25,
}

// TeamLimits apply to a team namespace. TeamMembers counts the owner and pending invitations.
var TeamLimits = Limits{
	Projects:         25,
	BoardsPerProject: 10,
	DocSpaces:        15,
	PagesPerSpace:    200,
	TeamMembers:      10,
}
