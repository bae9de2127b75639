package testutil

import "github.com/DoyleJ11/draftboard/internal/types"

// Player builds a profile with just enough fields for board tests.
func Player(id int, name string, position string, goals int) types.Player {
	return types.Player{
		ID:                      id,
		Name:                    name,
		FavoritePosition:        position,
		CareerGoals:             goals,
		LeagueExperienceSeasons: id % 5,
		AttendanceEstimate:      float64(50 + id%50),
		ExperienceLevel:         "Intermediate",
	}
}

// Squad is the three-card set used across board tests.
func Squad() []types.Player {
	return []types.Player{
		Player(1, "Mark T.", "CB", 3),
		Player(2, "Maria G.", "ST", 0),
		Player(3, "John S.", "GK", 7),
	}
}
