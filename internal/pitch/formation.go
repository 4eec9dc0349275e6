package pitch

type slot struct {
	X, Y float64
}

// Home slots for the side attacking toward increasing x: goalkeeper, two
// defenders, two forwards. Side B mirrors them across the halfway line.
var formationA = [MaxPerSide]slot{
	{X: 8, Y: 50},
	{X: 25, Y: 30},
	{X: 25, Y: 70},
	{X: 42, Y: 35},
	{X: 42, Y: 65},
}

func formationSlot(team Team, idx int) slot {
	s := formationA[idx%MaxPerSide]
	if team == SideB {
		s.X = 100 - s.X
	}
	return s
}

// displayCount clamps a requested team size to one formation and to half of
// the event's capacity.
func displayCount(requested, maxPlayers int) int {
	n := requested
	if n > MaxPerSide {
		n = MaxPerSide
	}
	if half := maxPlayers / 2; n > half {
		n = half
	}
	if n < 0 {
		n = 0
	}
	return n
}
