// Package pitch runs the decorative match simulation shown next to an event
// roster: players drift around a 0..100 plane and pass a single ball.
package pitch

import "time"

type Team string

const (
	SideA Team = "A"
	SideB Team = "B"
)

// AttackDir is the sign of the x axis the team attacks along.
func (t Team) AttackDir() float64 {
	if t == SideB {
		return -1
	}
	return 1
}

type Player struct {
	ID           int       `json:"id"`
	Team         Team      `json:"team"`
	X            float64   `json:"x"`
	Y            float64   `json:"y"`
	BaseX        float64   `json:"baseX"`
	BaseY        float64   `json:"baseY"`
	HasBall      bool      `json:"hasBall"`
	IsDefending  bool      `json:"isDefending"`
	LastMoveTime time.Time `json:"-"`
}

type Ball struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Snapshot is a value copy of the simulation safe to hand to other goroutines.
type Snapshot struct {
	Tick     int      `json:"tick"`
	Players  []Player `json:"players"`
	Ball     Ball     `json:"ball"`
	HolderID int      `json:"holderId"`
	InFlight bool     `json:"inFlight"`
	TeamA    int      `json:"teamA"`
	TeamB    int      `json:"teamB"`
}

type flight struct {
	fromID   int
	toID     int
	fromX    float64
	fromY    float64
	toX      float64
	toY      float64
	start    time.Time
	duration time.Duration
}
