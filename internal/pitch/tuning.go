package pitch

import "time"

const (
	FieldMin = 5.0
	FieldMax = 95.0
	BandMin  = 15.0 // lateral band for supporting runs
	BandMax  = 85.0
	Center   = 50.0

	MaxPerSide = 5

	MoveThrottle = 50 * time.Millisecond
	PassCooldown = 2000 * time.Millisecond
	PassChance   = 0.03

	TightMarkRadius = 10.0
	PassScoreBase   = 100.0
	PassScoreCap    = 80.0 // distance beyond this no longer lowers the score
	ForwardBonus    = 20.0

	HolderDrift  = 0.2
	HolderJitter = 0.25

	PursuitRadius   = 30.0
	PursuitStep     = 0.05
	OpponentRecover = 0.02

	SupportMin      = 15.0
	SupportMax      = 40.0
	SupportStep     = 0.03
	SupportForward  = 10.0
	SupportJitter   = 2.5
	TeammateRecover = 0.01

	BaseFlightDuration = 500 * time.Millisecond
	FlightArc          = 5.0
)
