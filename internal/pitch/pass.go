package pitch

import (
	"math"
	"time"
)

// Candidate is a teammate the holder may pass to, with its score.
type Candidate struct {
	PlayerID int     `json:"playerId"`
	Distance float64 `json:"distance"`
	Forward  bool    `json:"forward"`
	Score    float64 `json:"score"`
}

// ScorePass rates a pass from holder to receiver: closer is better down to
// PassScoreCap, and a receiver further along the attacking axis earns
// ForwardBonus.
func ScorePass(holder, receiver Player) float64 {
	d := distance(holder.X, holder.Y, receiver.X, receiver.Y)
	score := math.Max(0, PassScoreBase-math.Min(d, PassScoreCap))
	if isForward(holder, receiver) {
		score += ForwardBonus
	}
	return score
}

func isForward(holder, receiver Player) bool {
	return (receiver.X-holder.X)*holder.Team.AttackDir() > 0
}

// bestCandidate returns the highest score; the first one wins ties.
func bestCandidate(candidates []Candidate) Candidate {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Score > best.Score {
			best = c
		}
	}
	return best
}

// Explanation describes the pass decision as it stands right now.
type Explanation struct {
	HolderID   int         `json:"holderId"`
	InFlight   bool        `json:"inFlight"`
	CooldownMs int64       `json:"cooldownMs"`
	Candidates []Candidate `json:"candidates"`
	PickID     int         `json:"pickId,omitempty"`
}

// Explain reports who holds the ball, how long until a pass may be tried,
// and whom the holder would pick if the pass roll succeeded now.
func (s *Simulator) Explain() Explanation {
	ex := Explanation{InFlight: s.flight != nil, Candidates: []Candidate{}}
	if left := PassCooldown - s.clock.Now().Sub(s.lastPass); left > 0 {
		ex.CooldownMs = left.Milliseconds()
	}
	idx := s.holderIndex()
	if idx < 0 {
		return ex
	}
	ex.HolderID = s.players[idx].ID
	if cs := s.candidates(idx); len(cs) > 0 {
		ex.Candidates = cs
		if !ex.InFlight {
			ex.PickID = bestCandidate(cs).PlayerID
		}
	}
	return ex
}

// candidates lists the holder's unmarked teammates in player order.
func (s *Simulator) candidates(holder int) []Candidate {
	h := s.players[holder]
	var out []Candidate
	for i, p := range s.players {
		if i == holder || p.Team != h.Team || s.tightlyMarked(p) {
			continue
		}
		out = append(out, Candidate{
			PlayerID: p.ID,
			Distance: distance(h.X, h.Y, p.X, p.Y),
			Forward:  isForward(h, p),
			Score:    ScorePass(h, p),
		})
	}
	return out
}

func (s *Simulator) tightlyMarked(p Player) bool {
	for _, o := range s.players {
		if o.Team == p.Team {
			continue
		}
		if distance(p.X, p.Y, o.X, o.Y) < TightMarkRadius {
			return true
		}
	}
	return false
}

// tryPass runs the pass decision for this tick and reports whether a pass
// was kicked.
func (s *Simulator) tryPass(now time.Time, holder int) bool {
	if now.Sub(s.lastPass) < PassCooldown {
		return false
	}
	if s.rng.Float64() >= PassChance {
		return false
	}

	candidates := s.candidates(holder)
	if len(candidates) == 0 {
		return false
	}

	best := bestCandidate(candidates)
	s.kick(now, holder, s.indexByID(best.PlayerID))
	s.lastPass = now
	return true
}

func (s *Simulator) kick(now time.Time, from, to int) {
	src := s.players[from]
	dst := s.players[to]
	s.flight = &flight{
		fromID:   src.ID,
		toID:     dst.ID,
		fromX:    src.X,
		fromY:    src.Y,
		toX:      dst.X,
		toY:      dst.Y,
		start:    now,
		duration: time.Duration(float64(BaseFlightDuration) / s.cfg.GameSpeed),
	}
}

// advanceFlight interpolates the ball along the pass and hands possession
// over when the flight lands.
func (s *Simulator) advanceFlight(now time.Time) {
	f := s.flight
	progress := 1.0
	if f.duration > 0 {
		progress = float64(now.Sub(f.start)) / float64(f.duration)
	}
	if progress < 0 {
		progress = 0
	}

	if progress < 1 {
		s.ball = Ball{
			X: lerp(f.fromX, f.toX, progress),
			Y: lerp(f.fromY, f.toY, progress) - math.Sin(progress*math.Pi)*FlightArc,
		}
		return
	}

	from := s.indexByID(f.fromID)
	to := s.indexByID(f.toID)
	s.flight = nil
	if from < 0 || to < 0 {
		return
	}
	s.players[from].HasBall = false
	s.players[to].HasBall = true
	s.ball = Ball{X: s.players[to].X, Y: s.players[to].Y}
}
