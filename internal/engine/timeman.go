package engine

import (
	"time"

	"github.com/jesper-olsen/mateus-sub000/internal/board"
)

// Limits bounds one search. Zero values mean "no limit" except Depth, which
// falls back to DefaultMaxDepth.
type Limits struct {
	Depth    int           // deepest iteration to start
	Nodes    uint64        // soft budget, checked between iterations
	MoveTime time.Duration // hard deadline, checked inside the recursion
}

// DefaultMaxDepth caps iterative deepening when Limits.Depth is zero.
const DefaultMaxDepth = 64

func (l Limits) maxDepth() int {
	d := l.Depth
	switch {
	case d <= 0 || d > DefaultMaxDepth:
		d = DefaultMaxDepth
	case d < 2:
		// Deepening starts at two plies.
		d = 2
	}
	return d
}

// ClockLimits are the clock parameters of a "go" command.
type ClockLimits struct {
	Time      [2]time.Duration // remaining time per colour
	Inc       [2]time.Duration // increment per colour
	MovesToGo int              // 0 = sudden death
}

// MoveTime allocates a hard per-move time from the clock, 0 when no clock
// is running for us.
func (c ClockLimits) MoveTime(us board.Color, ply int) time.Duration {
	timeLeft := c.Time[us]
	if timeLeft <= 0 {
		return 0
	}

	mtg := c.MovesToGo
	if mtg == 0 {
		// Sudden death: expect fewer moves as the game goes on.
		mtg = min(max(50-ply/4, 10), 50)
	}

	t := timeLeft/time.Duration(mtg) + c.Inc[us]*9/10
	if ply < 8 {
		t = t * 85 / 100
	}
	// Never spend more than 80% of what is left.
	t = min(t, timeLeft*8/10)
	return max(t, 10*time.Millisecond)
}

// deadline tracks the hard stop of a running search.
type deadline struct {
	start time.Time
	end   time.Time // zero = none
}

func newDeadline(moveTime time.Duration) deadline {
	d := deadline{start: time.Now()}
	if moveTime > 0 {
		d.end = d.start.Add(moveTime)
	}
	return d
}

func (d deadline) passed() bool {
	return !d.end.IsZero() && time.Now().After(d.end)
}

func (d deadline) elapsed() time.Duration {
	return time.Since(d.start)
}
