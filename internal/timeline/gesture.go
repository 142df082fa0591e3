package timeline

import "math"

// Drag/resize interaction state machine shared by clip and effect-block
// components. A gesture owns the "proposed vs committed" duality: the
// persisted model is untouched until pointer-up commits the last valid
// proposal, and cancellation always reverts.

// GesturePhase is the state of one interactive block.
type GesturePhase int

const (
	PhaseIdle GesturePhase = iota
	// PhasePending distinguishes a click from a drag: the pointer is
	// down but has not yet moved past the activation threshold.
	PhasePending
	PhaseDragging
	PhaseResizing
)

func (p GesturePhase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePending:
		return "pending"
	case PhaseDragging:
		return "dragging"
	case PhaseResizing:
		return "resizing"
	default:
		return "unknown"
	}
}

// activationDistancePx is how far the pointer must travel before a
// pending press becomes a drag or resize.
const activationDistancePx = 4.0

// GestureKind selects which transform a pending press activates into.
type GestureKind int

const (
	GestureMove GestureKind = iota
	GestureResize
)

// Snapshot is the pre-gesture geometry restored on revert.
type Snapshot struct {
	Start    float64
	Duration float64
}

// Gesture tracks a single pointer interaction on one interval. Zero
// value is an idle gesture.
type Gesture struct {
	phase    GesturePhase
	kind     GestureKind
	downX    float64
	downY    float64
	original Snapshot
	proposal *DragProposal
	follow   FollowTicker
}

func (g *Gesture) Phase() GesturePhase { return g.phase }

// Original returns the pre-gesture snapshot.
func (g *Gesture) Original() Snapshot { return g.original }

// Proposal returns the last proposal recorded during the active phase,
// or nil when none has been computed yet.
func (g *Gesture) Proposal() *DragProposal { return g.proposal }

// PointerDown arms the gesture. No-op unless idle.
func (g *Gesture) PointerDown(x, y float64, kind GestureKind, original Snapshot) {
	if g.phase != PhaseIdle {
		return
	}
	g.phase = PhasePending
	g.kind = kind
	g.downX = x
	g.downY = y
	g.original = original
	g.proposal = nil
}

// PointerMove feeds a move sample. Returns true once the gesture is
// active (past the threshold), at which point the caller should compute
// and record a proposal for this sample.
func (g *Gesture) PointerMove(x, y float64) bool {
	switch g.phase {
	case PhasePending:
		if math.Hypot(x-g.downX, y-g.downY) < activationDistancePx {
			return false
		}
		if g.kind == GestureResize {
			g.phase = PhaseResizing
		} else {
			g.phase = PhaseDragging
		}
		return true
	case PhaseDragging, PhaseResizing:
		return true
	default:
		return false
	}
}

// SetProposal records the live proposal for the current sample. Ignored
// outside the active phases so a stale async result cannot resurrect a
// finished gesture.
func (g *Gesture) SetProposal(p *DragProposal) {
	if g.phase == PhaseDragging || g.phase == PhaseResizing {
		g.proposal = p
	}
}

// AttachFollow hands the gesture a running follow ticker to stop when
// the gesture ends, so no per-frame callback outlives its owner.
func (g *Gesture) AttachFollow(t FollowTicker) {
	g.follow = t
}

// PointerUp ends the gesture. It returns the proposal to commit, or nil
// when the gesture was a plain click, never produced a proposal, or the
// last proposal was invalid; on nil the caller reverts visual state to
// Original.
func (g *Gesture) PointerUp() *DragProposal {
	committed := g.proposal
	active := g.phase == PhaseDragging || g.phase == PhaseResizing
	g.reset()
	if !active || committed == nil || !committed.Valid {
		return nil
	}
	return committed
}

// Cancel reverts unconditionally: lost pointer capture never partially
// commits.
func (g *Gesture) Cancel() {
	g.reset()
}

func (g *Gesture) reset() {
	if g.follow != nil {
		g.follow.Stop()
		g.follow = nil
	}
	g.phase = PhaseIdle
	g.proposal = nil
}
