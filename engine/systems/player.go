package systems

import (
	"math"

	"github.com/1siamBot/lullaby/engine/core"
	"github.com/1siamBot/lullaby/engine/geom"
	"github.com/1siamBot/lullaby/engine/input"
	"github.com/1siamBot/lullaby/engine/render3d"
)

// PlayerSettings tune the player's movement and jumping.
type PlayerSettings struct {
	Speed          float64 `mapstructure:"speed" yaml:"speed"`
	JumpForce      float64 `mapstructure:"jump_force" yaml:"jump_force"`
	MinJumpSpacing float64 `mapstructure:"min_jump_spacing" yaml:"min_jump_spacing"` // seconds between impulses
	JumpBuffer     float64 `mapstructure:"jump_buffer" yaml:"jump_buffer"`           // lifetime of a mid-air press
	LongPress      float64 `mapstructure:"long_press" yaml:"long_press"`             // hold time for a persistent request
	SmoothTime     float64 `mapstructure:"smooth_time" yaml:"smooth_time"`           // horizontal blend after a jump
	CrouchFactor   float64 `mapstructure:"crouch_factor" yaml:"crouch_factor"`
	RunFactor      float64 `mapstructure:"run_factor" yaml:"run_factor"`
	Gravity        float64 `mapstructure:"gravity" yaml:"gravity"`
}

// DefaultPlayerSettings returns the stock character tuning.
func DefaultPlayerSettings() PlayerSettings {
	return PlayerSettings{
		Speed:          5,
		JumpForce:      5,
		MinJumpSpacing: 0.08,
		JumpBuffer:     0.15,
		LongPress:      0.5,
		SmoothTime:     0.18,
		CrouchFactor:   0.6,
		RunFactor:      1.5,
		Gravity:        9.81,
	}
}

type jumpRequest struct {
	long     bool
	expireAt float64
}

// horizontalBlend eases the horizontal velocity toward a target over a
// fixed duration, one step per tick.
type horizontalBlend struct {
	start, end geom.Vec3
	elapsed    float64
	duration   float64
}

// step advances the blend and returns the horizontal velocity to apply and
// whether the blend has finished.
func (b *horizontalBlend) step(dt float64) (geom.Vec3, bool) {
	b.elapsed += dt
	if b.elapsed >= b.duration {
		return b.end, true
	}
	f := geom.SmoothStep(0, 1, b.elapsed/b.duration)
	return b.start.Lerp(b.end, f), false
}

// PlayerController is the player's movement state.
type PlayerController struct {
	Settings  PlayerSettings
	Crouching bool
	Running   bool

	waitlist    []*jumpRequest
	longPress   *jumpRequest // request created by the current hold
	holdTime    float64
	desired     geom.Vec3 // last desired horizontal velocity
	blend       *horizontalBlend
	lastJump    float64
	jumped      bool
	wasGrounded bool
	consumed    bool // a request was consumed on the current landing
}

func (p *PlayerController) Type() core.ComponentType { return core.CompPlayer }

// NewPlayerController creates a controller with the given tuning.
func NewPlayerController(s PlayerSettings) *PlayerController {
	return &PlayerController{Settings: s}
}

// MovementStatus is a read-only snapshot for overlays.
type MovementStatus struct {
	Grounded        bool
	ShortBuffered   bool
	LongBuffered    bool
	HoldTime        float64
	BufferRemaining float64
	LastJump        float64
	Jumped          bool
	Desired         geom.Vec3
	Waitlist        int
	GroundContacts  int
}

// Status reports the controller state at logical time now.
func (p *PlayerController) Status(body *core.Body, now float64) MovementStatus {
	st := MovementStatus{
		Grounded:     body.GroundContacts > 0,
		LongBuffered: p.longPress != nil,
		HoldTime:     p.holdTime,
		LastJump:     p.lastJump,
		Jumped:       p.jumped,
		Desired:      p.desired,
		Waitlist:     len(p.waitlist),
	}
	st.GroundContacts = body.GroundContacts
	soonest := math.Inf(1)
	for _, r := range p.waitlist {
		if !r.long {
			st.ShortBuffered = true
			soonest = math.Min(soonest, r.expireAt)
		}
	}
	if !math.IsInf(soonest, 1) {
		st.BufferRemaining = math.Max(0, soonest-now)
	}
	return st
}

// PlayerSystem turns key state into player velocity and jumps. It also
// listens for ground contacts so buffered jumps fire on landing.
type PlayerSystem struct {
	Keys   input.Keys
	Camera *render3d.Camera3D
}

func (s *PlayerSystem) Priority() int { return 10 }

func (s *PlayerSystem) Update(w *core.World, dt float64) {
	now := w.Now()
	for _, id := range w.Query(core.CompPlayer, core.CompBody) {
		if !w.IsActive(id) {
			continue
		}
		p := w.Get(id, core.CompPlayer).(*PlayerController)
		body := w.Get(id, core.CompBody).(*core.Body)
		s.move(p, body)
		s.jump(w, id, p, body, now, dt)
		if p.blend != nil {
			h, done := p.blend.step(dt)
			body.Velocity.X, body.Velocity.Z = h.X, h.Z
			if done {
				p.blend = nil
			}
		}
	}
}

func (s *PlayerSystem) speedFactor(p *PlayerController) float64 {
	switch {
	case p.Crouching:
		return p.Settings.CrouchFactor
	case p.Running:
		return p.Settings.RunFactor
	}
	return 1
}

// move applies the horizontal rules: the four adjacent two-key combos run
// along world axes, everything else is camera-relative.
func (s *PlayerSystem) move(p *PlayerController, body *core.Body) {
	k := s.Keys
	p.Crouching = k.Held(input.KeyShift)
	p.Running = k.Held(input.KeyQ)

	v := p.Settings.Speed * s.speedFactor(p)
	w, a, sd, d := k.Held(input.KeyW), k.Held(input.KeyA), k.Held(input.KeyS), k.Held(input.KeyD)
	var axis geom.Vec3
	switch {
	case w && a && !sd && !d:
		axis = geom.V3(-v, 0, 0)
	case sd && d && !w && !a:
		axis = geom.V3(v, 0, 0)
	case w && d && !a && !sd:
		axis = geom.V3(0, 0, v)
	case a && sd && !w && !d:
		axis = geom.V3(0, 0, -v)
	default:
		forward, right := geom.Forward, geom.Right
		if s.Camera != nil {
			forward = s.Camera.Forward().Flat().Normalize()
			right = s.Camera.Right().Flat().Normalize()
		}
		desired := right.Scale(k.Axis(input.Horizontal)).Add(forward.Scale(k.Axis(input.Vertical)))
		if desired.LenSqr() > 1 {
			desired = desired.Normalize()
		}
		desired = desired.Scale(v)
		p.desired = desired
		body.Velocity = geom.V3(desired.X, body.Velocity.Y, desired.Z)
		return
	}
	p.desired = axis
	body.Velocity = geom.V3(axis.X, body.Velocity.Y, axis.Z)
}

func (s *PlayerSystem) jump(w *core.World, id core.EntityID, p *PlayerController, body *core.Body, now, dt float64) {
	grounded := body.GroundContacts > 0

	if s.Keys.JustPressed(input.KeySpace) {
		if grounded {
			s.doJump(w, id, p, body, now)
		} else if !p.hasShort() {
			p.waitlist = append(p.waitlist, &jumpRequest{expireAt: now + p.Settings.JumpBuffer})
		}
	}

	if s.Keys.Held(input.KeySpace) {
		p.holdTime += dt
		if p.holdTime >= p.Settings.LongPress && p.longPress == nil {
			p.longPress = &jumpRequest{long: true, expireAt: math.Inf(1)}
			p.waitlist = append(p.waitlist, p.longPress)
			if grounded {
				s.consumeOnLanding(w, id, p, body, now)
			}
		}
	} else {
		if p.longPress != nil {
			p.remove(p.longPress)
			p.longPress = nil
		}
		p.holdTime = 0
	}

	p.purgeExpired(now)

	// landing seen by the frame guard, in case no contact callback fired
	grounded = body.GroundContacts > 0
	if grounded && !p.wasGrounded {
		s.consumeOnLanding(w, id, p, body, now)
	}
	p.wasGrounded = grounded
}

// OnGroundEnter implements ContactListener.
func (s *PlayerSystem) OnGroundEnter(w *core.World, id core.EntityID, body *core.Body) {
	p, ok := w.Get(id, core.CompPlayer).(*PlayerController)
	if !ok || body.GroundContacts != 1 {
		return
	}
	p.consumed = false
	s.consumeOnLanding(w, id, p, body, w.Now())
}

// OnGroundExit implements ContactListener.
func (s *PlayerSystem) OnGroundExit(w *core.World, id core.EntityID, body *core.Body) {
	p, ok := w.Get(id, core.CompPlayer).(*PlayerController)
	if ok && body.GroundContacts == 0 {
		p.consumed = false
	}
}

// consumeOnLanding processes the head of the waitlist at most once per
// landing: a live short request jumps and is removed, an expired one is
// dropped, and a long-press request jumps but stays until release.
func (s *PlayerSystem) consumeOnLanding(w *core.World, id core.EntityID, p *PlayerController, body *core.Body, now float64) {
	if p.consumed {
		return
	}
	p.purgeExpired(now)
	if len(p.waitlist) == 0 {
		return
	}
	head := p.waitlist[0]
	if head.long {
		s.doJump(w, id, p, body, now)
		p.consumed = true
		return
	}
	p.waitlist = p.waitlist[1:]
	if head.expireAt > now {
		s.doJump(w, id, p, body, now)
		p.consumed = true
	}
}

func (s *PlayerSystem) doJump(w *core.World, id core.EntityID, p *PlayerController, body *core.Body, now float64) {
	if p.jumped && now-p.lastJump < p.Settings.MinJumpSpacing {
		return
	}
	body.Velocity.Y = 0
	body.AddImpulse(geom.Up.Scale(p.Settings.JumpForce))
	p.lastJump = now
	p.jumped = true
	p.blend = &horizontalBlend{
		start:    body.Velocity.Flat(),
		end:      p.desired.Flat(),
		duration: p.Settings.SmoothTime,
	}
	w.Bus.Emit(core.Event{Type: core.EvtJumped, Tick: w.TickCount, Entity: id})
}

func (p *PlayerController) hasShort() bool {
	for _, r := range p.waitlist {
		if !r.long {
			return true
		}
	}
	return false
}

func (p *PlayerController) remove(req *jumpRequest) {
	for i, r := range p.waitlist {
		if r == req {
			p.waitlist = append(p.waitlist[:i], p.waitlist[i+1:]...)
			return
		}
	}
}

func (p *PlayerController) purgeExpired(now float64) {
	kept := p.waitlist[:0]
	for _, r := range p.waitlist {
		if r.long || r.expireAt > now {
			kept = append(kept, r)
		}
	}
	p.waitlist = kept
}
