package systems

import "github.com/1siamBot/lullaby/engine/core"

// ContactListener is told when a body starts or stops touching the ground.
type ContactListener interface {
	OnGroundEnter(w *core.World, id core.EntityID, body *core.Body)
	OnGroundExit(w *core.World, id core.EntityID, body *core.Body)
}

// PhysicsSystem integrates bodies against a flat ground plane. The plane
// acts as a trigger: touching it counts as one ground contact.
type PhysicsSystem struct {
	GroundY   float64
	Tolerance float64 // height above ground still counted as contact
	Listener  ContactListener
}

func (s *PhysicsSystem) Priority() int { return 20 }

func (s *PhysicsSystem) Update(w *core.World, dt float64) {
	for _, id := range w.Query(core.CompBody, core.CompTransform) {
		if !w.IsActive(id) {
			continue
		}
		body := w.Get(id, core.CompBody).(*core.Body)
		tr := w.Get(id, core.CompTransform).(*core.Transform)

		grounded := body.GroundContacts > 0
		if !grounded || body.Velocity.Y > 0 {
			body.Velocity.Y -= body.Gravity * dt
		}
		tr.Position = tr.Position.Add(body.Velocity.Scale(dt))
		if tr.Position.Y < s.GroundY {
			tr.Position.Y = s.GroundY
			if body.Velocity.Y < 0 {
				body.Velocity.Y = 0
			}
		}

		touching := tr.Position.Y <= s.GroundY+s.Tolerance
		switch {
		case touching && body.GroundContacts == 0:
			body.GroundContacts = 1
			w.Bus.Emit(core.Event{Type: core.EvtLanded, Tick: w.TickCount, Entity: id})
			if s.Listener != nil {
				s.Listener.OnGroundEnter(w, id, body)
			}
		case !touching && body.GroundContacts > 0:
			body.GroundContacts = 0
			if s.Listener != nil {
				s.Listener.OnGroundExit(w, id, body)
			}
		}
	}
}
