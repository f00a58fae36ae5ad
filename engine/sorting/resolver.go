package sorting

import (
	"log/slog"
	"sort"
	"time"

	"github.com/1siamBot/lullaby/engine/geom"
	"golang.org/x/time/rate"
)

// Camera is the active-camera query. ok is false while no camera exists,
// for example during scene load.
type Camera interface {
	ActivePosition() (pos geom.Vec3, ok bool)
}

// Ranked is one entry of a resolution pass.
type Ranked struct {
	Obj     *Sortable
	Key     float64
	Raw     int  // BaseOrder + (N-1-rank), before clamping
	Order   int  // clamped value written to the target
	Changed bool // the target's order was rewritten by this pass
}

// Pass reports the outcome of one resolution pass.
type Pass struct {
	Skipped    bool // no camera
	Camera     geom.Vec3
	Ranking    []Ranked // ascending by key, nearest first
	Writes     int
	Registered int // registry size when the pass started
}

// Observer receives every pass; metrics hook in here.
type Observer interface {
	ObservePass(p Pass, elapsed time.Duration)
}

// Resolver ranks every registered object and assigns draw orders. It owns
// the cadence gate shared by all objects of one registry.
type Resolver struct {
	reg      *Registry
	cam      Camera
	log      *slog.Logger
	debugLim  *rate.Limiter
	observers []Observer

	last   float64 // logical time of the last gated pass
	ran    bool
	passes uint64
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for per-object debug output.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.log = l }
}

// WithDebugRate caps per-object debug lines to perSec with the given burst.
func WithDebugRate(perSec float64, burst int) Option {
	return func(r *Resolver) { r.debugLim = rate.NewLimiter(rate.Limit(perSec), burst) }
}

// WithObserver registers a pass observer.
func WithObserver(o Observer) Option {
	return func(r *Resolver) { r.Observe(o) }
}

// NewResolver creates a resolver over reg using cam as the active camera.
func NewResolver(reg *Registry, cam Camera, opts ...Option) *Resolver {
	r := &Resolver{
		reg:      reg,
		cam:      cam,
		log:      slog.Default(),
		debugLim: rate.NewLimiter(rate.Limit(30), 60),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Registry returns the registry the resolver ranks.
func (r *Resolver) Registry() *Registry { return r.reg }

// Observe adds o to the observers told about every pass, in the order
// they were added.
func (r *Resolver) Observe(o Observer) {
	if o != nil {
		r.observers = append(r.observers, o)
	}
}

// Passes returns the number of non-skipped passes run so far.
func (r *Resolver) Passes() uint64 { return r.passes }

// Request is called by obj on its update. Objects updating every frame
// trigger a pass unless one already ran at this logical time; others
// trigger one only when Interval seconds have elapsed since the last pass.
// It reports whether a pass ran.
func (r *Resolver) Request(obj *Sortable, now float64) bool {
	if obj == nil {
		return false
	}
	if r.ran {
		if obj.Settings.EveryFrame {
			if now == r.last {
				return false
			}
		} else if now == r.last || now-r.last < obj.Settings.Interval {
			return false
		}
	}
	r.ResolveNow()
	r.last = now
	r.ran = true
	return true
}

// ResolveNow runs a pass immediately, ignoring the cadence gate.
func (r *Resolver) ResolveNow() Pass {
	start := time.Now()
	pass := r.resolve()
	elapsed := time.Since(start)
	for _, o := range r.observers {
		o.ObservePass(pass, elapsed)
	}
	return pass
}

func (r *Resolver) resolve() Pass {
	camPos, ok := r.cam.ActivePosition()
	if !ok {
		return Pass{Skipped: true, Registered: r.reg.Len()}
	}
	r.passes++

	// snapshot first: write-backs may unregister objects mid-pass
	snapshot := r.reg.Active()
	ranking := make([]Ranked, 0, len(snapshot))
	for _, obj := range snapshot {
		if !obj.Valid() {
			continue
		}
		ranking = append(ranking, Ranked{Obj: obj, Key: obj.Key(camPos)})
	}

	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Key < ranking[j].Key
	})

	pass := Pass{Camera: camPos, Ranking: ranking, Registered: len(snapshot)}
	total := len(ranking)
	for i := range ranking {
		e := &ranking[i]
		e.Raw = e.Obj.Settings.BaseOrder + (total - 1 - i)
		e.Order = e.Obj.Settings.Clamp(e.Raw)
		t := e.Obj.Target()
		if t.SortOrder() == e.Order {
			continue
		}
		t.SetSortOrder(e.Order)
		e.Changed = true
		pass.Writes++
		if e.Obj.Settings.Debug && r.debugLim.Allow() {
			r.log.Info("assigned sort order",
				"object", e.Obj.Name, "order", e.Order, "rank", i, "total", total)
		}
	}
	return pass
}

// Shutdown clears the registry and the cadence gate.
func (r *Resolver) Shutdown() {
	r.reg.Reset()
	r.ran = false
	r.last = 0
}
