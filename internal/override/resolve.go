package override

import (
	"fmt"
)

// Subject is what a playback request is made for.
type Subject struct {
	Kind     SubjectKind // KindActor or KindWeapon
	Ref      uint32      // instance id
	Base     uint32      // template record, actors only; 0 when unknown
	ModIndex uint8       // content source the subject came from
}

// Request is one "what clip should play now?" query from the host.
type Request struct {
	Subject     Subject
	Group       uint32
	Perspective Perspective
	Hint        string // identifying string of the previous clip, may be empty
	Playback    any    // host playback context, handed to the Materializer
}

// Resolver is the host-facing lookup entry point.
type Resolver interface {
	Resolve(req Request) (Clip, bool)
}

var _ Resolver = (*Registry)(nil)

// tiers returns the subject keys to query, most specific first.
func (s Subject) tiers() []uint32 {
	switch s.Kind {
	case KindActor:
		if s.Base != 0 {
			return []uint32{s.Ref, s.Base, uint32(s.ModIndex)}
		}
		return []uint32{s.Ref, uint32(s.ModIndex)}
	default:
		return []uint32{s.Ref, uint32(s.ModIndex)}
	}
}

// Resolve walks the fallback chain and returns the first override clip that
// materializes. false means no override: the host keeps its default clip.
func (r *Registry) Resolve(req Request) (Clip, bool) {
	if !r.loaded {
		return Clip{}, false
	}
	group := req.Group
	if req.Subject.Kind == KindActor {
		group &= ActorGroupMask
	}
	variant := ClassifyContext(req.Hint)
	subjects := r.scope(req.Perspective)
	for _, key := range req.Subject.tiers() {
		if clip, ok := r.resolveTier(subjects, key, group, variant, req.Playback); ok {
			return clip, true
		}
	}
	return Clip{}, false
}

func (r *Registry) resolveTier(subjects map[uint32]groupMap, key, group uint32, variant Variant, playback any) (Clip, bool) {
	gs, ok := subjects[key][group]
	if !ok {
		return Clip{}, false
	}
	top, ok := gs.Get(variant).Top()
	if !ok || len(top.Paths) == 0 {
		return Clip{}, false
	}
	path := top.Paths[r.rng.IntN(len(top.Paths))]
	if r.mat == nil {
		return Clip{}, false
	}
	clip, err := r.mat.Materialize(path, playback)
	if err != nil {
		r.log.Warn("override: materialize failed",
			"subject", fmt.Sprintf("%08X", key), "group", fmt.Sprintf("%X", group), "path", path, "err", err)
		return Clip{}, false
	}
	if clip.Path == "" {
		clip.Path = path
	}
	return clip, true
}

// Transition describes a group change observed by the playback hook.
type Transition struct {
	Actor        Subject
	Weapon       *Subject // equipped weapon, nil when unarmed
	Group        uint32   // raw group id as passed by the host
	FirstPerson  bool
	PrevSequence string // name of the sequence being replaced
	Playback     any
}

// ResolveTransition mirrors the playback hook: weapon overrides win over
// actor overrides. The returned clip carries the raw group id.
func (r *Registry) ResolveTransition(t Transition) (Clip, bool) {
	p := PerspectiveOf(t.FirstPerson)
	if t.Weapon != nil {
		w := *t.Weapon
		w.Kind = KindWeapon
		if clip, ok := r.Resolve(Request{Subject: w, Group: t.Group, Perspective: p, Playback: t.Playback}); ok {
			clip.Group = t.Group
			return clip, true
		}
	}
	a := t.Actor
	a.Kind = KindActor
	clip, ok := r.Resolve(Request{Subject: a, Group: t.Group, Perspective: p, Hint: t.PrevSequence, Playback: t.Playback})
	if !ok {
		return Clip{}, false
	}
	clip.Group = t.Group
	return clip, true
}
