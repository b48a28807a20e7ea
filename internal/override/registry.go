package override

import (
	"fmt"
	"log/slog"
	"strings"
)

// Perspective partitions the registry. Scopes never share state.
type Perspective int

const (
	ThirdPerson Perspective = iota
	FirstPerson
)

func (p Perspective) String() string {
	if p == FirstPerson {
		return "first_person"
	}
	return "third_person"
}

// PerspectiveOf maps the host's first-person flag to a Perspective.
func PerspectiveOf(firstPerson bool) Perspective {
	if firstPerson {
		return FirstPerson
	}
	return ThirdPerson
}

// SubjectKind tells what a subject key identifies.
type SubjectKind int

const (
	KindActor SubjectKind = iota
	KindTemplate
	KindWeapon
	KindModIndex
)

func (k SubjectKind) String() string {
	switch k {
	case KindActor:
		return "actor"
	case KindTemplate:
		return "template"
	case KindWeapon:
		return "weapon"
	case KindModIndex:
		return "mod"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

type groupMap map[uint32]*GroupStacks

// Registry maps subjects to their override stacks in both perspective scopes.
// It is owned by the host's main thread and is not safe for concurrent use.
type Registry struct {
	scopes [2]map[uint32]groupMap
	groups *groupCache
	mat    Materializer
	rng    RandomSource
	log    *slog.Logger

	primaryRef  uint32
	primaryBase uint32
	loaded      bool
}

// Option configures a Registry.
type Option func(*Registry)

func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}

func WithRandom(rng RandomSource) Option {
	return func(r *Registry) {
		if rng != nil {
			r.rng = rng
		}
	}
}

// WithPrimary names the player subject, the only one allowed first person
// overrides.
func WithPrimary(ref, base uint32) Option {
	return func(r *Registry) {
		r.primaryRef = ref
		r.primaryBase = base
	}
}

// New creates an uninitialized registry.
func New(storage Storage, mat Materializer, opts ...Option) *Registry {
	r := &Registry{
		groups: newGroupCache(storage),
		mat:    mat,
		rng:    DefaultRandom(),
		log:    slog.Default(),
	}
	for _, o := range opts {
		o(r)
	}
	r.clear()
	return r
}

func (r *Registry) clear() {
	for i := range r.scopes {
		r.scopes[i] = make(map[uint32]groupMap)
	}
}

// Reset discards every override and returns the registry to the
// uninitialized state. Called at the start of each load cycle.
func (r *Registry) Reset() {
	r.clear()
	r.groups.reset()
	r.loaded = false
}

// MarkLoaded switches the registry to the populated state.
func (r *Registry) MarkLoaded() { r.loaded = true }

// Loaded reports whether the load phase has completed.
func (r *Registry) Loaded() bool { return r.loaded }

func (r *Registry) scope(p Perspective) map[uint32]groupMap {
	if p == FirstPerson {
		return r.scopes[FirstPerson]
	}
	return r.scopes[ThirdPerson]
}

// Stacks returns the stacks for (key, group) in scope p.
func (r *Registry) Stacks(p Perspective, key, group uint32) (*GroupStacks, bool) {
	gs, ok := r.scope(p)[key][group]
	return gs, ok
}

// normalizePath converts forward slashes to the host separator.
func normalizePath(path string) string {
	return strings.ReplaceAll(strings.TrimSpace(path), "/", `\`)
}

func (r *Registry) checkPerspective(kind SubjectKind, key uint32, p Perspective) error {
	if p != FirstPerson {
		return nil
	}
	switch kind {
	case KindActor:
		if key != r.primaryRef {
			return newError(CodeInvalidPerspective, "cannot apply first person animations on actors other than player",
				map[string]string{"subject": fmt.Sprintf("%08X", key)}, nil)
		}
	case KindTemplate:
		if key != r.primaryBase {
			return newError(CodeInvalidPerspective, "cannot apply first person animations on templates other than player's",
				map[string]string{"subject": fmt.Sprintf("%08X", key)}, nil)
		}
	}
	return nil
}

// InstallOverride applies one mutation for subject key in scope p.
// enable=false removes path; enable=true promotes, appends or pushes it.
// On error the registry is left unmodified.
func (r *Registry) InstallOverride(kind SubjectKind, key uint32, path string, p Perspective, enable, appendMode bool) error {
	if kind < KindActor || kind > KindModIndex {
		return newError(CodeInvalidSubject, "unknown subject kind "+kind.String(), nil, nil)
	}
	if err := r.checkPerspective(kind, key, p); err != nil {
		return err
	}
	path = normalizePath(path)
	if path == "" {
		return newError(CodeInvalidPath, "empty clip path", nil, nil)
	}
	group, err := r.groups.groupOf(path)
	if err != nil {
		return err
	}
	variant := ClassifyContext(path)

	subjects := r.scope(p)
	if !enable {
		gs, ok := subjects[key][group]
		if !ok {
			return nil
		}
		n := gs.Get(variant).Remove(path)
		if gs.empty() {
			delete(subjects[key], group)
			if len(subjects[key]) == 0 {
				delete(subjects, key)
			}
		}
		r.log.Debug("override: removed",
			"subject", fmt.Sprintf("%08X", key), "group", fmt.Sprintf("%X", group),
			"variant", variant.String(), "path", path, "count", n)
		return nil
	}

	groups, ok := subjects[key]
	if !ok {
		groups = make(groupMap)
		subjects[key] = groups
	}
	gs, ok := groups[group]
	if !ok {
		gs = &GroupStacks{}
		groups[group] = gs
	}
	outcome := gs.Get(variant).Install(path, appendMode)
	r.log.Info("override: installed",
		"kind", kind.String(), "subject", fmt.Sprintf("%08X", key), "group", fmt.Sprintf("%X", group),
		"variant", variant.String(), "perspective", p.String(), "outcome", outcome.String(), "path", path)
	return nil
}
