// Package script exposes the override registry to Lua scripts.
package script

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/xtding233/animoverride/internal/content"
	"github.com/xtding233/animoverride/internal/override"
)

// Overrides is the part of the registry the verbs mutate.
type Overrides interface {
	InstallOverride(kind override.SubjectKind, key uint32, path string, p override.Perspective, enable, appendMode bool) error
	RegisterVariantFamily(kind override.SubjectKind, key uint32, canonical string, p override.Perspective) (int, error)
}

// Player starts a clip on an actor outside the normal group flow.
type Player interface {
	PlayClip(actor uint32, path string, sequenceType int, firstPerson bool) error
}

var (
	errNoPlayer         = errors.New("no player attached")
	errFirstPersonActor = errors.New("cannot play first person animation on an actor that is not the player")
	errSequenceType     = errors.New("sequence type must not be negative")
)

type Bindings struct {
	reg     Overrides
	forms   content.Forms
	player  Player
	primary uint32 // player ref, the only actor first person clips play on
	log     *slog.Logger
}

// New returns bindings for reg. player may be nil, in which case
// PlayAnimationPath always fails.
func New(reg Overrides, forms content.Forms, player Player, primary uint32, log *slog.Logger) *Bindings {
	if log == nil {
		log = slog.Default()
	}
	return &Bindings{reg: reg, forms: forms, player: player, primary: primary, log: log}
}

func luaRegister(l *lua.LState, name string, f func(*lua.LState) int) {
	l.Register(name, f)
}

func strArg(l *lua.LState, argi int) string {
	if !lua.LVCanConvToString(l.Get(argi)) {
		l.RaiseError("\nArgument %v is not a string: %v\n", argi, l.Get(argi))
	}
	return l.ToString(argi)
}

func numArg(l *lua.LState, argi int) float64 {
	num, ok := l.Get(argi).(lua.LNumber)
	if !ok {
		l.RaiseError("\nArgument %v is not a number: %v\n", argi, l.Get(argi))
	}
	return float64(num)
}

func boolArg(l *lua.LState, argi int) bool {
	return l.ToBool(argi)
}

// formArg accepts a form id as a number or a hex string ("0100AB01").
func formArg(l *lua.LState, argi int) uint32 {
	switch v := l.Get(argi).(type) {
	case lua.LNumber:
		return uint32(v)
	case lua.LString:
		s := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(string(v)), "0x"), "0X")
		id, err := strconv.ParseUint(s, 16, 32)
		if err != nil {
			l.RaiseError("\nArgument %v is not a form id: %v\n", argi, v)
		}
		return uint32(id)
	}
	l.RaiseError("\nArgument %v is not a form id: %v\n", argi, l.Get(argi))
	return 0
}

// result pushes true, or false and the reason.
func result(l *lua.LState, err error) int {
	if err != nil {
		l.Push(lua.LFalse)
		l.Push(lua.LString(err.Error()))
		return 2
	}
	l.Push(lua.LTrue)
	return 1
}

// Register installs the verbs as globals in l.
func (b *Bindings) Register(l *lua.LState) {
	luaRegister(l, "SetWeaponAnimationPath", func(l *lua.LState) int {
		// weapon, firstPerson, enable, path
		id := formArg(l, 1)
		fp, enable, path := boolArg(l, 2), boolArg(l, 3), strArg(l, 4)
		form, ok := b.forms.LookupForm(id)
		if !ok || form.Kind != content.FormWeapon {
			return result(l, b.fail("SetWeaponAnimationPath", fmt.Errorf("form %08X is not a weapon", id)))
		}
		return result(l, b.apply("SetWeaponAnimationPath", override.KindWeapon, id, fp, enable, path))
	})
	luaRegister(l, "SetActorAnimationPath", func(l *lua.LState) int {
		// actor, firstPerson, enable, path
		id := formArg(l, 1)
		fp, enable, path := boolArg(l, 2), boolArg(l, 3), strArg(l, 4)
		form, ok := b.forms.LookupForm(id)
		if !ok || form.Kind != content.FormActor {
			return result(l, b.fail("SetActorAnimationPath", fmt.Errorf("form %08X is not an actor", id)))
		}
		// a record without a template is itself a template
		kind := override.KindActor
		if form.Base == 0 {
			kind = override.KindTemplate
		}
		return result(l, b.apply("SetActorAnimationPath", kind, id, fp, enable, path))
	})
	luaRegister(l, "SetModAnimationPath", func(l *lua.LState) int {
		// modName, firstPerson, enable, path
		name := strArg(l, 1)
		fp, enable, path := boolArg(l, 2), boolArg(l, 3), strArg(l, 4)
		mod, ok := b.forms.LookupMod(name)
		if !ok {
			return result(l, b.fail("SetModAnimationPath", fmt.Errorf("mod %s is not loaded", name)))
		}
		return result(l, b.apply("SetModAnimationPath", override.KindModIndex, uint32(mod), fp, enable, path))
	})
	luaRegister(l, "PlayAnimationPath", func(l *lua.LState) int {
		// actor, path, sequenceType, firstPerson
		id := formArg(l, 1)
		path, seq, fp := strArg(l, 2), int(numArg(l, 3)), boolArg(l, 4)
		if b.player == nil {
			return result(l, b.fail("PlayAnimationPath", errNoPlayer))
		}
		if seq < 0 {
			return result(l, b.fail("PlayAnimationPath", errSequenceType))
		}
		if fp && id != b.primary {
			return result(l, b.fail("PlayAnimationPath", errFirstPersonActor))
		}
		if !strings.EqualFold(pathExt(path), override.ClipExt) {
			return result(l, b.fail("PlayAnimationPath", fmt.Errorf("%s does not end with %s", path, override.ClipExt)))
		}
		if err := b.player.PlayClip(id, path, seq, fp); err != nil {
			return result(l, b.fail("PlayAnimationPath", err))
		}
		return result(l, nil)
	})
}

func pathExt(p string) string {
	if i := strings.LastIndexAny(p, `.\/`); i >= 0 && p[i] == '.' {
		return p[i:]
	}
	return ""
}

func (b *Bindings) fail(verb string, err error) error {
	b.log.Warn("script: "+verb+" failed", "err", err)
	return err
}

func (b *Bindings) apply(verb string, kind override.SubjectKind, key uint32, firstPerson, enable bool, path string) error {
	p := override.PerspectiveOf(firstPerson)
	if !enable {
		if err := b.reg.InstallOverride(kind, key, path, p, false, false); err != nil {
			return b.fail(verb, err)
		}
		return nil
	}
	n, err := b.reg.RegisterVariantFamily(kind, key, path, p)
	if err != nil {
		return b.fail(verb, err)
	}
	b.log.Info("script: "+verb, "subject", fmt.Sprintf("%08X", key), "path", path, "variants", n)
	return nil
}

// NewState returns a Lua state with the verbs registered.
func (b *Bindings) NewState() *lua.LState {
	l := lua.NewState()
	b.Register(l)
	return l
}

// RunFile executes a script file in a fresh state.
func (b *Bindings) RunFile(file string) error {
	l := b.NewState()
	defer l.Close()
	if err := l.DoFile(file); err != nil {
		return fmt.Errorf("run %s: %w", file, err)
	}
	return nil
}

// RunString executes src in a fresh state.
func (b *Bindings) RunString(src string) error {
	l := b.NewState()
	defer l.Close()
	return l.DoString(src)
}
