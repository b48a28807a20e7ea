package content

import (
	"fmt"
	"strings"

	"github.com/xtding233/animoverride/internal/config"
)

// FormKind is the subset of host record types that can own overrides.
type FormKind int

const (
	FormUnknown FormKind = iota
	FormWeapon
	FormActor
	FormList
)

func (k FormKind) String() string {
	switch k {
	case FormWeapon:
		return "weapon"
	case FormActor:
		return "actor"
	case FormList:
		return "list"
	default:
		return "unknown"
	}
}

// ParseFormKind maps a config kind name to a FormKind.
func ParseFormKind(s string) FormKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "weapon":
		return FormWeapon
	case "actor":
		return FormActor
	case "list":
		return FormList
	}
	return FormUnknown
}

// Form is a host record as seen by the loader.
type Form struct {
	ID      uint32
	Kind    FormKind
	Base    uint32 // actors: template record
	Name    string
	Members []uint32 // lists only
}

// ModIndex is the load-order slot encoded in the top byte of a form id.
func (f Form) ModIndex() uint8 { return uint8(f.ID >> 24) }

func (f Form) String() string {
	name := f.Name
	if name == "" {
		name = "<no name>"
	}
	return fmt.Sprintf("%08X %s %s", f.ID, f.Kind, name)
}

// Forms is the host's record database.
type Forms interface {
	LookupMod(name string) (uint8, bool)
	LookupForm(id uint32) (Form, bool)
}

// FormID combines a mod-local id with the mod's load-order index.
func FormID(local uint32, mod uint8) uint32 {
	return local&0x00FFFFFF | uint32(mod)<<24
}

// StaticForms is an in-memory Forms used by the harness and tests.
type StaticForms struct {
	mods  map[string]uint8
	forms map[uint32]Form
}

func NewStaticForms(mods []string, forms []Form) *StaticForms {
	s := &StaticForms{mods: make(map[string]uint8), forms: make(map[uint32]Form)}
	for i, m := range mods {
		s.mods[strings.ToLower(m)] = uint8(i)
	}
	for _, f := range forms {
		s.forms[f.ID] = f
	}
	return s
}

// FormsFromFixture builds StaticForms from the config fixture.
func FormsFromFixture(fx config.Fixture) *StaticForms {
	forms := make([]Form, 0, len(fx.Forms))
	for _, f := range fx.Forms {
		forms = append(forms, Form{
			ID:      f.ID,
			Kind:    ParseFormKind(f.Kind),
			Base:    f.Base,
			Name:    f.Name,
			Members: f.Members,
		})
	}
	return NewStaticForms(fx.Mods, forms)
}

func (s *StaticForms) LookupMod(name string) (uint8, bool) {
	i, ok := s.mods[strings.ToLower(name)]
	return i, ok
}

func (s *StaticForms) LookupForm(id uint32) (Form, bool) {
	f, ok := s.forms[id]
	return f, ok
}
