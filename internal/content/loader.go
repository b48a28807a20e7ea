package content

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path"
	"strings"

	"github.com/xtding233/animoverride/internal/override"
)

// Folder names that select the perspective scope.
const (
	ThirdPersonFolder = "_male"
	FirstPersonFolder = "_1stperson"
)

var povFolders = []struct {
	name string
	p    override.Perspective
}{
	{ThirdPersonFolder, override.ThirdPerson},
	{FirstPersonFolder, override.FirstPerson},
}

// Target is the registry API the loader populates.
type Target interface {
	InstallOverride(kind override.SubjectKind, key uint32, path string, p override.Perspective, enable, appendMode bool) error
	Reset()
	MarkLoaded()
}

// Loader rebuilds a registry from the override folder tree:
//
//	<root>/<mod>/_male/...               third person, keyed by mod index
//	<root>/<mod>/_1stperson/...          first person, keyed by mod index
//	<root>/<mod>/<hexFormID>/_male/...   keyed by the form
//	<root>/<folder>/_male/...            bound to forms by *.json / *.ini entries
//
// fsys is rooted at the meshes directory so installed paths are meshes
// relative, e.g. AnimGroupOverride\Guns.esp\_male\walk.kf.
type Loader struct {
	fsys  fs.FS
	root  string
	forms Forms
	log   *slog.Logger
}

func NewLoader(fsys fs.FS, root string, forms Forms, log *slog.Logger) *Loader {
	if log == nil {
		log = slog.Default()
	}
	return &Loader{fsys: fsys, root: root, forms: forms, log: log}
}

// loadRun holds the state of one Load call.
type loadRun struct {
	*Loader
	ctx     context.Context
	target  Target
	rep     *Report
	folders map[string]string // lower-case folder name -> fs path
	entries []entry
}

// Load resets t, installs everything found under the override root and
// marks t loaded. Problems with individual entries land in the report;
// the only error is a cancelled context.
func (l *Loader) Load(ctx context.Context, t Target) (Report, error) {
	var rep Report
	t.Reset()
	run := &loadRun{Loader: l, ctx: ctx, target: t, rep: &rep, folders: make(map[string]string)}

	l.log.Info("content: loading override folders", "root", l.root)
	err := run.scanRoot()
	if err == nil {
		err = run.loadEntries()
	}
	t.MarkLoaded()
	l.log.Info("content: load finished",
		"installed", rep.Installed, "entries", rep.Entries, "diagnostics", len(rep.Diagnostics))
	for _, d := range rep.Diagnostics {
		l.log.Warn("content: " + d.String())
	}
	return rep, err
}

func (r *loadRun) scanRoot() error {
	ents, err := fs.ReadDir(r.fsys, r.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			r.rep.addf(r.root, nil, "does not exist")
			return nil
		}
		r.rep.addf(r.root, err, "cannot read override root")
		return nil
	}
	for _, e := range ents {
		if err := r.ctx.Err(); err != nil {
			return err
		}
		name := e.Name()
		full := path.Join(r.root, name)
		ext := strings.ToLower(path.Ext(name))
		if e.IsDir() {
			if mod, ok := r.forms.LookupMod(name); ok {
				r.log.Debug("content: found mod folder", "path", full, "mod", mod)
				r.loadModFolder(full, mod)
				continue
			}
			switch {
			case ext == ".esp" || ext == ".esm":
				r.rep.addf(full, nil, "mod with name %s is not loaded", name)
			case strings.EqualFold(name, ThirdPersonFolder) || strings.EqualFold(name, FirstPersonFolder):
			default:
				r.folders[strings.ToLower(name)] = full
				r.log.Debug("content: found anim folder usable in entries", "folder", name)
			}
			continue
		}
		switch ext {
		case ".json":
			r.readEntries(full, parseJSONEntries)
		case ".ini":
			r.readEntries(full, parseINIEntries)
		}
	}
	return nil
}

func (r *loadRun) readEntries(file string, parse func(string, []byte, *Report) []entry) {
	data, err := fs.ReadFile(r.fsys, file)
	if err != nil {
		r.rep.addf(file, err, "cannot read")
		return
	}
	r.entries = append(r.entries, parse(file, data, r.rep)...)
}

func (r *loadRun) loadModFolder(dir string, mod uint8) {
	r.loadPOV(dir, override.KindModIndex, uint32(mod))

	ents, err := fs.ReadDir(r.fsys, dir)
	if err != nil {
		r.rep.addf(dir, err, "cannot read mod folder")
		return
	}
	for _, e := range ents {
		name := e.Name()
		if !e.IsDir() {
			r.log.Debug("content: skipping, not a directory", "path", path.Join(dir, name))
			continue
		}
		if strings.EqualFold(name, ThirdPersonFolder) || strings.EqualFold(name, FirstPersonFolder) {
			continue
		}
		local, err := parseHexID(name)
		if err != nil {
			r.log.Debug("content: skipping folder, not a form id", "path", path.Join(dir, name))
			continue
		}
		id := FormID(local, mod)
		form, ok := r.forms.LookupForm(id)
		if !ok {
			r.rep.addf(path.Join(dir, name), nil, "form %08X not found", id)
			continue
		}
		r.log.Debug("content: detected form", "form", form.String())
		r.loadForm(path.Join(dir, name), form)
	}
}

// loadForm loads a folder for a weapon, an actor, or every member of a list.
func (r *loadRun) loadForm(dir string, form Form) {
	switch form.Kind {
	case FormWeapon:
		r.loadPOV(dir, override.KindWeapon, form.ID)
	case FormActor:
		r.loadPOV(dir, override.KindActor, form.ID)
	case FormList:
		for _, id := range form.Members {
			m, ok := r.forms.LookupForm(id)
			if !ok {
				r.rep.addf(dir, nil, "list %08X member %08X not found", form.ID, id)
				continue
			}
			if m.Kind != FormWeapon && m.Kind != FormActor {
				r.rep.addf(dir, nil, "unsupported type for list item %08X", id)
				continue
			}
			r.loadForm(dir, m)
		}
	default:
		r.rep.addf(dir, nil, "unsupported form type for %08X", form.ID)
	}
}

// findDir looks up a child folder case-insensitively.
func (r *loadRun) findDir(parent, name string) (string, bool) {
	ents, err := fs.ReadDir(r.fsys, parent)
	if err != nil {
		return "", false
	}
	for _, e := range ents {
		if e.IsDir() && strings.EqualFold(e.Name(), name) {
			return path.Join(parent, e.Name()), true
		}
	}
	return "", false
}

func (r *loadRun) loadPOV(dir string, kind override.SubjectKind, key uint32) {
	for _, pov := range povFolders {
		if sub, ok := r.findDir(dir, pov.name); ok {
			r.loadClips(sub, kind, key, pov.p)
		}
	}
}

// loadClips installs every clip under dir. The first clip opens a fresh
// layer, the rest append to it.
func (r *loadRun) loadClips(dir string, kind override.SubjectKind, key uint32, p override.Perspective) {
	appendMode := false
	err := fs.WalkDir(r.fsys, dir, func(p2 string, d fs.DirEntry, err error) error {
		if err != nil {
			r.rep.addf(p2, err, "cannot walk")
			return nil
		}
		if d.IsDir() || !strings.EqualFold(path.Ext(p2), override.ClipExt) {
			return nil
		}
		clip := strings.ReplaceAll(p2, "/", `\`)
		r.log.Debug("content: loading animation path", "path", clip)
		if err := r.target.InstallOverride(kind, key, clip, p, true, appendMode); err != nil {
			r.rep.addf(clip, err, "install failed")
		} else {
			r.rep.Installed++
		}
		appendMode = true
		return nil
	})
	if err != nil {
		r.rep.addf(dir, err, "cannot walk")
	}
}

// loadEntries binds JSON/INI entries to their folders once the whole root
// has been scanned.
func (r *loadRun) loadEntries() error {
	for _, e := range r.entries {
		if err := r.ctx.Err(); err != nil {
			return err
		}
		mod, ok := r.forms.LookupMod(e.mod)
		if !ok {
			r.rep.addf(e.source, nil, "mod name %s was not found", e.mod)
			continue
		}
		local, err := parseHexID(e.form)
		if err != nil {
			r.rep.addf(e.source, err, "form field was incorrectly formatted, got %s", e.form)
			continue
		}
		id := FormID(local, mod)
		form, ok := r.forms.LookupForm(id)
		if !ok {
			r.rep.addf(e.source, nil, "form %08X was not found", id)
			continue
		}
		dir, ok := r.folders[strings.ToLower(e.folder)]
		if !ok {
			r.rep.addf(e.source, nil, "could not find folder %s", e.folder)
			continue
		}
		r.rep.Entries++
		r.log.Info("content: loading animations for entry", "form", form.String(), "folder", dir)
		r.loadForm(dir, form)
	}
	return nil
}
