// Package clipstore is a filesystem stand-in for the host's asset system:
// it classifies clips from a stem -> group table and "materializes" them by
// reading the file.
package clipstore

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/xtding233/animoverride/internal/override"
)

var (
	ErrMissingGroup = errors.New("clip is missing group data")
	ErrEmptyClip    = errors.New("clip file is empty")
)

// Resource is the handle returned for a materialized clip.
type Resource struct {
	Path     string
	Size     int
	Playback any
}

// Store serves clips from fsys, which is rooted at the meshes directory.
type Store struct {
	fsys   fs.FS
	groups map[string]uint32 // lower-case stem -> group
}

var (
	_ override.Storage      = (*Store)(nil)
	_ override.Materializer = (*Store)(nil)
)

func New(fsys fs.FS, groups map[string]uint32) *Store {
	s := &Store{fsys: fsys, groups: make(map[string]uint32, len(groups))}
	for k, v := range groups {
		s.groups[strings.ToLower(k)] = v
	}
	return s
}

// toFS converts a host storage path to an io/fs path.
func toFS(p string) string {
	return strings.TrimPrefix(strings.ReplaceAll(p, `\`, "/"), "/")
}

func toStorage(p string) string {
	return strings.ReplaceAll(p, "/", `\`)
}

// GroupOf looks the stem up in the table, dropping "_suffix" parts from the
// right until a match: walk_2_fast -> walk_2 -> walk.
func (s *Store) GroupOf(p string) (uint32, error) {
	name := toFS(p)
	if _, err := fs.Stat(s.fsys, name); err != nil {
		return 0, err
	}
	stem := strings.ToLower(strings.TrimSuffix(path.Base(name), path.Ext(name)))
	for {
		if g, ok := s.groups[stem]; ok {
			return g, nil
		}
		i := strings.LastIndexByte(stem, '_')
		if i <= 0 {
			return 0, fmt.Errorf("%s: %w", p, ErrMissingGroup)
		}
		stem = stem[:i]
	}
}

// ListClips lists clip files directly under folder.
func (s *Store) ListClips(folder string) ([]string, error) {
	dir := toFS(folder)
	if dir == "" {
		dir = "."
	}
	ents, err := fs.ReadDir(s.fsys, dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range ents {
		if e.IsDir() || !strings.EqualFold(path.Ext(e.Name()), override.ClipExt) {
			continue
		}
		out = append(out, toStorage(path.Join(dir, e.Name())))
	}
	return out, nil
}

// Materialize reads the clip and hands back a Resource. The group comes from
// the same table GroupOf uses.
func (s *Store) Materialize(p string, playback any) (override.Clip, error) {
	data, err := fs.ReadFile(s.fsys, toFS(p))
	if err != nil {
		return override.Clip{}, err
	}
	if len(data) == 0 {
		return override.Clip{}, fmt.Errorf("%s: %w", p, ErrEmptyClip)
	}
	g, err := s.GroupOf(p)
	if err != nil {
		return override.Clip{}, err
	}
	return override.Clip{
		Path:   p,
		Group:  g,
		Handle: Resource{Path: p, Size: len(data), Playback: playback},
	}, nil
}
