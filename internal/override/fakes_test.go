package override_test

import (
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/xtding233/animoverride/internal/override"
)

var errMissing = errors.New("missing clip")

type fakeStorage struct {
	groups  map[string]uint32   // lower-case path -> group
	folders map[string][]string // lower-case folder -> clip paths
	listErr error
	calls   int
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{groups: map[string]uint32{}, folders: map[string][]string{}}
}

// add registers a clip and lists it under its folder.
func (s *fakeStorage) add(path string, group uint32) {
	s.groups[strings.ToLower(path)] = group
	folder := ""
	if i := strings.LastIndexByte(path, '\\'); i >= 0 {
		folder = path[:i]
	}
	s.folders[strings.ToLower(folder)] = append(s.folders[strings.ToLower(folder)], path)
}

func (s *fakeStorage) GroupOf(path string) (uint32, error) {
	s.calls++
	g, ok := s.groups[strings.ToLower(path)]
	if !ok {
		return 0, errMissing
	}
	return g, nil
}

func (s *fakeStorage) ListClips(folder string) ([]string, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.folders[strings.ToLower(folder)], nil
}

type fakeMaterializer struct {
	broken map[string]bool
	loads  []string
}

func (m *fakeMaterializer) Materialize(path string, playback any) (override.Clip, error) {
	m.loads = append(m.loads, path)
	if m.broken[strings.ToLower(path)] {
		return override.Clip{}, errMissing
	}
	return override.Clip{Path: path, Handle: playback}, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRegistry(st *fakeStorage, opts ...override.Option) (*override.Registry, *fakeMaterializer) {
	mat := &fakeMaterializer{broken: map[string]bool{}}
	opts = append([]override.Option{override.WithLogger(quietLogger()), override.WithRandom(override.NewSeededRandom(7))}, opts...)
	return override.New(st, mat, opts...), mat
}
