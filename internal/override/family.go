package override

import (
	"fmt"
	"strings"
)

// splitClipPath splits a storage path into folder, stem and extension.
func splitClipPath(path string) (folder, stem, ext string) {
	if i := strings.LastIndexByte(path, '\\'); i >= 0 {
		folder, path = path[:i], path[i+1:]
	}
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return folder, path[:i], path[i:]
	}
	return folder, path, ""
}

// VariantFamilyPaths lists the sibling clips of canonical: clips in the same
// folder named "<stem>_<anything>.kf".
func VariantFamilyPaths(storage Storage, canonical string) ([]string, error) {
	canonical = normalizePath(canonical)
	folder, stem, ext := splitClipPath(canonical)
	if !strings.EqualFold(ext, ClipExt) {
		return nil, newError(CodeInvalidPath, "animation file does not end with .KF", map[string]string{"path": canonical}, nil)
	}
	if storage == nil {
		return nil, nil
	}
	clips, err := storage.ListClips(folder)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", folder, err)
	}
	prefix := fold(stem + "_")
	var out []string
	for _, c := range clips {
		c = normalizePath(c)
		_, s, e := splitClipPath(c)
		if !strings.EqualFold(e, ClipExt) || samePath(c, canonical) {
			continue
		}
		if strings.HasPrefix(fold(s), prefix) {
			out = append(out, c)
		}
	}
	return out, nil
}

// RegisterVariantFamily installs canonical as a fresh layer and every
// sibling variant as an appended candidate of that layer. Sibling failures
// are logged and skipped; it returns how many siblings were installed.
func (r *Registry) RegisterVariantFamily(kind SubjectKind, key uint32, canonical string, p Perspective) (int, error) {
	canonical = normalizePath(canonical)
	if _, _, ext := splitClipPath(canonical); !strings.EqualFold(ext, ClipExt) {
		return 0, newError(CodeInvalidPath, "animation file does not end with .KF", map[string]string{"path": canonical}, nil)
	}
	if err := r.InstallOverride(kind, key, canonical, p, true, false); err != nil {
		return 0, err
	}
	siblings, err := VariantFamilyPaths(r.groups.storage, canonical)
	if err != nil {
		r.log.Warn("override: variant enumeration failed", "path", canonical, "err", err)
		return 0, nil
	}
	n := 0
	for _, s := range siblings {
		if err := r.InstallOverride(kind, key, s, p, true, true); err != nil {
			r.log.Warn("override: variant skipped", "path", s, "err", err)
			continue
		}
		n++
	}
	return n, nil
}
