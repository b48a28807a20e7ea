package content

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"gopkg.in/ini.v1"
)

// entry binds a host record to a named folder under the override root.
type entry struct {
	source string
	mod    string
	form   string
	folder string
}

// parseHexID accepts "AB01", "0xAB01" and "0XAB01".
func parseHexID(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" {
		return 0, fmt.Errorf("empty form id")
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

// parseJSONEntries reads an array of {"mod", "form", "folder"} objects.
// Bad elements are reported and skipped.
func parseJSONEntries(source string, data []byte, rep *Report) []entry {
	if !gjson.ValidBytes(data) {
		rep.addf(source, nil, "invalid JSON")
		return nil
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		rep.addf(source, nil, "does not start as a JSON array")
		return nil
	}
	var out []entry
	i := 0
	root.ForEach(func(_, v gjson.Result) bool {
		defer func() { i++ }()
		if !v.IsObject() {
			rep.addf(source, nil, "element %d: expected object with mod, form and folder fields", i)
			return true
		}
		e := entry{source: source}
		for _, f := range []struct {
			key string
			dst *string
		}{{"mod", &e.mod}, {"form", &e.form}, {"folder", &e.folder}} {
			r := v.Get(f.key)
			if r.Type != gjson.String || r.String() == "" {
				rep.addf(source, nil, "element %d: field %q must be a non-empty string", i, f.key)
				return true
			}
			*f.dst = r.String()
		}
		out = append(out, e)
		return true
	})
	return out
}

// parseINIEntries reads one entry per section:
//
//	[guns]
//	mod = Guns.esp
//	form = 0x00AB01
//	folder = MyGunAnims
func parseINIEntries(source string, data []byte, rep *Report) []entry {
	f, err := ini.LoadSources(ini.LoadOptions{
		InsensitiveKeys:         true,
		SkipUnrecognizableLines: true,
	}, data)
	if err != nil {
		rep.addf(source, err, "invalid INI")
		return nil
	}
	var out []entry
	for _, sec := range f.Sections() {
		if sec.Name() == ini.DEFAULT_SECTION {
			continue
		}
		e := entry{
			source: source + "[" + sec.Name() + "]",
			mod:    strings.TrimSpace(sec.Key("mod").String()),
			form:   strings.TrimSpace(sec.Key("form").String()),
			folder: strings.TrimSpace(sec.Key("folder").String()),
		}
		if e.mod == "" || e.form == "" || e.folder == "" {
			rep.addf(e.source, nil, "section needs mod, form and folder keys")
			continue
		}
		out = append(out, e)
	}
	return out
}
