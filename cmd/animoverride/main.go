package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/xtding233/animoverride/internal/clipstore"
	"github.com/xtding233/animoverride/internal/config"
	"github.com/xtding233/animoverride/internal/content"
	"github.com/xtding233/animoverride/internal/override"
	"github.com/xtding233/animoverride/internal/script"
)

type queries []string

func (q *queries) String() string     { return strings.Join(*q, ",") }
func (q *queries) Set(v string) error { *q = append(*q, v); return nil }

// logPlayer materializes clips started by scripts and logs them; the
// harness has no real actors to play them on.
type logPlayer struct {
	mat override.Materializer
	log *slog.Logger
}

func (p logPlayer) PlayClip(actor uint32, path string, seq int, firstPerson bool) error {
	clip, err := p.mat.Materialize(path, nil)
	if err != nil {
		return err
	}
	p.log.Info("harness: play clip", "actor", fmt.Sprintf("%08X", actor), "path", clip.Path,
		"group", fmt.Sprintf("%X", clip.Group), "sequence", seq, "first_person", firstPerson)
	return nil
}

func parseHex(s string) (uint32, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 32)
	return uint32(v), err
}

// parseQuery reads kind:formid:group[:1p], e.g. actor:0100AC01:8004:1p.
func parseQuery(q string, forms content.Forms) (override.Request, error) {
	parts := strings.Split(q, ":")
	if len(parts) < 3 || len(parts) > 4 {
		return override.Request{}, fmt.Errorf("query %q: want kind:formid:group[:1p]", q)
	}
	id, err := parseHex(parts[1])
	if err != nil {
		return override.Request{}, fmt.Errorf("query %q: invalid form id", q)
	}
	group, err := parseHex(parts[2])
	if err != nil {
		return override.Request{}, fmt.Errorf("query %q: invalid group", q)
	}
	req := override.Request{Group: group, Subject: override.Subject{Ref: id, ModIndex: uint8(id >> 24)}}
	if len(parts) == 4 {
		if parts[3] != "1p" {
			return override.Request{}, fmt.Errorf("query %q: unknown flag %s", q, parts[3])
		}
		req.Perspective = override.FirstPerson
	}
	switch parts[0] {
	case "weapon":
		req.Subject.Kind = override.KindWeapon
	case "actor":
		req.Subject.Kind = override.KindActor
		if f, ok := forms.LookupForm(id); ok {
			req.Subject.Base = f.Base
		}
	default:
		return override.Request{}, fmt.Errorf("query %q: kind must be weapon or actor", q)
	}
	return req, nil
}

func newLogger(level string) *slog.Logger {
	var lv slog.Level
	if err := lv.UnmarshalText([]byte(level)); err != nil {
		lv = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lv}))
}

func run(ctx context.Context, configDir, scriptFile string, snapshot bool, qs []string) error {
	st, err := config.NewLoader(configDir).Load()
	if err != nil {
		return err
	}
	log := newLogger(st.LogLevel)
	slog.SetDefault(log)
	log.Info("harness: config loaded", "version", st.Version, "meshes", st.MeshesDir, "override_dir", st.OverrideDir)

	forms := content.FormsFromFixture(st.Fixture)
	meshes := os.DirFS(st.MeshesDir)
	store := clipstore.New(meshes, st.Fixture.Groups)

	rng := override.DefaultRandom()
	if st.Seed != 0 {
		rng = override.NewSeededRandom(st.Seed)
	}
	reg := override.New(store, store,
		override.WithLogger(log),
		override.WithRandom(rng),
		override.WithPrimary(st.PrimaryRef, st.PrimaryBase))

	loader := content.NewLoader(meshes, st.OverrideDir, forms, log)
	if _, err := loader.Load(ctx, reg); err != nil {
		return err
	}

	if scriptFile != "" {
		b := script.New(reg, forms, logPlayer{mat: store, log: log}, st.PrimaryRef, log)
		if err := b.RunFile(scriptFile); err != nil {
			return err
		}
	}

	report := func() error {
		if snapshot {
			out, err := reg.Snapshot()
			if err != nil {
				return err
			}
			fmt.Println(string(out))
		}
		for _, q := range qs {
			req, err := parseQuery(q, forms)
			if err != nil {
				return err
			}
			if clip, ok := reg.Resolve(req); ok {
				fmt.Printf("%s -> %s (group %X)\n", q, clip.Path, clip.Group)
			} else {
				fmt.Printf("%s -> miss\n", q)
			}
		}
		return nil
	}
	if err := report(); err != nil {
		return err
	}
	if !st.Watch {
		return nil
	}

	// watch mode: the poller only signals, reloads happen here
	interval, err := time.ParseDuration(st.WatchInterval)
	if err != nil {
		return fmt.Errorf("watch interval: %w", err)
	}
	reloader := content.NewReloader(loader, reg)
	w := content.NewTreeWatcher(filepath.Join(st.MeshesDir, st.OverrideDir), interval, func(p string) {
		reloader.Request("changed " + p)
	})
	w.Start()
	defer w.Stop()
	log.Info("harness: watching for changes", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			_, ran, err := reloader.Drain(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			if ran {
				if err := report(); err != nil {
					return err
				}
			}
		}
	}
}

func main() {
	configDir := flag.String("config", ".", "directory holding animoverride.yaml")
	scriptFile := flag.String("script", "", "Lua script to run after loading")
	snapshot := flag.Bool("snapshot", false, "print the registry as JSON")
	var qs queries
	flag.Var(&qs, "resolve", "resolve kind:formid:group[:1p] (repeatable)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configDir, *scriptFile, *snapshot, qs); err != nil {
		slog.Error("harness: " + err.Error())
		os.Exit(1)
	}
}
