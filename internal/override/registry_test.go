package override_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/xtding233/animoverride/internal/override"
)

const (
	groupWalk  uint32 = 0x04
	playerRef  uint32 = 0x14
	playerBase uint32 = 0x07
	npcRef     uint32 = 0x0100AB01
	npcBase    uint32 = 0x0100AB00
	weaponRef  uint32 = 0x0200CD01
	weaponMod  uint8  = 2
	npcMod     uint8  = 1
)

func mustInstall(t *testing.T, r *override.Registry, kind override.SubjectKind, key uint32, path string, p override.Perspective, enable, appendMode bool) {
	t.Helper()
	if err := r.InstallOverride(kind, key, path, p, enable, appendMode); err != nil {
		t.Fatalf("install %s: %v", path, err)
	}
}

func actorReq(group uint32, hint string) override.Request {
	return override.Request{
		Subject: override.Subject{Kind: override.KindActor, Ref: npcRef, Base: npcBase, ModIndex: npcMod},
		Group:   group,
		Hint:    hint,
	}
}

func weaponReq(hint string) override.Request {
	return override.Request{
		Subject: override.Subject{Kind: override.KindWeapon, Ref: weaponRef, ModIndex: weaponMod},
		Group:   groupWalk,
		Hint:    hint,
	}
}

func TestResolveBeforeLoadIsMiss(t *testing.T) {
	st := newFakeStorage()
	st.add(`foo\walk.kf`, groupWalk)
	r, _ := newTestRegistry(st)
	mustInstall(t, r, override.KindWeapon, weaponRef, `foo\walk.kf`, override.ThirdPerson, true, false)
	if _, ok := r.Resolve(weaponReq("")); ok {
		t.Fatal("uninitialized registry must miss")
	}
	r.MarkLoaded()
	if _, ok := r.Resolve(weaponReq("")); !ok {
		t.Fatal("expected hit after load")
	}
	r.Reset()
	if r.Loaded() {
		t.Fatal("reset should return to uninitialized")
	}
	if _, ok := r.Resolve(weaponReq("")); ok {
		t.Fatal("reset registry must miss")
	}
}

func TestWeaponScenario(t *testing.T) {
	st := newFakeStorage()
	st.add(`foo\_male\walk.kf`, groupWalk)
	r, _ := newTestRegistry(st)
	mustInstall(t, r, override.KindWeapon, weaponRef, `foo\_male\walk.kf`, override.ThirdPerson, true, false)
	r.MarkLoaded()

	clip, ok := r.Resolve(weaponReq(""))
	if !ok || clip.Path != `foo\_male\walk.kf` {
		t.Fatalf("got %+v ok=%v", clip, ok)
	}
	if _, ok := r.Resolve(weaponReq(`meshes\hurt\walk.kf`)); ok {
		t.Fatal("hurt context has no layer and must miss")
	}
	req := weaponReq("")
	req.Perspective = override.FirstPerson
	if _, ok := r.Resolve(req); ok {
		t.Fatal("first person scope must not see third person overrides")
	}
}

func TestForwardSlashesNormalized(t *testing.T) {
	st := newFakeStorage()
	st.add(`foo\walk.kf`, groupWalk)
	r, _ := newTestRegistry(st)
	mustInstall(t, r, override.KindWeapon, weaponRef, "foo/walk.kf", override.ThirdPerson, true, false)
	r.MarkLoaded()
	clip, ok := r.Resolve(weaponReq(""))
	if !ok || clip.Path != `foo\walk.kf` {
		t.Fatalf("got %+v ok=%v", clip, ok)
	}
}

func TestVariantIsolation(t *testing.T) {
	st := newFakeStorage()
	st.add(`pack\female\walk.kf`, groupWalk)
	st.add(`pack\walk.kf`, groupWalk)
	r, _ := newTestRegistry(st)
	mustInstall(t, r, override.KindActor, npcRef, `pack\female\walk.kf`, override.ThirdPerson, true, false)
	r.MarkLoaded()

	if _, ok := r.Resolve(actorReq(groupWalk, "")); ok {
		t.Fatal("female clip selected without female context")
	}
	if _, ok := r.Resolve(actorReq(groupWalk, `x\male\idle`)); ok {
		t.Fatal("female clip selected under male context")
	}
	clip, ok := r.Resolve(actorReq(groupWalk, `characters\female\walk`))
	if !ok || clip.Path != `pack\female\walk.kf` {
		t.Fatalf("female context should resolve, got %+v", clip)
	}

	mustInstall(t, r, override.KindActor, npcRef, `pack\walk.kf`, override.ThirdPerson, true, false)
	clip, ok = r.Resolve(actorReq(groupWalk, ""))
	if !ok || clip.Path != `pack\walk.kf` {
		t.Fatalf("default context should resolve default layer, got %+v", clip)
	}
}

func TestFallbackChainOrder(t *testing.T) {
	st := newFakeStorage()
	st.add(`tpl\walk.kf`, groupWalk)
	st.add(`mod\walk.kf`, groupWalk)
	r, _ := newTestRegistry(st)
	mustInstall(t, r, override.KindTemplate, npcBase, `tpl\walk.kf`, override.ThirdPerson, true, false)
	mustInstall(t, r, override.KindModIndex, uint32(npcMod), `mod\walk.kf`, override.ThirdPerson, true, false)
	r.MarkLoaded()

	clip, ok := r.Resolve(actorReq(groupWalk, ""))
	if !ok || clip.Path != `tpl\walk.kf` {
		t.Fatalf("expected template tier, got %+v", clip)
	}

	noBase := actorReq(groupWalk, "")
	noBase.Subject.Base = 0
	clip, ok = r.Resolve(noBase)
	if !ok || clip.Path != `mod\walk.kf` {
		t.Fatalf("expected content source tier, got %+v", clip)
	}
}

func TestMaterializeFailureFallsThrough(t *testing.T) {
	st := newFakeStorage()
	st.add(`inst\walk.kf`, groupWalk)
	st.add(`mod\walk.kf`, groupWalk)
	r, mat := newTestRegistry(st)
	mustInstall(t, r, override.KindActor, npcRef, `inst\walk.kf`, override.ThirdPerson, true, false)
	mustInstall(t, r, override.KindModIndex, uint32(npcMod), `mod\walk.kf`, override.ThirdPerson, true, false)
	r.MarkLoaded()
	mat.broken[`inst\walk.kf`] = true

	clip, ok := r.Resolve(actorReq(groupWalk, ""))
	if !ok || clip.Path != `mod\walk.kf` {
		t.Fatalf("expected fall through to mod tier, got %+v ok=%v", clip, ok)
	}
	mat.broken[`mod\walk.kf`] = true
	if _, ok := r.Resolve(actorReq(groupWalk, "")); ok {
		t.Fatal("all tiers broken should miss")
	}
}

// firstPick always picks the first candidate.
type firstPick struct{}

func (firstPick) IntN(int) int { return 0 }

func TestMaterializeFailureSkipsRestOfLayer(t *testing.T) {
	st := newFakeStorage()
	st.add(`inst\bad.kf`, groupWalk)
	st.add(`inst\good.kf`, groupWalk)
	st.add(`mod\walk.kf`, groupWalk)
	r, mat := newTestRegistry(st, override.WithRandom(firstPick{}))
	mustInstall(t, r, override.KindActor, npcRef, `inst\bad.kf`, override.ThirdPerson, true, false)
	mustInstall(t, r, override.KindActor, npcRef, `inst\good.kf`, override.ThirdPerson, true, true)
	mustInstall(t, r, override.KindModIndex, uint32(npcMod), `mod\walk.kf`, override.ThirdPerson, true, false)
	r.MarkLoaded()
	mat.broken[`inst\bad.kf`] = true

	clip, ok := r.Resolve(actorReq(groupWalk, ""))
	if !ok || clip.Path != `mod\walk.kf` {
		t.Fatalf("expected mod tier clip, got %+v ok=%v", clip, ok)
	}
	inst := 0
	for _, p := range mat.loads {
		if strings.HasPrefix(p, `inst\`) {
			inst++
		}
	}
	if inst != 1 || mat.loads[0] != `inst\bad.kf` {
		t.Fatalf("expected one instance tier attempt, loads = %v", mat.loads)
	}
}

func TestActorGroupMasking(t *testing.T) {
	st := newFakeStorage()
	st.add(`inst\walk.kf`, groupWalk)
	r, _ := newTestRegistry(st)
	mustInstall(t, r, override.KindActor, npcRef, `inst\walk.kf`, override.ThirdPerson, true, false)
	r.MarkLoaded()

	a, okA := r.Resolve(actorReq(0x8004, ""))
	b, okB := r.Resolve(actorReq(0x0004, ""))
	if !okA || !okB || a.Path != b.Path {
		t.Fatalf("0x8004 and 0x0004 should resolve alike: %+v/%v %+v/%v", a, okA, b, okB)
	}

	st.add(`w\walk.kf`, groupWalk)
	mustInstall(t, r, override.KindWeapon, weaponRef, `w\walk.kf`, override.ThirdPerson, true, false)
	req := weaponReq("")
	req.Group = 0x8004
	if _, ok := r.Resolve(req); ok {
		t.Fatal("weapon groups are not masked")
	}
}

func TestRemovalExposesPriorLayer(t *testing.T) {
	st := newFakeStorage()
	st.add(`a\walk.kf`, groupWalk)
	st.add(`b\walk.kf`, groupWalk)
	r, _ := newTestRegistry(st)
	mustInstall(t, r, override.KindActor, npcRef, `a\walk.kf`, override.ThirdPerson, true, false)
	mustInstall(t, r, override.KindActor, npcRef, `b\walk.kf`, override.ThirdPerson, true, false)
	r.MarkLoaded()
	mustInstall(t, r, override.KindActor, npcRef, `B\WALK.KF`, override.ThirdPerson, false, false)

	clip, ok := r.Resolve(actorReq(groupWalk, ""))
	if !ok || clip.Path != `a\walk.kf` {
		t.Fatalf("expected prior layer, got %+v ok=%v", clip, ok)
	}

	mustInstall(t, r, override.KindActor, npcRef, `a\walk.kf`, override.ThirdPerson, false, false)
	if _, ok := r.Stacks(override.ThirdPerson, npcRef, groupWalk); ok {
		t.Fatal("empty group stacks should be dropped")
	}
}

func TestClassificationFailureLeavesRegistryUntouched(t *testing.T) {
	st := newFakeStorage()
	st.add(`a\walk.kf`, groupWalk)
	r, _ := newTestRegistry(st)
	mustInstall(t, r, override.KindActor, npcRef, `a\walk.kf`, override.ThirdPerson, true, false)
	before, err := r.Snapshot()
	if err != nil {
		t.Fatal(err)
	}

	err = r.InstallOverride(override.KindActor, npcRef, `nope\walk.kf`, override.ThirdPerson, true, false)
	if !errors.Is(err, override.ErrClassification) {
		t.Fatalf("expected classification error, got %v", err)
	}
	var oe *override.Error
	if !errors.As(err, &oe) || oe.Metadata["path"] != `nope\walk.kf` {
		t.Fatalf("expected metadata path, got %+v", oe)
	}
	after, _ := r.Snapshot()
	if !bytes.Equal(before, after) {
		t.Fatalf("registry changed:\n%s\n%s", before, after)
	}
}

func TestGroupLookupCached(t *testing.T) {
	st := newFakeStorage()
	st.add(`a\walk.kf`, groupWalk)
	r, _ := newTestRegistry(st)
	for i := 0; i < 3; i++ {
		mustInstall(t, r, override.KindActor, npcRef, `a\walk.kf`, override.ThirdPerson, true, false)
	}
	mustInstall(t, r, override.KindActor, npcRef, `A\Walk.kf`, override.ThirdPerson, true, false)
	if st.calls != 1 {
		t.Fatalf("storage classified %d times, want 1", st.calls)
	}
}

func TestFirstPersonRestrictedToPrimary(t *testing.T) {
	st := newFakeStorage()
	st.add(`a\walk.kf`, groupWalk)
	r, _ := newTestRegistry(st, override.WithPrimary(playerRef, playerBase))

	err := r.InstallOverride(override.KindActor, npcRef, `a\walk.kf`, override.FirstPerson, true, false)
	if !errors.Is(err, override.ErrInvalidPerspective) {
		t.Fatalf("expected invalid perspective, got %v", err)
	}
	if st.calls != 0 {
		t.Fatal("rejected request must not touch storage")
	}
	mustInstall(t, r, override.KindActor, playerRef, `a\walk.kf`, override.FirstPerson, true, false)
	mustInstall(t, r, override.KindTemplate, playerBase, `a\walk.kf`, override.FirstPerson, true, false)
	mustInstall(t, r, override.KindWeapon, weaponRef, `a\walk.kf`, override.FirstPerson, true, false)
	if err := r.InstallOverride(override.KindTemplate, npcBase, `a\walk.kf`, override.FirstPerson, true, false); !errors.Is(err, override.ErrInvalidPerspective) {
		t.Fatalf("expected invalid perspective for template, got %v", err)
	}
}

func TestUniformPickAmongTopLayer(t *testing.T) {
	st := newFakeStorage()
	paths := []string{`a\walk.kf`, `a\walk_1.kf`, `a\walk_2.kf`}
	for _, p := range paths {
		st.add(p, groupWalk)
	}
	r, _ := newTestRegistry(st)
	mustInstall(t, r, override.KindActor, npcRef, paths[0], override.ThirdPerson, true, false)
	mustInstall(t, r, override.KindActor, npcRef, paths[1], override.ThirdPerson, true, true)
	mustInstall(t, r, override.KindActor, npcRef, paths[2], override.ThirdPerson, true, true)
	r.MarkLoaded()

	counts := map[string]int{}
	const n = 3000
	for i := 0; i < n; i++ {
		clip, ok := r.Resolve(actorReq(groupWalk, ""))
		if !ok {
			t.Fatal("unexpected miss")
		}
		counts[clip.Path]++
	}
	for _, p := range paths {
		if c := counts[p]; c < 850 || c > 1150 {
			t.Fatalf("pick counts not uniform: %v", counts)
		}
	}
}

func TestResolveTransitionPrefersWeapon(t *testing.T) {
	st := newFakeStorage()
	st.add(`w\walk.kf`, groupWalk)
	st.add(`a\walk.kf`, groupWalk)
	r, _ := newTestRegistry(st)
	mustInstall(t, r, override.KindActor, npcRef, `a\walk.kf`, override.ThirdPerson, true, false)
	r.MarkLoaded()

	tr := override.Transition{
		Actor:  override.Subject{Ref: npcRef, Base: npcBase, ModIndex: npcMod},
		Weapon: &override.Subject{Ref: weaponRef, ModIndex: weaponMod},
		Group:  0x8004,
	}
	clip, ok := r.ResolveTransition(tr)
	if !ok || clip.Path != `a\walk.kf` || clip.Group != 0x8004 {
		t.Fatalf("expected actor clip with raw group, got %+v ok=%v", clip, ok)
	}

	mustInstall(t, r, override.KindWeapon, weaponRef, `w\walk.kf`, override.ThirdPerson, true, false)
	tr.Group = groupWalk
	clip, ok = r.ResolveTransition(tr)
	if !ok || clip.Path != `w\walk.kf` {
		t.Fatalf("expected weapon clip, got %+v ok=%v", clip, ok)
	}
}

func TestSnapshotLayout(t *testing.T) {
	st := newFakeStorage()
	st.add(`a\walk.kf`, groupWalk)
	st.add(`a\hurt\walk.kf`, groupWalk)
	r, _ := newTestRegistry(st)
	mustInstall(t, r, override.KindActor, npcRef, `a\walk.kf`, override.ThirdPerson, true, false)
	mustInstall(t, r, override.KindActor, npcRef, `a\hurt\walk.kf`, override.ThirdPerson, true, false)
	r.MarkLoaded()

	out, err := r.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if !gjson.GetBytes(out, "loaded").Bool() {
		t.Fatalf("snapshot not loaded: %s", out)
	}
	def := gjson.GetBytes(out, `third_person.0x0100AB01.0x4.default.0.0`).String()
	if def != `a\walk.kf` {
		t.Fatalf("default layer = %q in %s", def, out)
	}
	hurt := gjson.GetBytes(out, `third_person.0x0100AB01.0x4.hurt.0.0`).String()
	if hurt != `a\hurt\walk.kf` {
		t.Fatalf("hurt layer = %q in %s", hurt, out)
	}
}
