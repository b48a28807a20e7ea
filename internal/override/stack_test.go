package override_test

import (
	"reflect"
	"testing"

	"github.com/xtding233/animoverride/internal/override"
)

func layers(s *override.Stack) [][]string {
	var out [][]string
	for _, l := range s.Layers() {
		out = append(out, l.Paths)
	}
	return out
}

func TestStackPromotion(t *testing.T) {
	var s override.Stack
	s.Install("x.kf", false)
	s.Install("y.kf", false)
	if got := s.Install("X.KF", false); got != override.Promoted {
		t.Fatalf("expected promotion, got %v", got)
	}
	want := [][]string{{"y.kf"}, {"x.kf"}}
	if got := layers(&s); !reflect.DeepEqual(got, want) {
		t.Fatalf("layers = %v, want %v", got, want)
	}
}

func TestStackPromotionKeepsBuriedLayerContents(t *testing.T) {
	var s override.Stack
	s.Install("a.kf", false)
	s.Install("b.kf", true)
	s.Install("c.kf", false)
	s.Install("d.kf", false)
	s.Install("b.kf", true)
	want := [][]string{{"c.kf"}, {"d.kf"}, {"a.kf", "b.kf"}}
	if got := layers(&s); !reflect.DeepEqual(got, want) {
		t.Fatalf("layers = %v, want %v", got, want)
	}
}

func TestStackAppendVersusFresh(t *testing.T) {
	var s override.Stack
	if got := s.Install("a.kf", true); got != override.Pushed {
		t.Fatalf("append on empty stack should push, got %v", got)
	}
	s.Install("b.kf", true)
	top, _ := s.Top()
	if len(top.Paths) != 2 {
		t.Fatalf("append should grow top layer to 2, got %v", top.Paths)
	}
	s.Install("c.kf", false)
	top, _ = s.Top()
	if s.Len() != 2 || !reflect.DeepEqual(top.Paths, []string{"c.kf"}) {
		t.Fatalf("fresh install should push single-candidate layer, got %v", layers(&s))
	}
}

func TestStackDuplicateInstallStaysSingleLayer(t *testing.T) {
	var s override.Stack
	s.Install("a.kf", false)
	s.Install("a.kf", false)
	if s.Len() != 1 {
		t.Fatalf("duplicate install created %d layers", s.Len())
	}
}

func TestStackRemoveExposesPriorLayer(t *testing.T) {
	var s override.Stack
	s.Install("a.kf", false)
	s.Install("b.kf", false)
	if n := s.Remove("B.kf"); n != 1 {
		t.Fatalf("removed %d, want 1", n)
	}
	top, ok := s.Top()
	if !ok || !reflect.DeepEqual(top.Paths, []string{"a.kf"}) {
		t.Fatalf("top after removal = %v, want [a.kf]", top.Paths)
	}
	if s.Len() != 1 {
		t.Fatalf("empty layer should be pruned, len=%d", s.Len())
	}
}

func TestStackRemoveKeepsOrder(t *testing.T) {
	var s override.Stack
	s.Install("a.kf", false)
	s.Install("b.kf", true)
	s.Install("c.kf", true)
	s.Remove("b.kf")
	top, _ := s.Top()
	if !reflect.DeepEqual(top.Paths, []string{"a.kf", "c.kf"}) {
		t.Fatalf("top = %v", top.Paths)
	}
	if n := s.Remove("zzz.kf"); n != 0 {
		t.Fatalf("removing absent path removed %d", n)
	}
}

func TestGroupStacksUnknownVariantFallsBackToDefault(t *testing.T) {
	var g override.GroupStacks
	g.Get(override.VariantDefault).Install("a.kf", false)
	if g.Get(override.Variant(42)).Len() != 1 {
		t.Fatal("unknown variant should map to default stack")
	}
	if g.Get(override.VariantFemale).Len() != 0 {
		t.Fatal("female stack should be untouched")
	}
}
