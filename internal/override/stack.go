package override

// Layer is one insertion of interchangeable candidate clips.
type Layer struct {
	Paths []string
}

func (l Layer) contains(path string) bool {
	for _, p := range l.Paths {
		if samePath(p, path) {
			return true
		}
	}
	return false
}

func (l Layer) clone() Layer {
	return Layer{Paths: append([]string(nil), l.Paths...)}
}

// Outcome reports which mutation Install performed.
type Outcome int

const (
	Pushed Outcome = iota
	Appended
	Promoted
)

func (o Outcome) String() string {
	switch o {
	case Appended:
		return "appended"
	case Promoted:
		return "promoted"
	default:
		return "pushed"
	}
}

// Stack is an ordered list of layers. Only the last layer is live; older
// layers stay so that removing the newest one exposes the previous one.
// A Stack never holds an empty layer.
type Stack struct {
	layers []Layer
}

// Len returns the number of layers.
func (s *Stack) Len() int { return len(s.layers) }

// Top returns the live layer.
func (s *Stack) Top() (Layer, bool) {
	if len(s.layers) == 0 {
		return Layer{}, false
	}
	return s.layers[len(s.layers)-1], true
}

// Layers returns a copy of all layers, bottom first.
func (s *Stack) Layers() []Layer {
	out := make([]Layer, len(s.layers))
	for i, l := range s.layers {
		out[i] = l.clone()
	}
	return out
}

// Contains reports whether any layer holds path.
func (s *Stack) Contains(path string) bool {
	return s.indexOf(path) >= 0
}

func (s *Stack) indexOf(path string) int {
	for i, l := range s.layers {
		if l.contains(path) {
			return i
		}
	}
	return -1
}

// Install adds path to the stack.
//   - path already present in any layer: that layer moves to the top unchanged
//   - appendMode with a non-empty stack: path joins the top layer
//   - otherwise: a new layer holding only path is pushed
func (s *Stack) Install(path string, appendMode bool) Outcome {
	if i := s.indexOf(path); i >= 0 {
		if i != len(s.layers)-1 {
			l := s.layers[i]
			s.layers = append(s.layers[:i], s.layers[i+1:]...)
			s.layers = append(s.layers, l)
		}
		return Promoted
	}
	if appendMode && len(s.layers) > 0 {
		top := &s.layers[len(s.layers)-1]
		top.Paths = append(top.Paths, path)
		return Appended
	}
	s.layers = append(s.layers, Layer{Paths: []string{path}})
	return Pushed
}

// Remove erases every candidate equal to path and drops layers left empty.
// It returns the number of candidates removed.
func (s *Stack) Remove(path string) int {
	removed := 0
	kept := s.layers[:0]
	for _, l := range s.layers {
		paths := l.Paths[:0]
		for _, p := range l.Paths {
			if samePath(p, path) {
				removed++
				continue
			}
			paths = append(paths, p)
		}
		if len(paths) == 0 {
			continue
		}
		kept = append(kept, Layer{Paths: paths})
	}
	for i := len(kept); i < len(s.layers); i++ {
		s.layers[i] = Layer{}
	}
	s.layers = kept
	return removed
}

// GroupStacks holds the per-variant stacks of one (subject, group) pair.
type GroupStacks struct {
	stacks [variantCount]Stack
}

// Get returns the stack for v. Unknown variants map to the default stack.
func (g *GroupStacks) Get(v Variant) *Stack {
	if v < 0 || v >= variantCount {
		return &g.stacks[VariantDefault]
	}
	return &g.stacks[v]
}

func (g *GroupStacks) empty() bool {
	for i := range g.stacks {
		if g.stacks[i].Len() > 0 {
			return false
		}
	}
	return true
}
