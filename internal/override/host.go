package override

// Host contract values. They belong to the game's animation system, not to
// the resolution algorithm.
const (
	// ActorGroupMask strips the flag the host sets in the high bits of actor
	// group ids for non-player actors.
	ActorGroupMask uint32 = 0xFFF
	// FreeGroupSlot is the unused group slot materialized clips are loaded into.
	FreeGroupSlot uint32 = 0xF5
	// ScriptedGroupSlot is the slot used when a script plays a clip directly.
	ScriptedGroupSlot uint32 = 0xFE
	// ClipExt is the extension of animation clip files.
	ClipExt = ".kf"
)

// Storage is the host's view of on-disk clips.
type Storage interface {
	// GroupOf resolves a clip path to its group id.
	GroupOf(path string) (uint32, error)
	// ListClips lists the clip files directly under folder, as storage paths.
	ListClips(folder string) ([]string, error)
}

// Materializer loads a clip into a playback context.
type Materializer interface {
	Materialize(path string, playback any) (Clip, error)
}

// Clip is a playable clip resource handed back to the host.
type Clip struct {
	Path   string
	Group  uint32
	Handle any
}
