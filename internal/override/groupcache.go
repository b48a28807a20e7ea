package override

// groupCache remembers the group of every clip path it has classified so
// the host only loads a clip once for classification.
type groupCache struct {
	storage Storage
	groups  map[string]uint32
}

func newGroupCache(storage Storage) *groupCache {
	return &groupCache{storage: storage, groups: make(map[string]uint32)}
}

func (c *groupCache) groupOf(path string) (uint32, error) {
	key := fold(path)
	if g, ok := c.groups[key]; ok {
		return g, nil
	}
	if c.storage == nil {
		return 0, newError(CodeClassification, "no storage to classify "+path, map[string]string{"path": path}, nil)
	}
	g, err := c.storage.GroupOf(path)
	if err != nil {
		return 0, newError(CodeClassification, "failed to resolve file '"+path+"'", map[string]string{"path": path}, err)
	}
	c.groups[key] = g
	return g, nil
}

func (c *groupCache) reset() {
	c.groups = make(map[string]uint32)
}
