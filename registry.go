package confcache

// Registry enumerates every configuration key the backend manages. The
// backend never invents keys: warm-up and invalidation touch exactly the keys
// the registry names. Keys is read on every warm-up, so dynamic registries
// are allowed; implementations must be safe for concurrent use.
type Registry interface {
	Keys() []string
}

type staticRegistry []string

// Static builds a fixed Registry from a list of keys.
func Static(keys ...string) Registry {
	out := make(staticRegistry, len(keys))
	copy(out, keys)
	return out
}

func (r staticRegistry) Keys() []string { return r }
