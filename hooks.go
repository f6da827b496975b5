package confcache

// Hooks are lightweight callbacks for high-signal backend events.
// Implementations MUST be cheap and non-blocking; the backend calls them on
// hot paths. Wrap with hooks/async if a sink may stall.
type Hooks interface {
	// A full warm-up scan ran; keys is the number of pairs written to the
	// cache (the sentinel excluded).
	AutofillRun(keys int)

	// The sentinel was present; the scan was suppressed.
	AutofillSkipped()

	// A batch cache read resolved fewer keys than requested and the backend
	// fell back. reason ∈ {"partial_miss", "cache_error"}
	CacheFallback(requested, hits int, reason string)

	// A concurrent create won the race for key; the write continued as an
	// update of the surviving record.
	CreateRaceRecovered(key string)

	// The durable store could not serve op; the call degraded to
	// absent / no-op. op ∈ {"autofill", "get", "mget", "set"}
	StoreUnavailable(op string)

	// An out-of-band save purged n cached registry entries (sentinel
	// excluded) ahead of a re-warm.
	Invalidated(n int)

	// A cached or stored payload failed to decode for key.
	DecodeError(key string, err error)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) AutofillRun(int)                {}
func (NopHooks) AutofillSkipped()               {}
func (NopHooks) CacheFallback(int, int, string) {}
func (NopHooks) CreateRaceRecovered(string)     {}
func (NopHooks) StoreUnavailable(string)        {}
func (NopHooks) Invalidated(int)                {}
func (NopHooks) DecodeError(string, error)      {}
