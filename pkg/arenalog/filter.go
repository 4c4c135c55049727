package arenalog

// compiledFilter holds include/exclude sets for event type filtering.
type compiledFilter struct {
	include map[EventType]struct{}
	exclude map[EventType]struct{}
}

func newCompiledFilter(include, exclude []EventType) *compiledFilter {
	f := &compiledFilter{}
	if len(include) > 0 {
		f.include = make(map[EventType]struct{}, len(include))
		for _, t := range include {
			f.include[t] = struct{}{}
		}
	}
	if len(exclude) > 0 {
		f.exclude = make(map[EventType]struct{}, len(exclude))
		for _, t := range exclude {
			f.exclude[t] = struct{}{}
		}
	}
	return f
}

// Allows reports whether an event type passes the filter. Exclude takes
// precedence over include; an empty include set allows everything. A nil
// filter allows everything.
func (f *compiledFilter) Allows(t EventType) bool {
	if f == nil {
		return true
	}
	if _, ok := f.exclude[t]; ok {
		return false
	}
	if len(f.include) > 0 {
		_, ok := f.include[t]
		return ok
	}
	return true
}
