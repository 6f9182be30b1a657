package normalize

// stringSet is a small allow/deny-list helper; a nil or empty set means
// "allow all" for allow-lists, per spec.md §6's documented defaults.
type stringSet map[string]struct{}

func newStringSet(values []string) stringSet {
	if len(values) == 0 {
		return nil
	}
	s := make(stringSet, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

func (s stringSet) allows(v string) bool {
	if s == nil {
		return true
	}
	_, ok := s[v]
	return ok
}

func (s stringSet) denies(v string) bool {
	if s == nil {
		return false
	}
	_, ok := s[v]
	return ok
}

func (s stringSet) anyDenied(values []string) bool {
	if s == nil {
		return false
	}
	for _, v := range values {
		if s.denies(v) {
			return true
		}
	}
	return false
}

// Filters holds the compiled artist-type allow-list and release-group
// primary-type allow-list / secondary-type deny-list from the build
// config, applied during C5's primary loop (spec.md §4.5 steps 3-4).
type Filters struct {
	artistTypes           stringSet
	releaseGroupTypes     stringSet
	excludeSecondaryTypes stringSet
}

func NewFilters(includeArtistTypes, includeReleaseTypes, excludeSecondaryTypes []string) Filters {
	return Filters{
		artistTypes:           newStringSet(includeArtistTypes),
		releaseGroupTypes:     newStringSet(includeReleaseTypes),
		excludeSecondaryTypes: newStringSet(excludeSecondaryTypes),
	}
}

func (f Filters) AllowArtistType(artistType string) bool {
	return f.artistTypes.allows(artistType)
}

// AllowReleaseGroup applies both the primary-type allow-list and the
// secondary-type deny-list; a release-group must pass both.
func (f Filters) AllowReleaseGroup(primaryType string, secondaryTypes []string) bool {
	if !f.releaseGroupTypes.allows(primaryType) {
		return false
	}
	return !f.excludeSecondaryTypes.anyDenied(secondaryTypes)
}
