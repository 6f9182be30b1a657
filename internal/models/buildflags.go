package models

// BuildFlags are the options that shape what C2's schema filter keeps and
// how C5's normalizer assembles albums. cmd/lidmeta's build driver does not
// use this type: it records its own flag map, built from
// common.BuildConfig, in the filter stages' manifests.
type BuildFlags struct {
	// UseFullReleaseData makes the build filter, index and load the release
	// dump; without it, each album carries a single placeholder release.
	UseFullReleaseData bool `toml:"use_full_release_data"`

	// IncludeReleaseTypes restricts release-groups kept to these
	// primary-type values. Empty means keep all.
	IncludeReleaseTypes []string `toml:"include_release_types"`

	// ExcludeSecondaryTypes drops release-groups carrying any of these
	// secondary types (e.g. "Compilation", "Live").
	ExcludeSecondaryTypes []string `toml:"exclude_secondary_types"`

	// IncludeArtistTypes restricts artists kept to these type values.
	// Empty means keep all.
	IncludeArtistTypes []string `toml:"include_artist_types"`
}

// AsManifestMap flattens the flags into the string map Manifest.BuildFlags
// stores, so manifest comparison is a plain map equality check.
func (f BuildFlags) AsManifestMap() map[string]string {
	return map[string]string{
		"use_full_release_data":  boolFlag(f.UseFullReleaseData),
		"include_release_types":  joinSorted(f.IncludeReleaseTypes),
		"exclude_secondary_types": joinSorted(f.ExcludeSecondaryTypes),
		"include_artist_types":    joinSorted(f.IncludeArtistTypes),
	}
}

func boolFlag(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func joinSorted(values []string) string {
	if len(values) == 0 {
		return ""
	}
	out := make([]string, len(values))
	copy(out, values)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	joined := out[0]
	for _, v := range out[1:] {
		joined += "," + v
	}
	return joined
}
