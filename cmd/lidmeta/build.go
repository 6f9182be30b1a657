package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/davedean/lidmeta/internal/archive"
	"github.com/davedean/lidmeta/internal/common"
	"github.com/davedean/lidmeta/internal/pipeline/filter"
	"github.com/davedean/lidmeta/internal/pipeline/fts"
	"github.com/davedean/lidmeta/internal/pipeline/index"
	"github.com/davedean/lidmeta/internal/pipeline/manifest"
	"github.com/davedean/lidmeta/internal/pipeline/normalize"
	"github.com/davedean/lidmeta/internal/pipeline/seekfile"
	"github.com/davedean/lidmeta/internal/pipeline/writer"
)

const (
	entityArtist       = "artist"
	entityReleaseGroup = "release-group"
	entityRelease      = "release"
)

// runBuild sequences C1 -> C2 -> C3 -> (C4 || C5) -> C6 per spec.md §2,
// using the per-stage manifest to skip work that is already up to date
// with the configured sources and build flags.
func runBuild(cfg *common.Config, logger arbor.ILogger) error {
	start := time.Now()
	runID := uuid.New().String()
	logger.Info().Str("run_id", runID).Msg("build starting")

	mstore, err := manifest.NewStore(cfg.Storage.ManifestDir)
	if err != nil {
		return fmt.Errorf("open manifest store: %w", err)
	}

	flags := buildFlags(cfg)

	artistFiltered := filepath.Join(cfg.Storage.FilteredDir, "artist.ndjson")
	rgFiltered := filepath.Join(cfg.Storage.FilteredDir, "release-group.ndjson")
	releaseFiltered := filepath.Join(cfg.Storage.FilteredDir, "release.ndjson")

	if err := os.MkdirAll(cfg.Storage.FilteredDir, 0o755); err != nil {
		return fmt.Errorf("create filtered dir: %w", err)
	}

	if err := filterArtists(cfg, logger, runID, mstore, flags, artistFiltered); err != nil {
		return err
	}
	if err := filterReleaseGroups(cfg, logger, runID, mstore, flags, rgFiltered); err != nil {
		return err
	}
	if cfg.Build.UseFullReleaseData {
		if err := filterReleases(cfg, logger, runID, mstore, flags, releaseFiltered); err != nil {
			return err
		}
	}

	artistOffsets, rgOffsets, releaseOffsets, artistToRG, rgToRelease, err := buildIndexes(cfg, logger, runID, artistFiltered, rgFiltered, releaseFiltered)
	if err != nil {
		return err
	}
	defer artistOffsets.Close()
	defer rgOffsets.Close()
	defer artistToRG.Close()
	if releaseOffsets != nil {
		defer releaseOffsets.Close()
	}
	if rgToRelease != nil {
		defer rgToRelease.Close()
	}

	if err := buildFTS(cfg, logger, runID, artistFiltered); err != nil {
		return err
	}

	result, err := runNormalize(cfg, logger, runID, artistFiltered, rgFiltered, releaseFiltered, artistOffsets, rgOffsets, releaseOffsets, artistToRG, rgToRelease)
	if err != nil {
		return err
	}

	logger.Info().
		Str("run_id", runID).
		Int64("written", result.Written).
		Int64("skipped", result.Skipped).
		Int64("failed", result.Failed).
		Dur("elapsed", time.Since(start)).
		Msg("build complete")
	return nil
}

// buildFlags captures the build-affecting config knobs that invalidate a
// stage's manifest when changed, even if the source files themselves have
// not.
func buildFlags(cfg *common.Config) map[string]string {
	return map[string]string{
		"use_full_release_data":  fmt.Sprintf("%v", cfg.Build.UseFullReleaseData),
		"include_release_types":  fmt.Sprintf("%v", cfg.Build.IncludeReleaseTypes),
		"exclude_secondary_types": fmt.Sprintf("%v", cfg.Build.ExcludeSecondaryTypes),
		"include_artist_types":   fmt.Sprintf("%v", cfg.Build.IncludeArtistTypes),
	}
}

func filterArtists(cfg *common.Config, logger arbor.ILogger, runID string, mstore *manifest.Store, flags map[string]string, dest string) error {
	const stage = "filter_artist"
	raw := filepath.Join(cfg.Sources.ExtractDir, "artist.ndjson")
	if err := archive.Extract(logger, cfg.Sources.ArtistArchive, entityArtist, raw); err != nil {
		return fmt.Errorf("extract artist archive: %w", err)
	}

	sources, err := manifest.StatSources(raw)
	if err != nil {
		return err
	}
	if upToDate, err := manifest.UpToDate(mstore, stage, sources, flags); err != nil {
		return err
	} else if upToDate {
		logger.Info().Str("run_id", runID).Str("stage", stage).Msg("up to date, skipping")
		return nil
	}

	in, err := os.Open(raw)
	if err != nil {
		return fmt.Errorf("open %s: %w", raw, err)
	}
	defer in.Close()
	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	defer out.Close()

	result, err := filter.Artists(in, out)
	if err != nil {
		return fmt.Errorf("filter artists: %w", err)
	}
	logger.Info().Str("run_id", runID).Str("stage", stage).Int64("input", result.InputLines).Int64("output", result.OutputLines).Int64("invalid", result.InvalidLines).Msg("filter stage complete")
	if result.InvalidRatio() > cfg.Build.MaxInvalidLineRatio {
		return fmt.Errorf("%s: invalid line ratio %.4f exceeds max %.4f", stage, result.InvalidRatio(), cfg.Build.MaxInvalidLineRatio)
	}

	return mstore.Write(stage, manifest.NewCompletedManifest(stage, sources, flags, result.OutputLines))
}

func filterReleaseGroups(cfg *common.Config, logger arbor.ILogger, runID string, mstore *manifest.Store, flags map[string]string, dest string) error {
	const stage = "filter_release_group"
	raw := filepath.Join(cfg.Sources.ExtractDir, "release-group.ndjson")
	if err := archive.Extract(logger, cfg.Sources.ReleaseGroupArchive, entityReleaseGroup, raw); err != nil {
		return fmt.Errorf("extract release-group archive: %w", err)
	}

	sources, err := manifest.StatSources(raw)
	if err != nil {
		return err
	}
	if upToDate, err := manifest.UpToDate(mstore, stage, sources, flags); err != nil {
		return err
	} else if upToDate {
		logger.Info().Str("run_id", runID).Str("stage", stage).Msg("up to date, skipping")
		return nil
	}

	in, err := os.Open(raw)
	if err != nil {
		return fmt.Errorf("open %s: %w", raw, err)
	}
	defer in.Close()
	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	defer out.Close()

	result, err := filter.ReleaseGroups(in, out)
	if err != nil {
		return fmt.Errorf("filter release-groups: %w", err)
	}
	logger.Info().Str("run_id", runID).Str("stage", stage).Int64("input", result.InputLines).Int64("output", result.OutputLines).Int64("invalid", result.InvalidLines).Msg("filter stage complete")
	if result.InvalidRatio() > cfg.Build.MaxInvalidLineRatio {
		return fmt.Errorf("%s: invalid line ratio %.4f exceeds max %.4f", stage, result.InvalidRatio(), cfg.Build.MaxInvalidLineRatio)
	}

	return mstore.Write(stage, manifest.NewCompletedManifest(stage, sources, flags, result.OutputLines))
}

// filterReleases streams the release archive straight through the filter
// without ever extracting it to disk (spec.md §4.1: the release dump is too
// large to materialize).
func filterReleases(cfg *common.Config, logger arbor.ILogger, runID string, mstore *manifest.Store, flags map[string]string, dest string) error {
	const stage = "filter_release"
	sources, err := manifest.StatSources(cfg.Sources.ReleaseArchive)
	if err != nil {
		return err
	}
	if upToDate, err := manifest.UpToDate(mstore, stage, sources, flags); err != nil {
		return err
	} else if upToDate {
		logger.Info().Str("run_id", runID).Str("stage", stage).Msg("up to date, skipping")
		return nil
	}

	stream, err := archive.OpenStream(cfg.Sources.ReleaseArchive, entityRelease)
	if err != nil {
		return fmt.Errorf("open release stream: %w", err)
	}
	defer stream.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	defer out.Close()

	result, err := filter.Releases(stream, out)
	if err != nil {
		return fmt.Errorf("filter releases: %w", err)
	}
	logger.Info().Str("run_id", runID).Str("stage", stage).Int64("input", result.InputLines).Int64("output", result.OutputLines).Int64("invalid", result.InvalidLines).Msg("filter stage complete")
	if result.InvalidRatio() > cfg.Build.MaxInvalidLineRatio {
		return fmt.Errorf("%s: invalid line ratio %.4f exceeds max %.4f", stage, result.InvalidRatio(), cfg.Build.MaxInvalidLineRatio)
	}

	return mstore.Write(stage, manifest.NewCompletedManifest(stage, sources, flags, result.OutputLines))
}

func buildIndexes(cfg *common.Config, logger arbor.ILogger, runID string, artistFiltered, rgFiltered, releaseFiltered string) (*index.OffsetIndex, *index.OffsetIndex, *index.OffsetIndex, *index.JoinIndex, *index.JoinIndex, error) {
	artistOffsets, err := index.OpenOffsetIndex(filepath.Join(cfg.Storage.IndexPath, "artist-offsets"))
	if err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("open artist offset index: %w", err)
	}
	rgOffsets, err := index.OpenOffsetIndex(filepath.Join(cfg.Storage.IndexPath, "rg-offsets"))
	if err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("open release-group offset index: %w", err)
	}
	artistToRG, err := index.OpenJoinIndex(filepath.Join(cfg.Storage.IndexPath, "artist-to-rg"))
	if err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("open artist-to-rg join index: %w", err)
	}

	artistIn, err := os.Open(artistFiltered)
	if err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("open %s: %w", artistFiltered, err)
	}
	defer artistIn.Close()
	artistRes, err := index.BuildArtistOffsets(artistIn, artistOffsets)
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}
	logger.Info().Str("run_id", runID).Str("stage", "index_artist").Int64("lines", artistRes.Lines).Msg("offset index built")

	rgIn, err := os.Open(rgFiltered)
	if err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("open %s: %w", rgFiltered, err)
	}
	defer rgIn.Close()
	rgRes, err := index.BuildReleaseGroupOffsets(rgIn, rgOffsets, artistToRG)
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}
	logger.Info().Str("run_id", runID).Str("stage", "index_release_group").Int64("lines", rgRes.Lines).Int64("joined", rgRes.JoinedCount).Int64("missing_join", rgRes.MissingJoin).Msg("offset index built")

	if !cfg.Build.UseFullReleaseData {
		return artistOffsets, rgOffsets, nil, artistToRG, nil, nil
	}

	releaseOffsets, err := index.OpenOffsetIndex(filepath.Join(cfg.Storage.IndexPath, "release-offsets"))
	if err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("open release offset index: %w", err)
	}
	rgToRelease, err := index.OpenJoinIndex(filepath.Join(cfg.Storage.IndexPath, "rg-to-release"))
	if err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("open rg-to-release join index: %w", err)
	}

	releaseIn, err := os.Open(releaseFiltered)
	if err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("open %s: %w", releaseFiltered, err)
	}
	defer releaseIn.Close()
	releaseRes, err := index.BuildReleaseOffsets(releaseIn, releaseOffsets, rgToRelease)
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}
	logger.Info().Str("run_id", runID).Str("stage", "index_release").Int64("lines", releaseRes.Lines).Int64("joined", releaseRes.JoinedCount).Int64("missing_join", releaseRes.MissingJoin).Msg("offset index built")

	return artistOffsets, rgOffsets, releaseOffsets, artistToRG, rgToRelease, nil
}

// buildFTS runs C4: the sole writer of the full-text index, as a single
// unconditional pass over every filtered artist line.
func buildFTS(cfg *common.Config, logger arbor.ILogger, runID string, artistFiltered string) error {
	w, err := fts.OpenWriter(cfg.Storage.FTSPath)
	if err != nil {
		return fmt.Errorf("open fts writer: %w", err)
	}
	defer w.Close()

	in, err := os.Open(artistFiltered)
	if err != nil {
		return fmt.Errorf("open %s: %w", artistFiltered, err)
	}
	defer in.Close()

	result, err := fts.Build(in, w)
	if err != nil {
		return fmt.Errorf("build fts index: %w", err)
	}
	if err := w.Compact(); err != nil {
		return fmt.Errorf("compact fts index: %w", err)
	}
	logger.Info().Str("run_id", runID).Str("stage", "fts").Int64("artist_lines", result.ArtistLines).Int64("rows_written", result.RowsWritten).Msg("fts index built")
	return nil
}

// runNormalize runs C5 over every indexed artist MBID.
func runNormalize(cfg *common.Config, logger arbor.ILogger, runID string, artistFiltered, rgFiltered, releaseFiltered string, artistOffsets, rgOffsets, releaseOffsets *index.OffsetIndex, artistToRG, rgToRelease *index.JoinIndex) (normalize.Result, error) {
	docs, err := writer.Open(cfg.Storage.DocumentRoot, filepath.Join(cfg.Storage.ManifestDir, "documents"))
	if err != nil {
		return normalize.Result{}, fmt.Errorf("open document store: %w", err)
	}
	defer docs.Close()

	artistFile, err := seekfile.Open(artistFiltered)
	if err != nil {
		return normalize.Result{}, fmt.Errorf("open %s for seek reads: %w", artistFiltered, err)
	}
	defer artistFile.Close()

	rgFile, err := seekfile.Open(rgFiltered)
	if err != nil {
		return normalize.Result{}, fmt.Errorf("open %s for seek reads: %w", rgFiltered, err)
	}
	defer rgFile.Close()

	var releaseFile *seekfile.Reader
	if cfg.Build.UseFullReleaseData {
		releaseFile, err = seekfile.Open(releaseFiltered)
		if err != nil {
			return normalize.Result{}, fmt.Errorf("open %s for seek reads: %w", releaseFiltered, err)
		}
		defer releaseFile.Close()
	}

	mbids, err := artistOffsets.Keys()
	if err != nil {
		return normalize.Result{}, fmt.Errorf("list artist mbids: %w", err)
	}

	runner := &normalize.Runner{
		ArtistFile:         artistFile,
		RGFile:             rgFile,
		ReleaseFile:        releaseFile,
		ArtistOffsets:      artistOffsets,
		RGOffsets:          rgOffsets,
		ArtistToRG:         artistToRG,
		Docs:               docs,
		Filters:            normalize.NewFilters(cfg.Build.IncludeArtistTypes, cfg.Build.IncludeReleaseTypes, cfg.Build.ExcludeSecondaryTypes),
		UseFullReleaseData: cfg.Build.UseFullReleaseData,
		Concurrency:        cfg.Build.NormalizeConcurrency,
		Logger:             logger,
	}

	// releaseOffsets/rgToRelease are typed nil *index.OffsetIndex/*index.JoinIndex
	// when full release data is off; assigning a typed nil pointer to an
	// interface field would produce a non-nil interface wrapping nil, so they
	// are only set when genuinely present.
	if releaseOffsets != nil {
		runner.ReleaseOffsets = releaseOffsets
	}
	if rgToRelease != nil {
		runner.RGToRelease = rgToRelease
	}

	logger.Info().Str("run_id", runID).Int("artists", len(mbids)).Int("concurrency", runner.Concurrency).Msg("normalize stage starting")
	return runner.Run(mbids), nil
}
