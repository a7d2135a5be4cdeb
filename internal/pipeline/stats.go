package pipeline

import (
	"time"

	"coldlaw/internal/translation"
	"coldlaw/internal/unpack"
)

// Stage names a pipeline step.
type Stage string

const (
	StageDownload  Stage = "download"
	StageUnpack    Stage = "unpack"
	StageExtract   Stage = "extract"
	StageTranslate Stage = "translate"
)

// Stages lists every stage in execution order.
var Stages = []Stage{StageDownload, StageUnpack, StageExtract, StageTranslate}

// DownloadStats mirrors the archive store report without per-file results.
type DownloadStats struct {
	Listed  int   `json:"listed"`
	Fetched int   `json:"fetched"`
	Skipped int   `json:"skipped"`
	Bytes   int64 `json:"bytes"`
}

// UnpackStats combines unpacking and pruning counters.
type UnpackStats struct {
	Archives         int `json:"archives"`
	Entries          int `json:"entries"`
	FragmentsWritten int `json:"fragments_written"`
	ManifestLines    int `json:"manifest_lines"`
	Marked           int `json:"marked"`
	Deleted          int `json:"deleted"`
}

// ExtractStats counts fragments seen by the extract stage.
type ExtractStats struct {
	Processed      int `json:"processed"`
	Skipped        int `json:"skipped"`
	Written        int `json:"written"`
	DroppedContent int `json:"dropped_content"`
	IDMismatches   int `json:"id_mismatches"`
}

// TranslateStats reports the corpus and the join.
type TranslateStats struct {
	Entries   int    `json:"entries"`
	Loaded    int    `json:"loaded"`
	Malformed int    `json:"malformed"`
	Rows      int64  `json:"rows"`
	Matched   int64  `json:"matched"`
	Unmatched int64  `json:"unmatched"`
	Digest    string `json:"digest,omitempty"`
	Changed   bool   `json:"changed"`
}

// Stats aggregates a run.
type Stats struct {
	RunID     string                  `json:"run_id"`
	Ran       []Stage                 `json:"ran"`
	Skipped   []Stage                 `json:"skipped"`
	Durations map[Stage]time.Duration `json:"durations"`
	Download  DownloadStats           `json:"download"`
	Unpack    UnpackStats             `json:"unpack"`
	Extract   ExtractStats            `json:"extract"`
	Translate TranslateStats          `json:"translate"`
	Outputs   map[string]string       `json:"outputs,omitempty"`
}

func (s *UnpackStats) addUnpack(u unpack.Stats) {
	s.Archives += u.Archives
	s.Entries += u.Entries
	s.FragmentsWritten += u.FragmentsWritten
	s.ManifestLines += u.ManifestLines
}

func (s *TranslateStats) setCorpus(c translation.CorpusStats) {
	s.Entries = c.Entries
	s.Loaded = c.Loaded
	s.Malformed = c.Malformed
}

func (s *Stats) ran(stage Stage, took time.Duration) {
	s.Ran = append(s.Ran, stage)
	if s.Durations == nil {
		s.Durations = make(map[Stage]time.Duration)
	}
	s.Durations[stage] = took
}

func (s *Stats) output(name, path string) {
	if s.Outputs == nil {
		s.Outputs = make(map[string]string)
	}
	s.Outputs[name] = path
}
