/*
Package dataset turns a labelled MIDI corpus into fixed size piano roll snippets.

Every .mid file under a root directory is decoded into a binarized piano roll, cut into windows of
WindowSize time steps restricted to a band of pitches, and each window is saved as a
(WindowSize, band width, 1) .npy array in the happy or sad directory, depending on the valence of the
row of the label CSV whose midi column names the same file.

 * Copyright 2020 Google LLC
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 *     Unless required by applicable law or agreed to in writing, software
 *     distributed under the License is distributed on an "AS IS" BASIS,
 *     WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *     See the License for the specific language governing permissions and
 *     limitations under the License.
 *
*/
package dataset

import (
	"fmt"
	"log"
	"math/rand"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v2"

	"github.com/google-research/sentimentsets/tools/dataerr"
	"github.com/google-research/sentimentsets/tools/labels"
	"github.com/google-research/sentimentsets/tools/npy"
	"github.com/google-research/sentimentsets/tools/partition"
	"github.com/google-research/sentimentsets/tools/pianoroll"
	"github.com/google-research/sentimentsets/tools/tfrecords"
	"github.com/google-research/sentimentsets/tools/window"
)

const (
	// DefaultWindowSize is the number of time steps in a snippet.
	DefaultWindowSize = 64
	// TFRecordName is the file in the output directory receiving every snippet when TFRecord is set.
	TFRecordName = "snippets.tfrecord"
)

// Config defines a conversion.
type Config struct {
	// MIDIRoot is searched recursively for .mid files.
	MIDIRoot string
	// LabelCSV is the annotation file.
	LabelCSV string
	// OutputDir receives the happy and sad directories.
	OutputDir string
	// WindowSize is the number of time steps per snippet.
	WindowSize int
	// Resolution is the number of time steps per beat.
	Resolution int
	// Band is the range of pitches kept in the snippets.
	Band window.Band
	// TFRecord additionally writes every snippet as a tf.Example to OutputDir/TFRecordName.
	TFRecord bool
}

// DefaultConfig returns a configuration with the default snippet shape (64, 84, 1).
func DefaultConfig(midiRoot, labelCSV, outputDir string) Config {
	return Config{
		MIDIRoot:   midiRoot,
		LabelCSV:   labelCSV,
		OutputDir:  outputDir,
		WindowSize: DefaultWindowSize,
		Resolution: pianoroll.DefaultResolution,
		Band:       window.DefaultBand,
	}
}

// Validate returns a configuration error if the config can't produce any snippets.
func (c Config) Validate() error {
	if err := window.CheckSize(c.WindowSize); err != nil {
		return err
	}
	if c.Resolution <= 0 {
		return dataerr.New(dataerr.Configuration, "resolution", "must be positive, got %d", c.Resolution)
	}
	if err := c.Band.Check(pianoroll.Pitches); err != nil {
		return err
	}
	if c.OutputDir == "" {
		return dataerr.New(dataerr.Configuration, "output dir", "must be set")
	}
	return nil
}

// Progress is notified once per processed MIDI file, e.g. a *pb.ProgressBar.
type Progress interface {
	Increment() int
}

// Report summarizes a conversion.
type Report struct {
	Media    int
	Snippets int
	// Partitions maps partition name to the number of snippets written there.
	Partitions map[string]int
}

// Discover returns the sorted paths of all .mid files below root.
func Discover(root string) ([]string, error) {
	paths, err := doublestar.Glob(filepath.Join(root, "**", "*.mid"))
	if err != nil {
		return nil, dataerr.Wrap(dataerr.Filesystem, root, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// Snippets decodes the MIDI file at path and returns its windows.
func Snippets(path string, cfg Config) ([]window.Window, error) {
	roll, err := pianoroll.Load(path, cfg.Resolution)
	if err != nil {
		return nil, err
	}
	return window.Matrix(roll.Matrix(), cfg.WindowSize, cfg.Band, window.Options{})
}

// Persist saves each window as dir/<mediumID>_<index>.npy and returns the number of files written.
func Persist(dir string, mediumID string, windows []window.Window) (int, error) {
	if err := partition.EnsureDir(dir); err != nil {
		return 0, err
	}
	for idx, w := range windows {
		path := filepath.Join(dir, fmt.Sprintf("%s_%d", mediumID, idx))
		if err := npy.Save(path, w.Shape, w.Values); err != nil {
			return idx, dataerr.Wrap(dataerr.Filesystem, path, err)
		}
	}
	return len(windows), nil
}

// Build converts the corpus described by cfg, reporting each finished MIDI file to progress if not nil.
// It stops at the first file that can't be decoded or has no label.
func Build(cfg Config, paths []string, progress Progress) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	table, err := labels.LoadTable(cfg.LabelCSV)
	if err != nil {
		return nil, err
	}
	log.Printf("Loaded %d label rows from %s", len(table.Rows), cfg.LabelCSV)
	for _, name := range []string{labels.Happy, labels.Sad} {
		if err := partition.EnsureDir(filepath.Join(cfg.OutputDir, name)); err != nil {
			return nil, err
		}
	}
	var examples *tfrecords.Writer
	if cfg.TFRecord {
		if examples, err = tfrecords.Create(filepath.Join(cfg.OutputDir, TFRecordName)); err != nil {
			return nil, err
		}
		defer examples.Close()
	}

	report := &Report{Partitions: map[string]int{}}
	log.Printf("Saving %d MIDI files as snippets", len(paths))
	for _, path := range paths {
		windows, err := Snippets(path, cfg)
		if err != nil {
			return report, err
		}
		mediumID := filepath.Base(path)
		row, err := table.Lookup(path)
		if err != nil {
			return report, err
		}
		label := row.Label()
		written, err := Persist(filepath.Join(cfg.OutputDir, label.Partition), mediumID, windows)
		report.Snippets += written
		report.Partitions[label.Partition] += written
		if err != nil {
			return report, err
		}
		if examples != nil {
			for idx, w := range windows {
				if err := examples.Write(tfrecords.SnippetExample(mediumID, idx, label.ClassID, w)); err != nil {
					return report, dataerr.Wrap(dataerr.Filesystem, TFRecordName, err)
				}
			}
		}
		report.Media++
		if progress != nil {
			progress.Increment()
		}
	}
	if examples != nil {
		if err := examples.Close(); err != nil {
			return report, dataerr.Wrap(dataerr.Filesystem, TFRecordName, err)
		}
	}
	log.Printf("Saved %d snippets from %d MIDI files (%d happy, %d sad)",
		report.Snippets, report.Media, report.Partitions[labels.Happy], report.Partitions[labels.Sad])
	return report, nil
}

// Reduce copies count randomly chosen files of dir into OutputDir/newPath.
func Reduce(cfg Config, dir string, count int, newPath string, rng *rand.Rand) ([]string, error) {
	log.Printf("Down sampling %s to %d files", dir, count)
	copied, err := partition.DownSample(dir, filepath.Join(cfg.OutputDir, newPath), count, rng)
	if err != nil {
		return nil, err
	}
	log.Printf("Finished down sample")
	return copied, nil
}

// Join copies the files of first and second into OutputDir/newPath.
func Join(cfg Config, first, second, newPath string) (int, error) {
	log.Printf("Joining %s and %s in %s", first, second, newPath)
	count, err := partition.Join(first, second, filepath.Join(cfg.OutputDir, newPath))
	if err != nil {
		return count, err
	}
	log.Printf("Finished joining %d files", count)
	return count, nil
}
