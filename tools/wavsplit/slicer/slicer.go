/* Package slicer splits a WAV file into a labelled dataset of equally long chunks.
 *
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
 */
package slicer

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google-research/sentimentsets/tools/dataerr"
	"github.com/google-research/sentimentsets/tools/labels"
	"github.com/google-research/sentimentsets/tools/partition"
	"github.com/google-research/sentimentsets/tools/tfrecords"
	"github.com/google-research/sentimentsets/tools/waveform"
	"github.com/google-research/sentimentsets/tools/window"
)

const (
	// AudioDir holds the chunks.
	AudioDir = "audio"
	// MetadataDir holds MetadataFile.
	MetadataDir = "metadata"
	// MetadataFile lists filename, length in milliseconds and class of every chunk.
	MetadataFile = "meta.csv"
	// TFRecordDir holds <head>.tfrecord when TFRecord is set.
	TFRecordDir = "tfrecord"
)

// Config defines a split.
type Config struct {
	// SoundFile is the WAV file to split.
	SoundFile string
	// SaveDir is where datasets are saved.
	SaveDir string
	// DatasetName, if set, is a directory below SaveDir receiving this dataset.
	DatasetName string
	// SampleSize is the length of each chunk.
	SampleSize time.Duration
	// EmitMetadata writes the metadata CSV.
	EmitMetadata bool
	// Head prefixes the chunk file names.
	Head string
	// ClassID is the class annotated for every chunk.
	ClassID int
	// MaxWindows caps the number of chunks if positive.
	MaxWindows int
	// KeepFinalWindow keeps the last full chunk, which is otherwise dropped like it always was.
	KeepFinalWindow bool
	// TFRecord additionally writes every chunk, with its spectrum, as a tf.Example.
	TFRecord bool
}

// DefaultConfig returns the configuration of the original splitter: 10 second chunks named
// sample_<i>.wav, annotated with class 1, at most 1000 of them, with metadata.
func DefaultConfig(soundFile, saveDir string) Config {
	return Config{
		SoundFile:    soundFile,
		SaveDir:      saveDir,
		SampleSize:   10 * time.Second,
		EmitMetadata: true,
		Head:         "sample",
		ClassID:      1,
		MaxWindows:   1000,
	}
}

// Folder returns the directory receiving the dataset.
func (c Config) Folder() string {
	if c.DatasetName != "" {
		return filepath.Join(c.SaveDir, c.DatasetName)
	}
	return c.SaveDir
}

// Validate returns a configuration error if the config can't produce any chunks.
func (c Config) Validate() error {
	if c.SampleSize <= 0 {
		return dataerr.New(dataerr.Configuration, "sample_size", "must be positive, got %v", c.SampleSize)
	}
	if c.SaveDir == "" {
		return dataerr.New(dataerr.Configuration, "save_dir", "must be set")
	}
	if c.Head == "" {
		return dataerr.New(dataerr.Configuration, "head", "must be set")
	}
	return nil
}

// Progress is notified once per saved chunk, e.g. a *pb.ProgressBar.
type Progress interface {
	Increment() int
}

// Row is a line of the metadata CSV.
type Row struct {
	Filename string
	Millis   int64
	ClassID  int
}

func (r Row) record() []string {
	return []string{r.Filename, strconv.FormatInt(r.Millis, 10), strconv.Itoa(r.ClassID)}
}

// Chunks returns the spans of buf that become chunks under cfg.
func Chunks(buf *waveform.Buffer, cfg Config) ([]window.Span, error) {
	size := buf.FramesFor(cfg.SampleSize)
	if err := window.CheckSize(size); err != nil {
		return nil, dataerr.New(dataerr.Configuration, "sample_size", "%v is less than one frame at %d Hz", cfg.SampleSize, buf.Format.SampleRate)
	}
	return window.Spans(buf.Len(), size, window.Options{
		TailGuard: !cfg.KeepFinalWindow,
		Max:       cfg.MaxWindows,
	})
}

// Load decodes the sound file and returns it with the spans to save.
func Load(cfg Config) (*waveform.Buffer, []window.Span, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	buf, err := waveform.Load(cfg.SoundFile)
	if err != nil {
		return nil, nil, err
	}
	spans, err := Chunks(buf, cfg)
	if err != nil {
		return nil, nil, err
	}
	return buf, spans, nil
}

// Persist saves each span of buf as <folder>/audio/<head>_<index>.wav and returns the metadata
// rows of the saved chunks, in order.
func Persist(buf *waveform.Buffer, spans []window.Span, cfg Config, progress Progress) ([]Row, error) {
	label := labels.Constant(cfg.ClassID)
	audioDir := filepath.Join(cfg.Folder(), AudioDir)
	log.Print("Creating folders...")
	if err := partition.EnsureDir(audioDir); err != nil {
		return nil, err
	}
	if cfg.EmitMetadata {
		if err := partition.EnsureDir(filepath.Join(cfg.Folder(), MetadataDir)); err != nil {
			return nil, err
		}
	}
	var examples *tfrecords.Writer
	if cfg.TFRecord {
		dir := filepath.Join(cfg.Folder(), TFRecordDir)
		if err := partition.EnsureDir(dir); err != nil {
			return nil, err
		}
		var err error
		if examples, err = tfrecords.Create(filepath.Join(dir, cfg.Head+".tfrecord")); err != nil {
			return nil, err
		}
		defer examples.Close()
	}

	log.Print("Splitting into samples...")
	rows := []Row{}
	for idx, span := range spans {
		chunk := buf.Slice(span.From, span.To)
		name := fmt.Sprintf("%s_%d.wav", cfg.Head, idx)
		if err := chunk.Save(filepath.Join(audioDir, name)); err != nil {
			return rows, err
		}
		rows = append(rows, Row{Filename: name, Millis: chunk.Millis(), ClassID: label.ClassID})
		if examples != nil {
			samples := chunk.Mono()
			ex := tfrecords.ChunkExample(name, idx, label.ClassID, chunk.Format.SampleRate, samples, waveform.SpectrumGains(samples))
			if err := examples.Write(ex); err != nil {
				return rows, dataerr.Wrap(dataerr.Filesystem, cfg.Head+".tfrecord", err)
			}
		}
		if progress != nil {
			progress.Increment()
		}
	}
	if examples != nil {
		if err := examples.Close(); err != nil {
			return rows, dataerr.Wrap(dataerr.Filesystem, cfg.Head+".tfrecord", err)
		}
	}
	if cfg.EmitMetadata {
		log.Print("Saving CSV...")
		if err := WriteMetadata(filepath.Join(cfg.Folder(), MetadataDir, MetadataFile), rows); err != nil {
			return rows, err
		}
	}
	log.Printf("Finished. Saved %d chunks of %v in %s", len(rows), cfg.SampleSize, cfg.Folder())
	return rows, nil
}

// WriteMetadata replaces the file at path with rows, without a header.
func WriteMetadata(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return dataerr.Wrap(dataerr.Filesystem, path, err)
	}
	writer := csv.NewWriter(f)
	for _, row := range rows {
		if err := writer.Write(row.record()); err != nil {
			f.Close()
			return dataerr.Wrap(dataerr.Filesystem, path, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return dataerr.Wrap(dataerr.Filesystem, path, err)
	}
	return dataerr.Wrap(dataerr.Filesystem, path, f.Close())
}

// Split loads the sound file, saves its chunks and returns their metadata rows.
func Split(cfg Config, progress Progress) ([]Row, error) {
	buf, spans, err := Load(cfg)
	if err != nil {
		return nil, err
	}
	return Persist(buf, spans, cfg, progress)
}
