/* The midi2npy command converts a labelled MIDI corpus into happy and sad piano roll snippets.
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
package main

import (
	"flag"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/cheggaaa/pb"

	"github.com/google-research/sentimentsets/tools/midi2npy/dataset"
	"github.com/google-research/sentimentsets/tools/pianoroll"
	"github.com/google-research/sentimentsets/tools/window"
)

var (
	mode        = flag.String("mode", "convert", "What to do: convert, reduce or join.")
	midiPath    = flag.String("midi_path", "", "The directory to search recursively for .mid files.")
	csvPath     = flag.String("csv_path", "", "The CSV file with valence and arousal annotations.")
	datasetPath = flag.String("dataset_path", "", "The directory to save the dataset in.")
	windowSize  = flag.Int("window_size", dataset.DefaultWindowSize, "Number of time steps per snippet.")
	resolution  = flag.Int("resolution", pianoroll.DefaultResolution, "Number of time steps per beat.")
	bandLow     = flag.Int("band_low", window.DefaultBand.Low, "Lowest MIDI note kept in the snippets.")
	bandHigh    = flag.Int("band_high", window.DefaultBand.High, "MIDI note above the highest kept in the snippets.")
	tfRecord    = flag.Bool("tfrecord", false, "Whether to also write every snippet as a tf.Example to "+dataset.TFRecordName+".")
	reduceDir   = flag.String("reduce_dir", "", "In reduce mode, the directory to down sample.")
	reduceCount = flag.Int("reduce_count", 0, "In reduce mode, the number of files to keep.")
	seed        = flag.Int64("seed", 0, "In reduce mode, the random seed. Zero uses the current time.")
	joinFirst   = flag.String("join_first", "", "In join mode, the first directory to join.")
	joinSecond  = flag.String("join_second", "", "In join mode, the second directory to join.")
	newPath     = flag.String("new_path", "", "In reduce and join mode, the directory below dataset_path to write to. Defaults to reduced or combined.")
)

func convert(cfg dataset.Config) {
	if *midiPath == "" || *csvPath == "" {
		flag.Usage()
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Panic(err)
	}
	paths, err := dataset.Discover(cfg.MIDIRoot)
	if err != nil {
		log.Panic(err)
	}
	log.Printf("Found %d MIDI files in %s", len(paths), cfg.MIDIRoot)
	bar := pb.StartNew(len(paths)).Prefix("Converting")
	if _, err := dataset.Build(cfg, paths, bar); err != nil {
		log.Panicf("Conversion failed: %+v", err)
	}
	bar.Finish()
	log.Print("Finished save!")
}

func main() {
	flag.Parse()
	if *datasetPath == "" {
		flag.Usage()
		os.Exit(1)
	}
	cfg := dataset.DefaultConfig(*midiPath, *csvPath, *datasetPath)
	cfg.WindowSize = *windowSize
	cfg.Resolution = *resolution
	cfg.Band = window.Band{Low: *bandLow, High: *bandHigh}
	cfg.TFRecord = *tfRecord

	switch *mode {
	case "convert":
		convert(cfg)
	case "reduce":
		if *reduceDir == "" {
			flag.Usage()
			os.Exit(1)
		}
		if *newPath == "" {
			*newPath = "reduced"
		}
		if *seed == 0 {
			*seed = time.Now().UnixNano()
		}
		if _, err := dataset.Reduce(cfg, *reduceDir, *reduceCount, *newPath, rand.New(rand.NewSource(*seed))); err != nil {
			log.Panicf("Down sampling failed: %+v", err)
		}
	case "join":
		if *joinFirst == "" || *joinSecond == "" {
			flag.Usage()
			os.Exit(1)
		}
		if *newPath == "" {
			*newPath = "combined"
		}
		if _, err := dataset.Join(cfg, *joinFirst, *joinSecond, *newPath); err != nil {
			log.Panicf("Joining failed: %+v", err)
		}
	default:
		log.Panicf("Unknown mode %q", *mode)
	}
}
