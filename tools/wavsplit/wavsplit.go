/* The wavsplit command splits a sound file into a dataset of equally long, labelled chunks.
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
	"os"
	"time"

	"github.com/cheggaaa/pb"

	"github.com/google-research/sentimentsets/tools/wavsplit/slicer"
)

var (
	soundFile       = flag.String("sound_file", "", "Path to the WAV file to split.")
	saveDir         = flag.String("save_dir", "", "Directory where datasets are saved. Created if missing.")
	sampleSize      = flag.Int("sample_size", 10, "Length of each chunk in seconds.")
	csvSave         = flag.Bool("csv_save", true, "Whether to write the metadata CSV.")
	head            = flag.String("head", "sample", "File name prefix of the chunks.")
	classID         = flag.Int("class_id", 1, "Class annotated for every chunk in the metadata.")
	datasetName     = flag.String("dataset_name", "", "Name of the dataset, a directory below save_dir. Empty saves directly in save_dir.")
	maxNum          = flag.Int("max_num", 1000, "Maximum number of chunks to save.")
	keepFinalWindow = flag.Bool("keep_final_window", false, "Whether to keep the last full chunk, which the splitter always dropped.")
	tfRecord        = flag.Bool("tfrecord", false, "Whether to also write every chunk with its spectrum as a tf.Example.")
)

func main() {
	flag.Parse()
	if *soundFile == "" || *saveDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg := slicer.DefaultConfig(*soundFile, *saveDir)
	cfg.SampleSize = time.Duration(*sampleSize) * time.Second
	cfg.EmitMetadata = *csvSave
	cfg.Head = *head
	cfg.ClassID = *classID
	cfg.DatasetName = *datasetName
	cfg.MaxWindows = *maxNum
	cfg.KeepFinalWindow = *keepFinalWindow
	cfg.TFRecord = *tfRecord

	buf, spans, err := slicer.Load(cfg)
	if err != nil {
		log.Panicf("Loading %s failed: %+v", cfg.SoundFile, err)
	}
	log.Printf("Loaded %v of audio, saving %d chunks", buf.Duration(), len(spans))
	bar := pb.StartNew(len(spans)).Prefix("Splitting")
	if _, err := slicer.Persist(buf, spans, cfg, bar); err != nil {
		log.Panicf("Splitting failed: %+v", err)
	}
	bar.Finish()
}
