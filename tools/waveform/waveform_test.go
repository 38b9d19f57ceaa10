/*
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
package waveform

import (
	"bytes"
	"io/ioutil"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/youpy/go-wav"

	"github.com/google-research/sentimentsets/tools/dataerr"
)

func makeSine(frequency float64, rate int, frames int) *Buffer {
	buf := &Buffer{
		Format: Format{Channels: 1, SampleRate: rate, BitsPerSample: 16},
		Frames: make([]wav.Sample, frames),
	}
	for idx := range buf.Frames {
		val := int(0.5 * math.Sin(2*math.Pi*frequency*float64(idx)/float64(rate)) * math.MaxInt16)
		buf.Frames[idx] = wav.Sample{Values: [2]int{val, 0}}
	}
	return buf
}

func TestRoundTrip(t *testing.T) {
	original := makeSine(100, 1000, 2500)
	encoded := &bytes.Buffer{}
	if err := original.WriteWAV(encoded); err != nil {
		t.Fatal(err)
	}
	decoded, err := Decode(bytes.NewReader(encoded.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(decoded.Format, original.Format); diff != "" {
		t.Errorf("decoded format differs: %v", diff)
	}
	if decoded.Len() != original.Len() {
		t.Fatalf("decoded %v frames, wanted %v", decoded.Len(), original.Len())
	}
	for idx := range original.Frames {
		if decoded.Frames[idx].Values[0] != original.Frames[idx].Values[0] {
			t.Fatalf("frame %v is %v, wanted %v", idx, decoded.Frames[idx].Values[0], original.Frames[idx].Values[0])
		}
	}
	if got := decoded.Duration(); got != 2500*time.Millisecond {
		t.Errorf("duration is %v, wanted 2.5s", got)
	}
	if got := decoded.Millis(); got != 2500 {
		t.Errorf("millis is %v, wanted 2500", got)
	}
	if got := decoded.FramesFor(2 * time.Second); got != 2000 {
		t.Errorf("FramesFor(2s) is %v, wanted 2000", got)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sine.wav")
	original := makeSine(50, 800, 800)
	if err := original.Slice(200, 600).Save(path); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Len() != 400 {
		t.Errorf("loaded %v frames, wanted 400", loaded.Len())
	}
	if loaded.Frames[0].Values[0] != original.Frames[200].Values[0] {
		t.Errorf("slice starts with %v, wanted %v", loaded.Frames[0].Values[0], original.Frames[200].Values[0])
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.wav")); !dataerr.Is(err, dataerr.Decode) {
		t.Errorf("loading a missing file produced %v, wanted a decode error", err)
	}
}

func TestLoadUnsupportedChannels(t *testing.T) {
	encoded := &bytes.Buffer{}
	if err := makeSine(100, 1000, 100).WriteWAV(encoded); err != nil {
		t.Fatal(err)
	}
	data := encoded.Bytes()
	// NumChannels of the fmt chunk.
	data[22] = 3
	path := filepath.Join(t.TempDir(), "three.wav")
	if err := ioutil.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if !dataerr.Is(err, dataerr.Decode) {
		t.Fatalf("loading a 3 channel file produced %v, wanted a decode error", err)
	}
	msg := err.Error()
	if strings.Count(msg, "DecodeError") != 1 || !strings.Contains(msg, path) {
		t.Errorf("%q should name the decode error once and the file", msg)
	}
}

func TestSpectrumGains(t *testing.T) {
	buf := makeSine(100, 1000, 1000)
	gains := SpectrumGains(buf.Mono())
	if len(gains) != 500 {
		t.Fatalf("got %v bins, wanted 500", len(gains))
	}
	peak := 0
	for bin := range gains {
		if gains[bin] > gains[peak] {
			peak = bin
		}
	}
	if peak != 100 {
		t.Errorf("peak at bin %v, wanted 100", peak)
	}
	if math.Abs(gains[peak]-0.5) > 0.01 {
		t.Errorf("peak gain is %v, wanted 0.5", gains[peak])
	}
}
