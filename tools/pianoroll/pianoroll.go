/* Package pianoroll decodes Standard MIDI Files into binarized piano roll matrices.
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
package pianoroll

import (
	"io"
	"math"
	"os"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
	"gonum.org/v1/gonum/mat"

	"github.com/google-research/sentimentsets/tools/dataerr"
)

const (
	// Pitches is the number of MIDI notes, and the width of every roll.
	Pitches = 128
	// DefaultResolution is the default number of time steps per beat.
	DefaultResolution = 16
)

// Roll is a time x pitch matrix where each cell counts the tracks sounding that pitch at that step.
type Roll struct {
	// Resolution is the number of time steps per beat.
	Resolution int
	dense      *mat.Dense
}

// Len returns the number of time steps in the roll.
func (r *Roll) Len() int {
	if r.dense == nil {
		return 0
	}
	rows, _ := r.dense.Dims()
	return rows
}

// Matrix returns the roll as a matrix, or nil if the roll is empty.
func (r *Roll) Matrix() *mat.Dense {
	return r.dense
}

// note is a sounding pitch from step start inclusive to step end exclusive.
type note struct {
	pitch int
	start int
	end   int
}

type noteKey struct {
	channel uint8
	key     uint8
}

// Load decodes the MIDI file at path.
func Load(path string, resolution int) (*Roll, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, dataerr.Wrap(dataerr.Decode, path, err)
	}
	defer f.Close()
	roll, err := Decode(f, resolution)
	if err != nil {
		return nil, dataerr.Wrap(dataerr.Decode, path, err)
	}
	return roll, nil
}

// Decode reads a Standard MIDI File and returns its tracks binarized and summed into one roll
// with resolution time steps per beat.
func Decode(r io.Reader, resolution int) (*Roll, error) {
	if resolution <= 0 {
		return nil, dataerr.New(dataerr.Configuration, "resolution", "must be positive, got %d", resolution)
	}
	file, err := smf.ReadFrom(r)
	if err != nil {
		return nil, dataerr.Wrap(dataerr.Decode, "", err)
	}
	ticks, ok := file.TimeFormat.(smf.MetricTicks)
	if !ok || ticks.Resolution() == 0 {
		return nil, dataerr.New(dataerr.Decode, "", "unsupported time format %v", file.TimeFormat)
	}
	ticksPerBeat := float64(ticks.Resolution())
	toStep := func(tick uint64) int {
		return int(math.Round(float64(tick) * float64(resolution) / ticksPerBeat))
	}

	tracks := [][]note{}
	steps := 0
	for _, track := range file.Tracks {
		notes := trackNotes(track, toStep)
		for _, n := range notes {
			if n.end > steps {
				steps = n.end
			}
		}
		if len(notes) > 0 {
			tracks = append(tracks, notes)
		}
	}
	roll := &Roll{Resolution: resolution}
	if steps == 0 {
		return roll, nil
	}
	roll.dense = mat.NewDense(steps, Pitches, nil)
	for _, notes := range tracks {
		roll.dense.Add(roll.dense, binarize(notes, steps))
	}
	return roll, nil
}

// trackNotes returns the notes of a track. Notes still sounding at the end of the track end there,
// and a note restarted before it ends is split in two.
func trackNotes(track smf.Track, toStep func(uint64) int) []note {
	result := []note{}
	sounding := map[noteKey]uint64{}
	closeNote := func(k noteKey, endTick uint64) {
		startTick, found := sounding[k]
		if !found {
			return
		}
		delete(sounding, k)
		if n := (note{pitch: int(k.key), start: toStep(startTick), end: toStep(endTick)}); n.end > n.start {
			result = append(result, n)
		}
	}
	var tick uint64
	for _, ev := range track {
		tick += uint64(ev.Delta)
		msg := midi.Message(ev.Message)
		var channel, key, velocity uint8
		switch {
		case msg.GetNoteStart(&channel, &key, &velocity):
			k := noteKey{channel: channel, key: key}
			closeNote(k, tick)
			sounding[k] = tick
		case msg.GetNoteEnd(&channel, &key):
			closeNote(noteKey{channel: channel, key: key}, tick)
		}
	}
	for k := range sounding {
		closeNote(k, tick)
	}
	return result
}

// binarize returns a steps x Pitches matrix with 1 wherever a note sounds.
func binarize(notes []note, steps int) *mat.Dense {
	m := mat.NewDense(steps, Pitches, nil)
	for _, n := range notes {
		for step := n.start; step < n.end; step++ {
			m.Set(step, n.pitch, 1)
		}
	}
	return m
}
