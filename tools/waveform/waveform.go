/* Package waveform reads, slices and writes uncompressed WAV audio.
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
package waveform

import (
	"bytes"
	"io"
	"math"
	"math/cmplx"
	"os"
	"time"

	"github.com/mjibson/go-dsp/fft"
	"github.com/youpy/go-wav"

	"github.com/google-research/sentimentsets/tools/dataerr"
)

// Format describes the encoding of a buffer.
type Format struct {
	Channels      int
	SampleRate    int
	BitsPerSample int
}

// Buffer is a decoded waveform. Each frame holds one value per channel.
type Buffer struct {
	Format Format
	Frames []wav.Sample
}

// Source is what WAV decoding reads from, e.g. an *os.File or a *bytes.Reader.
type Source interface {
	io.Reader
	io.ReaderAt
}

// Load decodes the WAV file at path.
func Load(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, dataerr.Wrap(dataerr.Decode, path, err)
	}
	defer f.Close()
	buf, err := Decode(f)
	if err != nil {
		return nil, dataerr.Wrap(dataerr.Decode, path, err)
	}
	return buf, nil
}

// Decode reads an entire WAV stream into memory.
func Decode(r Source) (*Buffer, error) {
	reader := wav.NewReader(r)
	format, err := reader.Format()
	if err != nil {
		return nil, err
	}
	if format.NumChannels < 1 || format.NumChannels > 2 {
		return nil, dataerr.New(dataerr.Decode, "", "unsupported channel count %d", format.NumChannels)
	}
	if format.SampleRate == 0 {
		return nil, dataerr.New(dataerr.Decode, "", "zero sample rate")
	}
	buf := &Buffer{
		Format: Format{
			Channels:      int(format.NumChannels),
			SampleRate:    int(format.SampleRate),
			BitsPerSample: int(format.BitsPerSample),
		},
	}
	for {
		samples, err := reader.ReadSamples()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}
		buf.Frames = append(buf.Frames, samples...)
	}
	return buf, nil
}

// Len returns the number of frames in the buffer.
func (b *Buffer) Len() int {
	return len(b.Frames)
}

// FramesFor returns the number of frames in d.
func (b *Buffer) FramesFor(d time.Duration) int {
	return int(int64(d) * int64(b.Format.SampleRate) / int64(time.Second))
}

// Duration returns the playing time of the buffer.
func (b *Buffer) Duration() time.Duration {
	return time.Duration(int64(len(b.Frames)) * int64(time.Second) / int64(b.Format.SampleRate))
}

// Millis returns the playing time of the buffer in whole milliseconds.
func (b *Buffer) Millis() int64 {
	return int64(b.Duration() / time.Millisecond)
}

// Slice returns the frames from inclusive to to exclusive, sharing memory with b.
func (b *Buffer) Slice(from, to int) *Buffer {
	return &Buffer{
		Format: b.Format,
		Frames: b.Frames[from:to],
	}
}

// WriteWAV writes the buffer as a WAV file in its own format.
func (b *Buffer) WriteWAV(w io.Writer) error {
	out := &bytes.Buffer{}
	wavWriter := wav.NewWriter(out, uint32(len(b.Frames)), uint16(b.Format.Channels), uint32(b.Format.SampleRate), uint16(b.Format.BitsPerSample))
	if err := wavWriter.WriteSamples(b.Frames); err != nil {
		return err
	}
	_, err := io.Copy(w, out)
	return err
}

// Save writes the buffer as a WAV file at path.
func (b *Buffer) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return dataerr.Wrap(dataerr.Filesystem, path, err)
	}
	if err := b.WriteWAV(f); err != nil {
		f.Close()
		return dataerr.Wrap(dataerr.Filesystem, path, err)
	}
	return dataerr.Wrap(dataerr.Filesystem, path, f.Close())
}

// Mono returns the first channel of the buffer as floats between -1 and 1.
func (b *Buffer) Mono() []float64 {
	result := make([]float64, len(b.Frames))
	if b.Format.BitsPerSample == 8 {
		// 8 bit WAV is unsigned.
		for idx, frame := range b.Frames {
			result[idx] = float64(frame.Values[0]-128) / 128.0
		}
		return result
	}
	scale := math.Pow(2, float64(b.Format.BitsPerSample-1))
	for idx, frame := range b.Frames {
		result[idx] = float64(frame.Values[0]) / scale
	}
	return result
}

// SpectrumGains returns the gain (the complex absolute value) of the
// first half of the FFT of samples.
func SpectrumGains(samples []float64) []float64 {
	if len(samples) == 0 {
		return nil
	}
	coefficients := fft.FFTReal(samples)
	halfCoefficients := len(coefficients) / 2
	invBuffer := 1 / float64(len(samples))
	gains := make([]float64, halfCoefficients)
	for bin := range gains {
		gains[bin] = cmplx.Abs(coefficients[bin]) * invBuffer * 2
	}
	return gains
}
