/* Package window cuts a continuous medium into fixed-size, non-overlapping windows.
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
package window

import (
	"gonum.org/v1/gonum/mat"

	"github.com/google-research/sentimentsets/tools/dataerr"
)

// Span is a stretch of a medium, from From inclusive to To exclusive.
type Span struct {
	From int
	To   int
}

// Len returns the length of the span.
func (s Span) Len() int {
	return s.To - s.From
}

// Options controls which windows Spans produces.
type Options struct {
	// TailGuard drops the last of the full windows, the way the audio splitter always did.
	TailGuard bool
	// Max caps the number of produced spans if positive.
	Max int
}

// Count returns the number of full windows of size in a medium of length.
func Count(length, size int) int {
	if size <= 0 || length <= 0 {
		return 0
	}
	return length / size
}

// CheckSize returns a configuration error unless size is positive.
func CheckSize(size int) error {
	if size <= 0 {
		return dataerr.New(dataerr.Configuration, "window_size", "must be positive, got %d", size)
	}
	return nil
}

// Spans returns the non-overlapping windows of size in a medium of length.
// Windows shorter than size are never returned.
func Spans(length, size int, opts Options) ([]Span, error) {
	if err := CheckSize(size); err != nil {
		return nil, err
	}
	n := Count(length, size)
	if opts.TailGuard {
		n--
	}
	result := []Span{}
	for i := 0; i < n; i++ {
		if opts.Max > 0 && len(result) == opts.Max {
			break
		}
		span := Span{From: i * size, To: (i + 1) * size}
		if span.To > length {
			span.To = length
		}
		if span.Len() != size {
			continue
		}
		result = append(result, span)
	}
	return result, nil
}

// Band is a contiguous range of feature columns, from Low inclusive to High exclusive.
type Band struct {
	Low  int
	High int
}

// DefaultBand is the piano range used for the snippets, MIDI notes C1 to C8.
var DefaultBand = Band{Low: 24, High: 108}

// Width returns the number of columns in the band.
func (b Band) Width() int {
	return b.High - b.Low
}

// Check returns a configuration error unless the band fits inside width columns.
func (b Band) Check(width int) error {
	if b.Low < 0 || b.High <= b.Low || b.High > width {
		return dataerr.New(dataerr.Configuration, "feature_band", "[%d, %d) does not fit in %d columns", b.Low, b.High, width)
	}
	return nil
}

// Window is a fixed shape slice of a medium. Values are stored row-major.
type Window struct {
	Shape  []int
	Values []float32
}

// Matrix returns the size x band.Width() x 1 windows of the rows of m.
// A nil matrix, or one with fewer than size rows, produces no windows.
func Matrix(m *mat.Dense, size int, band Band, opts Options) ([]Window, error) {
	if err := CheckSize(size); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, nil
	}
	rows, cols := m.Dims()
	if err := band.Check(cols); err != nil {
		return nil, err
	}
	spans, err := Spans(rows, size, opts)
	if err != nil {
		return nil, err
	}
	result := make([]Window, 0, len(spans))
	for _, span := range spans {
		section := m.Slice(span.From, span.To, band.Low, band.High)
		w := Window{
			Shape:  []int{size, band.Width(), 1},
			Values: make([]float32, 0, size*band.Width()),
		}
		for row := 0; row < size; row++ {
			for col := 0; col < band.Width(); col++ {
				w.Values = append(w.Values, float32(section.At(row, col)))
			}
		}
		result = append(result, w)
	}
	return result, nil
}
