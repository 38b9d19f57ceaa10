/* Package tfrecords stores dataset windows as tf.Examples in TFRecord files.
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
package tfrecords

import (
	"io"
	"os"

	"github.com/ryszard/tfutils/go/tfrecord"
	"google.golang.org/protobuf/proto"

	proto1 "github.com/golang/protobuf/proto"
	tf "github.com/ryszard/tfutils/proto/tensorflow/core/example"

	"github.com/google-research/sentimentsets/tools/dataerr"
	"github.com/google-research/sentimentsets/tools/window"
)

func bytesFeature(s string) *tf.Feature {
	return &tf.Feature{Kind: &tf.Feature_BytesList{BytesList: &tf.BytesList{Value: [][]byte{[]byte(s)}}}}
}

func int64Feature(values ...int64) *tf.Feature {
	return &tf.Feature{Kind: &tf.Feature_Int64List{Int64List: &tf.Int64List{Value: values}}}
}

func floatFeature(values []float32) *tf.Feature {
	return &tf.Feature{Kind: &tf.Feature_FloatList{FloatList: &tf.FloatList{Value: values}}}
}

func toFloat32(f []float64) []float32 {
	result := make([]float32, len(f))
	for idx := range f {
		result[idx] = float32(f[idx])
	}
	return result
}

// SnippetExample returns a piano roll window of medium id as a tf.Example.
func SnippetExample(id string, index int, classID int, w window.Window) *tf.Example {
	shape := make([]int64, len(w.Shape))
	for idx, dim := range w.Shape {
		shape[idx] = int64(dim)
	}
	return &tf.Example{
		Features: &tf.Features{
			Feature: map[string]*tf.Feature{
				"id":     bytesFeature(id),
				"index":  int64Feature(int64(index)),
				"label":  int64Feature(int64(classID)),
				"shape":  int64Feature(shape...),
				"values": floatFeature(w.Values),
			},
		},
	}
}

// ChunkExample returns an audio chunk, with its spectrum gains, as a tf.Example.
func ChunkExample(name string, index int, classID int, rate int, samples []float64, gains []float64) *tf.Example {
	return &tf.Example{
		Features: &tf.Features{
			Feature: map[string]*tf.Feature{
				"id":             bytesFeature(name),
				"index":          int64Feature(int64(index)),
				"label":          int64Feature(int64(classID)),
				"rate":           int64Feature(int64(rate)),
				"samples":        floatFeature(toFloat32(samples)),
				"spectrum_gains": floatFeature(toFloat32(gains)),
			},
		},
	}
}

// Writer appends tf.Examples to a TFRecord stream.
type Writer struct {
	w     io.Writer
	c     io.Closer
	count int
}

// NewWriter returns a writer appending to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Create returns a writer to a new file at path.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, dataerr.Wrap(dataerr.Filesystem, path, err)
	}
	return &Writer{w: f, c: f}, nil
}

// Write appends ex to the stream.
func (w *Writer) Write(ex *tf.Example) error {
	encoded, err := proto.Marshal(proto1.MessageV2(ex))
	if err != nil {
		return err
	}
	if err := tfrecord.Write(w.w, encoded); err != nil {
		return err
	}
	w.count++
	return nil
}

// Count returns the number of examples written.
func (w *Writer) Count() int {
	return w.count
}

// Close closes the underlying file, if the writer was created with Create.
func (w *Writer) Close() error {
	if w.c == nil {
		return nil
	}
	return w.c.Close()
}
