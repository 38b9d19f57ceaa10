/* Package npy reads and writes float32 arrays in the NumPy .npy format (version 1.0).
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
package npy

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	// Extension is appended to saved file names, like numpy.save does.
	Extension = ".npy"
	magic     = "\x93NUMPY"
	alignment = 64
)

var shapeRE = regexp.MustCompile(`'shape':\s*\(([^)]*)\)`)

func header(shape []int) []byte {
	dims := make([]string, len(shape))
	for idx, dim := range shape {
		dims[idx] = strconv.Itoa(dim)
	}
	shapeStr := strings.Join(dims, ", ")
	if len(shape) == 1 {
		shapeStr += ","
	}
	dict := fmt.Sprintf("{'descr': '<f4', 'fortran_order': False, 'shape': (%s), }", shapeStr)
	// magic, version and header length take 10 bytes, and the header ends with a newline.
	total := 10 + len(dict) + 1
	padding := (alignment - total%alignment) % alignment
	return []byte(dict + strings.Repeat(" ", padding) + "\n")
}

// Write writes values as a little endian float32 array of the given shape.
func Write(w io.Writer, shape []int, values []float32) error {
	size := 1
	for _, dim := range shape {
		size *= dim
	}
	if size != len(values) {
		return errors.Errorf("shape %v holds %d values, got %d", shape, size, len(values))
	}
	h := header(shape)
	buf := &bytes.Buffer{}
	buf.WriteString(magic)
	buf.Write([]byte{1, 0})
	if err := binary.Write(buf, binary.LittleEndian, uint16(len(h))); err != nil {
		return err
	}
	buf.Write(h)
	if err := binary.Write(buf, binary.LittleEndian, values); err != nil {
		return err
	}
	_, err := io.Copy(w, buf)
	return err
}

// Save writes values to path, appending Extension.
func Save(path string, shape []int, values []float32) error {
	f, err := os.Create(path + Extension)
	if err != nil {
		return err
	}
	if err := Write(f, shape, values); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Read reads a little endian float32 array written by Write.
func Read(r io.Reader) ([]int, []float32, error) {
	br := bufio.NewReader(r)
	prefix := make([]byte, len(magic)+2)
	if _, err := io.ReadFull(br, prefix); err != nil {
		return nil, nil, err
	}
	if string(prefix[:len(magic)]) != magic {
		return nil, nil, errors.New("not a .npy file")
	}
	if prefix[len(magic)] != 1 {
		return nil, nil, errors.Errorf("unsupported .npy version %d", prefix[len(magic)])
	}
	var headerLen uint16
	if err := binary.Read(br, binary.LittleEndian, &headerLen); err != nil {
		return nil, nil, err
	}
	h := make([]byte, headerLen)
	if _, err := io.ReadFull(br, h); err != nil {
		return nil, nil, err
	}
	if !strings.Contains(string(h), "'descr': '<f4'") || !strings.Contains(string(h), "'fortran_order': False") {
		return nil, nil, errors.Errorf("unsupported .npy header %q", h)
	}
	match := shapeRE.FindStringSubmatch(string(h))
	if match == nil {
		return nil, nil, errors.Errorf("no shape in .npy header %q", h)
	}
	shape := []int{}
	size := 1
	for _, dimStr := range strings.Split(match[1], ",") {
		dimStr = strings.TrimSpace(dimStr)
		if dimStr == "" {
			continue
		}
		dim, err := strconv.Atoi(dimStr)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "parsing shape %q", match[1])
		}
		shape = append(shape, dim)
		size *= dim
	}
	values := make([]float32, size)
	if err := binary.Read(br, binary.LittleEndian, values); err != nil {
		return nil, nil, err
	}
	return shape, values, nil
}
