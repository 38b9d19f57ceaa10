/* Package labels resolves the class of a medium from an annotation CSV or a constant.
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
package labels

import (
	"encoding/csv"
	"io"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/google-research/sentimentsets/tools/dataerr"
)

const (
	// Happy is the partition of media with positive valence.
	Happy = "happy"
	// Sad is the partition of every other medium.
	Sad = "sad"
)

// Columns are the columns a label table must have.
var Columns = []string{"id", "series", "console", "game", "piece", "midi", "valence", "arousal"}

// Label is the class resolved for a medium.
type Label struct {
	ClassID   int
	Partition string
}

// Constant returns the label used for every window of a run with a fixed class.
func Constant(classID int) Label {
	return Label{ClassID: classID}
}

// Row is an annotated piece.
type Row struct {
	ID      string
	Series  string
	Console string
	Game    string
	Piece   string
	MIDI    string
	Valence string
	Arousal string
}

// Positive returns whether the valence flag is 1.
func (r Row) Positive() bool {
	valence, err := strconv.ParseFloat(strings.TrimSpace(r.Valence), 64)
	return err == nil && valence == 1
}

// Label returns the label of the row.
func (r Row) Label() Label {
	if r.Positive() {
		return Label{ClassID: 1, Partition: Happy}
	}
	return Label{ClassID: 0, Partition: Sad}
}

// Table is a label table keyed by MIDI file basename.
type Table struct {
	Rows  []Row
	index map[string]int
}

// basename strips everything up to the last slash. The annotation files always use forward slashes.
func basename(p string) string {
	return path.Base(strings.ReplaceAll(p, "\\", "/"))
}

// LoadTable reads the label table at path.
func LoadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, dataerr.Wrap(dataerr.Filesystem, path, err)
	}
	defer f.Close()
	return ReadTable(f)
}

// ReadTable reads a label table with a header row containing at least Columns.
func ReadTable(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err == io.EOF {
		return nil, dataerr.New(dataerr.Configuration, "label csv", "empty file")
	} else if err != nil {
		return nil, dataerr.Wrap(dataerr.Configuration, "label csv", err)
	}
	columnIdx := map[string]int{}
	for idx, name := range header {
		columnIdx[strings.TrimSpace(name)] = idx
	}
	for _, name := range Columns {
		if _, found := columnIdx[name]; !found {
			return nil, dataerr.New(dataerr.Configuration, "label csv", "missing column %q", name)
		}
	}
	t := &Table{index: map[string]int{}}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, dataerr.Wrap(dataerr.Configuration, "label csv", err)
		}
		field := func(name string) string {
			idx := columnIdx[name]
			if idx >= len(record) {
				return ""
			}
			return record[idx]
		}
		if idx := columnIdx["midi"]; idx >= len(record) {
			return nil, dataerr.New(dataerr.Configuration, "label csv", "line %d has no midi column", line)
		}
		row := Row{
			ID:      field("id"),
			Series:  field("series"),
			Console: field("console"),
			Game:    field("game"),
			Piece:   field("piece"),
			MIDI:    field("midi"),
			Valence: field("valence"),
			Arousal: field("arousal"),
		}
		key := basename(row.MIDI)
		if _, found := t.index[key]; !found {
			t.index[key] = len(t.Rows)
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// Lookup returns the first row whose MIDI column has the same basename as mediumPath.
func (t *Table) Lookup(mediumPath string) (Row, error) {
	name := basename(mediumPath)
	idx, found := t.index[name]
	if !found {
		return Row{}, dataerr.New(dataerr.LabelLookup, name, "no label row for %q", name)
	}
	return t.Rows[idx], nil
}
