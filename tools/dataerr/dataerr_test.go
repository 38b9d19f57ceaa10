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
package dataerr

import (
	"fmt"
	"os"
	"strings"
	"testing"
)

func TestIs(t *testing.T) {
	for _, tc := range []struct {
		desc string
		err  error
		kind Kind
		want bool
	}{
		{
			desc: "Direct error",
			err:  New(Configuration, "window_size", "must be positive, got %d", 0),
			kind: Configuration,
			want: true,
		},
		{
			desc: "Other kind",
			err:  New(Decode, "a.mid", "bad header"),
			kind: LabelLookup,
			want: false,
		},
		{
			desc: "Wrapped by fmt.Errorf",
			err:  fmt.Errorf("processing: %w", New(LabelLookup, "b.mid", "no row")),
			kind: LabelLookup,
			want: true,
		},
		{
			desc: "Plain error",
			err:  os.ErrNotExist,
			kind: Filesystem,
			want: false,
		},
	} {
		if got := Is(tc.err, tc.kind); got != tc.want {
			t.Errorf("%v: Is(%v, %v) is %v, wanted %v", tc.desc, tc.err, tc.kind, got, tc.want)
		}
	}
}

func TestWrap(t *testing.T) {
	if err := Wrap(Filesystem, "x", nil); err != nil {
		t.Errorf("Wrap of nil produced %v, wanted nil", err)
	}
	err := Wrap(Filesystem, "/tmp/out", os.ErrPermission)
	if !Is(err, Filesystem) {
		t.Errorf("%v is not a Filesystem error", err)
	}
	if !strings.Contains(err.Error(), "FilesystemError: /tmp/out") {
		t.Errorf("%q does not name the kind and subject", err.Error())
	}
}

func TestWrapKeepsClassification(t *testing.T) {
	for _, tc := range []struct {
		desc    string
		err     error
		kind    Kind
		wantMsg string
	}{
		{
			desc:    "Unnamed subject is filled in",
			err:     New(Configuration, "", "must be positive, got %d", 0),
			kind:    Configuration,
			wantMsg: "ConfigurationError: a.mid: must be positive, got 0",
		},
		{
			desc:    "Named subject is kept",
			err:     New(Decode, "resolution", "bad"),
			kind:    Decode,
			wantMsg: "DecodeError: resolution: bad",
		},
		{
			desc:    "Classified error wrapped by fmt.Errorf",
			err:     fmt.Errorf("reading: %w", New(LabelLookup, "b.mid", "no row")),
			kind:    LabelLookup,
			wantMsg: "reading: LabelLookupError: b.mid: no row",
		},
	} {
		err := Wrap(Decode, "a.mid", tc.err)
		if !Is(err, tc.kind) {
			t.Errorf("%v: %v is not of kind %v", tc.desc, err, tc.kind)
		}
		if err.Error() != tc.wantMsg {
			t.Errorf("%v: got %q, wanted %q", tc.desc, err.Error(), tc.wantMsg)
		}
	}
}
