/* Package partition manages the class directories of a dataset.
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
package partition

import (
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google-research/sentimentsets/tools/dataerr"
)

// EnsureDir creates path and its parents unless it already exists.
// It is not safe against another process creating or removing the same directory.
func EnsureDir(path string) error {
	return dataerr.Wrap(dataerr.Filesystem, path, os.MkdirAll(path, 0755))
}

// Files returns the sorted paths of the files in dir whose name contains a dot.
// Hidden files, whose name starts with a dot, are skipped.
func Files(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.*"))
	if err != nil {
		return nil, dataerr.Wrap(dataerr.Filesystem, dir, err)
	}
	result := []string{}
	for _, match := range matches {
		if strings.HasPrefix(filepath.Base(match), ".") {
			continue
		}
		info, err := os.Stat(match)
		if err != nil {
			return nil, dataerr.Wrap(dataerr.Filesystem, match, err)
		}
		if info.Mode().IsRegular() {
			result = append(result, match)
		}
	}
	sort.Strings(result)
	return result, nil
}

// CopyFile copies the file at src to dst, replacing dst if it exists.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return dataerr.Wrap(dataerr.Filesystem, src, err)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return dataerr.Wrap(dataerr.Filesystem, dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return dataerr.Wrap(dataerr.Filesystem, dst, err)
	}
	return dataerr.Wrap(dataerr.Filesystem, dst, out.Close())
}

// DownSample copies count files, chosen uniformly without replacement from src, into dst.
// It returns the paths of the copies.
func DownSample(src, dst string, count int, rng *rand.Rand) ([]string, error) {
	files, err := Files(src)
	if err != nil {
		return nil, err
	}
	if count < 0 || count > len(files) {
		return nil, dataerr.New(dataerr.Configuration, src, "cannot down sample %d files to %d", len(files), count)
	}
	if err := EnsureDir(dst); err != nil {
		return nil, err
	}
	result := []string{}
	for _, idx := range rng.Perm(len(files))[:count] {
		copied := filepath.Join(dst, filepath.Base(files[idx]))
		if err := CopyFile(files[idx], copied); err != nil {
			return nil, err
		}
		result = append(result, copied)
	}
	sort.Strings(result)
	return result, nil
}

// Join copies the files of first and second into dst, pairing them by sorted file name.
// Both directories must hold the same number of files, and no file name may appear in both.
// It returns the number of files copied.
func Join(first, second, dst string) (int, error) {
	firstFiles, err := Files(first)
	if err != nil {
		return 0, err
	}
	secondFiles, err := Files(second)
	if err != nil {
		return 0, err
	}
	if len(firstFiles) != len(secondFiles) {
		return 0, dataerr.New(dataerr.Configuration, dst, "%s has %d files but %s has %d", first, len(firstFiles), second, len(secondFiles))
	}
	names := map[string]bool{}
	for _, file := range firstFiles {
		names[filepath.Base(file)] = true
	}
	for _, file := range secondFiles {
		if names[filepath.Base(file)] {
			return 0, dataerr.New(dataerr.Configuration, dst, "%s exists in both %s and %s", filepath.Base(file), first, second)
		}
	}
	if err := EnsureDir(dst); err != nil {
		return 0, err
	}
	count := 0
	for idx := range firstFiles {
		for _, file := range []string{firstFiles[idx], secondFiles[idx]} {
			if err := CopyFile(file, filepath.Join(dst, filepath.Base(file))); err != nil {
				return count, err
			}
			count++
		}
	}
	return count, nil
}
