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
package partition

import (
	"fmt"
	"io/ioutil"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google-research/sentimentsets/tools/dataerr"
)

func makeFiles(t *testing.T, dir, prefix string, n int) {
	require.NoError(t, EnsureDir(dir))
	for i := 0; i < n; i++ {
		path := filepath.Join(dir, fmt.Sprintf("%s_%d.npy", prefix, i))
		require.NoError(t, ioutil.WriteFile(path, []byte(path), 0644))
	}
}

func TestEnsureDirIsIdempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, EnsureDir(dir))
	require.NoError(t, EnsureDir(dir))
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestFilesSkipsDirectoriesAndDotlessNames(t *testing.T) {
	dir := t.TempDir()
	makeFiles(t, dir, "x", 3)
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "README"), nil, 0644))
	require.NoError(t, EnsureDir(filepath.Join(dir, "sub.dir")))
	files, err := Files(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "x_0.npy"),
		filepath.Join(dir, "x_1.npy"),
		filepath.Join(dir, "x_2.npy"),
	}, files)
}

func TestDownSample(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "happy")
	dst := filepath.Join(root, "reduced")
	makeFiles(t, src, "song.mid", 20)

	copied, err := DownSample(src, dst, 7, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Len(t, copied, 7)

	files, err := Files(dst)
	require.NoError(t, err)
	assert.Equal(t, copied, files)
	seen := map[string]bool{}
	for _, file := range files {
		name := filepath.Base(file)
		assert.False(t, seen[name], "%v copied twice", name)
		seen[name] = true
		original, err := ioutil.ReadFile(filepath.Join(src, name))
		require.NoError(t, err, "%v is not in the source partition", name)
		content, err := ioutil.ReadFile(file)
		require.NoError(t, err)
		assert.Equal(t, original, content)
	}
}

func TestHiddenFilesAreSkipped(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "happy")
	other := filepath.Join(root, "sad")
	makeFiles(t, src, "a.mid", 2)
	makeFiles(t, other, "b.mid", 2)
	require.NoError(t, ioutil.WriteFile(filepath.Join(src, ".DS_Store"), []byte("finder"), 0644))

	files, err := Files(src)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(src, "a.mid_0.npy"),
		filepath.Join(src, "a.mid_1.npy"),
	}, files)

	_, err = DownSample(src, filepath.Join(root, "too_many"), 3, rand.New(rand.NewSource(1)))
	assert.True(t, dataerr.Is(err, dataerr.Configuration), "got %v", err)

	copied, err := DownSample(src, filepath.Join(root, "reduced"), 2, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "reduced", "a.mid_0.npy"),
		filepath.Join(root, "reduced", "a.mid_1.npy"),
	}, copied)

	count, err := Join(src, other, filepath.Join(root, "combined"))
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	_, err = os.Stat(filepath.Join(root, "combined", ".DS_Store"))
	assert.True(t, os.IsNotExist(err), "join copied a hidden file")
}

func TestDownSampleTooMany(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "sad")
	dst := filepath.Join(root, "reduced")
	makeFiles(t, src, "song.mid", 3)

	_, err := DownSample(src, dst, 4, rand.New(rand.NewSource(1)))
	assert.True(t, dataerr.Is(err, dataerr.Configuration), "got %v", err)
	_, err = os.Stat(dst)
	assert.True(t, os.IsNotExist(err), "down sampling failed but created %v", dst)
}

func TestJoin(t *testing.T) {
	root := t.TempDir()
	first := filepath.Join(root, "happy")
	second := filepath.Join(root, "sad")
	dst := filepath.Join(root, "combined")
	makeFiles(t, first, "a.mid", 5)
	makeFiles(t, second, "b.mid", 5)

	count, err := Join(first, second, dst)
	require.NoError(t, err)
	assert.Equal(t, 10, count)
	files, err := Files(dst)
	require.NoError(t, err)
	assert.Len(t, files, 10)
}

func TestJoinUnequal(t *testing.T) {
	root := t.TempDir()
	first := filepath.Join(root, "happy")
	second := filepath.Join(root, "sad")
	dst := filepath.Join(root, "combined")
	makeFiles(t, first, "a.mid", 5)
	makeFiles(t, second, "b.mid", 4)

	_, err := Join(first, second, dst)
	assert.True(t, dataerr.Is(err, dataerr.Configuration), "got %v", err)
	_, err = os.Stat(dst)
	assert.True(t, os.IsNotExist(err), "join failed but created %v", dst)
}

func TestJoinCollision(t *testing.T) {
	root := t.TempDir()
	first := filepath.Join(root, "happy")
	second := filepath.Join(root, "sad")
	makeFiles(t, first, "same.mid", 2)
	makeFiles(t, second, "same.mid", 2)

	_, err := Join(first, second, filepath.Join(root, "combined"))
	assert.True(t, dataerr.Is(err, dataerr.Configuration), "got %v", err)
}
