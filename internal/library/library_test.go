package library

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func touch(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestParseName(t *testing.T) {
	tests := []struct {
		input string
		ok    bool
		want  Name
	}{
		{input: "0001_spotlight_LAKE_abc12345.jpg", ok: true, want: Name{1, "spotlight", "LAKE", "abc12345", "jpg"}},
		{input: "0042_unsplash_NATURE_LANDSCAPE_x-Y9.JPG", ok: true, want: Name{42, "unsplash", "NATURE_LANDSCAPE", "x-Y9", "JPG"}},
		{input: "12345_pexels_CITY_99.webp", ok: true, want: Name{12345, "pexels", "CITY", "99", "webp"}},
		{input: "001_short_prefix_id.jpg", ok: false},
		{input: "0003_wallhaven_THEME_id.txt", ok: false},
		{input: "holiday.jpg", ok: false},
		{input: "0004_missing-parts.png", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseName(tt.input)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				require.Equal(t, tt.want, got)
			}
		})
	}
}

func TestNewName_Sanitizes(t *testing.T) {
	n := NewName(7, "Wallhaven", "mountain scenery 4k", "ab_c/d", ".PNG")
	require.Equal(t, "0007_wallhaven_MOUNTAIN-SCENERY-4K_ab-c-d.png", n.String())

	parsed, ok := ParseName(n.String())
	require.True(t, ok)
	require.Equal(t, n, parsed)

	require.Equal(t, "RANDOM", ThemeTag("   "))
}

func TestList_SortsNumerically(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "0010_spotlight_A_id1.jpg", "a")
	touch(t, dir, "0002_unsplash_Z_id2.jpg", "b")
	touch(t, dir, "10000_pexels_M_id3.jpg", "c")
	touch(t, dir, "0999_wallhaven_B_id4.png", "d")
	touch(t, dir, "notes.txt", "not an image")
	touch(t, dir, "my-own-wallpaper.jpg", "user file")

	lib := New(zap.NewNop(), dir)
	images, err := lib.List()
	require.NoError(t, err)

	var seqs []int
	for _, img := range images {
		seqs = append(seqs, img.Sequence)
	}
	require.Equal(t, []int{2, 10, 999, 10000}, seqs)

	latest, ok := Latest(images)
	require.True(t, ok)
	require.Equal(t, 10000, latest.Sequence)
}

func TestList_MissingDirectoryIsEmpty(t *testing.T) {
	lib := New(zap.NewNop(), filepath.Join(t.TempDir(), "absent"))
	images, err := lib.List()
	require.NoError(t, err)
	require.Empty(t, images)
}

func TestNextSequence_SelfHealsStaleCounter(t *testing.T) {
	images := []Image{{Name: Name{Sequence: 3}}, {Name: Name{Sequence: 8}}}

	require.Equal(t, 9, NextSequence(4, images), "stale counter must advance past disk")
	require.Equal(t, 20, NextSequence(20, images), "counter ahead of disk is kept")
	require.Equal(t, 1, NextSequence(0, nil))
}

func TestWrite_NeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	lib := New(zap.NewNop(), dir)
	name := NewName(1, "spotlight", "sea", "id", "jpg")

	img, err := lib.Write(name, []byte("first"))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "0001_spotlight_SEA_id.jpg"), img.Path)

	_, err = lib.Write(name, []byte("second"))
	require.True(t, errors.Is(err, ErrSequenceTaken))

	data, err := os.ReadFile(img.Path)
	require.NoError(t, err)
	require.Equal(t, "first", string(data))
}

func TestRenumber(t *testing.T) {
	dir := t.TempDir()
	lib := New(zap.NewNop(), dir)
	touch(t, dir, "0005_spotlight_A_x.jpg", "a")
	touch(t, dir, "0001_spotlight_A_x.jpg", "b")

	images, err := lib.List()
	require.NoError(t, err)

	_, err = lib.Renumber(images[1], 1)
	require.ErrorIs(t, err, ErrSequenceTaken)

	moved, err := lib.Renumber(images[1], 2)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "0002_spotlight_A_x.jpg"), moved.Path)
	require.FileExists(t, moved.Path)
	require.NoFileExists(t, images[1].Path)
}

func TestHashes(t *testing.T) {
	dir := t.TempDir()
	lib := New(zap.NewNop(), dir)
	a := touch(t, dir, "0001_spotlight_A_x.jpg", "alpha")
	touch(t, dir, "0002_spotlight_B_y.jpg", "beta")

	images, err := lib.List()
	require.NoError(t, err)

	index, err := lib.Hashes(context.Background(), images)
	require.NoError(t, err)
	require.Len(t, index, 2)
	require.Equal(t, a, index[HashBytes([]byte("alpha"))])
}

func TestContainsAndIndexOf(t *testing.T) {
	dir := t.TempDir()
	lib := New(zap.NewNop(), dir)
	p := touch(t, dir, "0001_spotlight_A_x.jpg", "a")

	require.True(t, lib.Contains(p))
	require.True(t, lib.Contains(filepath.Join(dir, "deleted.jpg")))
	require.False(t, lib.Contains(filepath.Join(t.TempDir(), "0001_spotlight_A_x.jpg")))
	require.False(t, lib.Contains(""))

	images, err := lib.List()
	require.NoError(t, err)
	require.Equal(t, 0, IndexOf(images, p))
	require.Equal(t, -1, IndexOf(images, filepath.Join(dir, "other.jpg")))
}
