package imageio

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"humanseg/internal/domain/entity"
)

func testImage() *entity.Image {
	img := entity.NewImage(5, 4, 3)
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 3)
	}
	return img
}

func TestSaveLoadRGB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photo.png")
	img := testImage()

	require.NoError(t, Save(img, path))

	loaded, err := LoadRGB(path)
	require.NoError(t, err)
	require.Equal(t, img, loaded)
}

func TestSaveLoadGray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mask.png")
	mask := entity.NewImage(3, 2, 1)
	mask.Pix = []uint8{0, 255, 0, 255, 255, 0}

	require.NoError(t, Save(mask, path))

	loaded, err := LoadGray(path)
	require.NoError(t, err)
	require.Equal(t, mask.Pix, loaded.Pix)
}

func TestLoadMask(t *testing.T) {
	dir := t.TempDir()

	gray := entity.NewImage(2, 1, 1)
	gray.Pix = []uint8{0, 255}
	require.NoError(t, Save(gray, filepath.Join(dir, "gray.png")))

	mask, err := LoadMask(filepath.Join(dir, "gray.png"))
	require.NoError(t, err)
	require.Equal(t, []uint8{0, 255}, mask.Pix)

	rgb := entity.NewImage(2, 1, 3)
	rgb.Pix = []uint8{255, 0, 0, 0, 0, 255}
	require.NoError(t, Save(rgb, filepath.Join(dir, "rgb.png")))

	mask, err = LoadMask(filepath.Join(dir, "rgb.png"))
	require.NoError(t, err)
	require.Equal(t, 1, mask.Channels)
	require.Equal(t, []uint8{255, 0}, mask.Pix)
}

func TestEncodeDecode(t *testing.T) {
	data, err := EncodePNG(testImage())
	require.NoError(t, err)

	decoded, err := DecodeRGB(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, testImage().Pix, decoded.Pix)

	_, err = DecodeRGB(bytes.NewReader([]byte("not an image")))
	require.Error(t, err)
}

func TestSave_Invalid(t *testing.T) {
	err := Save(&entity.Image{Width: 2, Height: 2, Channels: 3}, filepath.Join(t.TempDir(), "x.png"))
	require.Error(t, err)
}

func TestPaths(t *testing.T) {
	require.Equal(t, "dir/photo_mask.png", MaskPath("dir/photo.jpg"))
	require.Equal(t, "dir/photo_mask_orig.png", BackupPath("dir/photo.jpg"))

	require.True(t, IsMaskFile("dir/photo_mask.png"))
	require.True(t, IsMaskFile("photo_mask_orig.png"))
	require.False(t, IsMaskFile("dir/photo.jpg"))
	require.False(t, IsMaskFile("masked.png"))
	require.False(t, IsMaskFile("dir/photo_mask.jpg"))
	require.False(t, IsMaskFile("x_mask_orig.tif"))

	require.Equal(t, "out.png", MaskSetName(0))
	require.Equal(t, "out_2.png", MaskSetName(2))
}

func TestManifest(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteManifest(dir, entity.MaskManifest{}))

	got, err := ReadManifest(dir)
	require.NoError(t, err)
	require.Empty(t, got.Files)

	want := entity.MaskManifest{Files: []string{"out.png", "out_1.png"}}
	require.NoError(t, WriteManifest(dir, want))
	got, err = ReadManifest(dir)
	require.NoError(t, err)
	require.Equal(t, want, got)
}
