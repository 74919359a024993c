// Package imageio читает и пишет изображения и маски на диск.
package imageio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"humanseg/internal/domain/entity"
)

// ManifestName имя файла со списком масок
const ManifestName = "out.json"

// LoadRGB читает изображение с диска как RGB с учётом EXIF-ориентации
func LoadRGB(path string) (*entity.Image, error) {
	src, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	return entity.ImageFromStd(src, 3), nil
}

// LoadGray читает изображение с диска как одноканальное
func LoadGray(path string) (*entity.Image, error) {
	src, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	return entity.ImageFromStd(src, 1), nil
}

// LoadMask читает маску. Цветная маска сводится к красному каналу,
// оттенки серого читаются как есть.
func LoadMask(path string) (*entity.Image, error) {
	src, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mask: %w", err)
	}
	if gray, ok := src.(*image.Gray); ok {
		return entity.ImageFromStd(gray, 1), nil
	}

	rgb := entity.ImageFromStd(src, 3)
	mask := entity.NewImage(rgb.Width, rgb.Height, 1)
	for i := range mask.Pix {
		mask.Pix[i] = rgb.Pix[i*3]
	}
	return mask, nil
}

// DecodeRGB декодирует изображение из потока (фото из Telegram, тело HTTP-запроса)
func DecodeRGB(r io.Reader) (*entity.Image, error) {
	src, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return entity.ImageFromStd(src, 3), nil
}

// Save пишет изображение, формат определяется по расширению
func Save(img *entity.Image, path string) error {
	if err := img.Validate(); err != nil {
		return err
	}
	if err := imaging.Save(img.Std(), path); err != nil {
		return fmt.Errorf("save image: %w", err)
	}
	return nil
}

// EncodePNG кодирует изображение в PNG
func EncodePNG(img *entity.Image) ([]byte, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img.Std(), imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// MaskPath возвращает путь маски для изображения: photo.jpg -> photo_mask.png
func MaskPath(imagePath string) string {
	return strings.TrimSuffix(imagePath, filepath.Ext(imagePath)) + "_mask.png"
}

// BackupPath возвращает путь резервной копии исходной маски
func BackupPath(imagePath string) string {
	return strings.TrimSuffix(imagePath, filepath.Ext(imagePath)) + "_mask_orig.png"
}

// IsMaskFile сообщает, является ли файл маской или её резервной копией
func IsMaskFile(path string) bool {
	return strings.HasSuffix(path, "_mask.png") || strings.HasSuffix(path, "_mask_orig.png")
}

// MaskSetName возвращает имя i-й маски набора: out.png, out_1.png, ...
func MaskSetName(i int) string {
	if i == 0 {
		return "out.png"
	}
	return fmt.Sprintf("out_%d.png", i)
}

// WriteManifest сохраняет список масок в dir/out.json
func WriteManifest(dir string, manifest entity.MaskManifest) error {
	if manifest.Files == nil {
		manifest.Files = []string{}
	}
	data, err := json.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestName), data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// ReadManifest читает dir/out.json
func ReadManifest(dir string) (entity.MaskManifest, error) {
	var manifest entity.MaskManifest
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return manifest, fmt.Errorf("read manifest: %w", err)
	}
	if err := json.Unmarshal(data, &manifest); err != nil {
		return manifest, fmt.Errorf("decode manifest: %w", err)
	}
	return manifest, nil
}
