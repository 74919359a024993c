//go:build gocv
// +build gocv

package vision

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sort"

	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"humanseg/internal/domain/entity"
	"humanseg/internal/domain/port"
)

// Выходы сети Mask R-CNN в формате OpenCV DNN
const (
	boxesLayer = "detection_out_final"
	masksLayer = "detection_masks"
)

// MaskRCNNDetector детектор экземпляров на OpenCV DNN (Mask R-CNN, COCO).
type MaskRCNNDetector struct {
	net gocv.Net

	ScoreThreshold float32
	MaskThreshold  float32
}

// NewMaskRCNNDetector загружает сеть из файла модели и конфигурации
func NewMaskRCNNDetector(modelPath, configPath string) (*MaskRCNNDetector, error) {
	net := gocv.ReadNet(modelPath, configPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load detector model %s", modelPath)
	}
	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		log.WithError(err).Warn("detector: failed to set backend")
	}
	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		log.WithError(err).Warn("detector: failed to set target")
	}

	return &MaskRCNNDetector{
		net:            net,
		ScoreThreshold: 0.5,
		MaskThreshold:  0.5,
	}, nil
}

// DetectInstances возвращает маски экземпляров, отсортированные по убыванию уверенности
func (d *MaskRCNNDetector) DetectInstances(ctx context.Context, img *entity.Image, classFilter int) ([]entity.InstanceMask, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mat, err := matFromImage(img)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	if img.Channels == 1 {
		bgr := gocv.NewMat()
		gocv.CvtColor(mat, &bgr, gocv.ColorGrayToBGR)
		mat.Close()
		mat = bgr
	}

	blob := gocv.BlobFromImage(mat, 1.0, image.Pt(img.Width, img.Height), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	outs := d.net.ForwardLayers([]string{boxesLayer, masksLayer})
	for i := range outs {
		defer outs[i].Close()
	}
	if len(outs) != 2 {
		return nil, fmt.Errorf("detector returned %d outputs, want 2", len(outs))
	}

	boxes, err := outs[0].DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read detections: %w", err)
	}
	masks, err := outs[1].DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read masks: %w", err)
	}
	dims := outs[1].Size()
	if len(dims) != 4 {
		return nil, errors.New("unexpected mask output shape")
	}
	classes, mh, mw := dims[1], dims[2], dims[3]

	result := make([]entity.InstanceMask, 0)
	for i := 0; i+7 <= len(boxes); i += 7 {
		det := boxes[i : i+7]
		classID := int(det[1])
		score := det[2]
		if score < d.ScoreThreshold {
			continue
		}
		if classFilter >= 0 && classID != classFilter {
			continue
		}

		box := image.Rect(
			int(det[3]*float32(img.Width)), int(det[4]*float32(img.Height)),
			int(det[5]*float32(img.Width)), int(det[6]*float32(img.Height)),
		)
		if box.Intersect(image.Rect(0, 0, img.Width, img.Height)).Empty() {
			continue
		}

		n := i / 7
		offset := (n*classes + classID) * mh * mw
		if offset+mh*mw > len(masks) {
			return nil, fmt.Errorf("detection %d has no mask", n)
		}
		pix := PasteMask(masks[offset:offset+mh*mw], mw, mh, box, img.Width, img.Height, d.MaskThreshold)

		result = append(result, entity.InstanceMask{
			Width:   img.Width,
			Height:  img.Height,
			Pix:     pix,
			ClassID: classID,
			Score:   score,
		})
	}

	sort.SliceStable(result, func(i, j int) bool { return result[i].Score > result[j].Score })
	log.WithFields(log.Fields{"instances": len(result), "class": classFilter}).Debug("detector: inference done")
	return result, nil
}

// Close освобождает сеть
func (d *MaskRCNNDetector) Close() error {
	return d.net.Close()
}

var _ port.HumanDetector = (*MaskRCNNDetector)(nil)
