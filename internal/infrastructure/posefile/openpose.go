// Package posefile читает JSON-файлы ключевых точек в формате OpenPose.
package posefile

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"

	"humanseg/internal/domain/entity"
	"humanseg/internal/preprocess"
)

type document struct {
	People []struct {
		PoseKeypoints2D []float64 `json:"pose_keypoints_2d"`
	} `json:"people"`
}

// Load читает файл позы с диска
func Load(path string) (*entity.PoseRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pose file: %w", err)
	}
	defer f.Close()

	record, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(record.People) == 0 {
		log.WithField("file", path).Warn("pose file provides no detections")
	}
	return record, nil
}

// Decode разбирает документ OpenPose. Массив каждого человека содержит тройки (x, y, c).
func Decode(r io.Reader) (*entity.PoseRecord, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode pose json: %w", err)
	}

	record := &entity.PoseRecord{People: make([]entity.Pose, 0, len(doc.People))}
	for i, person := range doc.People {
		values := person.PoseKeypoints2D
		if len(values)%3 != 0 {
			return nil, fmt.Errorf("person %d: keypoint array length %d is not a multiple of 3", i, len(values))
		}

		pose := make(entity.Pose, len(values)/3)
		for j := range pose {
			pose[j] = entity.Keypoint{
				X:          values[3*j],
				Y:          values[3*j+1],
				Confidence: values[3*j+2],
			}
		}
		record.People = append(record.People, pose)
	}
	return record, nil
}

// Person возвращает позу человека с индексом index.
// Отсутствие человека — мягкая ошибка preprocess.ErrNoDetection.
func Person(record *entity.PoseRecord, index int) (entity.Pose, error) {
	if index < 0 || index >= len(record.People) {
		return nil, fmt.Errorf("person %d of %d: %w", index, len(record.People), preprocess.ErrNoDetection)
	}
	return record.People[index], nil
}

// LoadPerson читает файл и возвращает позу одного человека
func LoadPerson(path string, index int) (entity.Pose, error) {
	record, err := Load(path)
	if err != nil {
		return nil, err
	}
	return Person(record, index)
}
