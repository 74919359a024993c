package entity

// Keypoint одна точка позы: координаты в пикселях и уверенность детектора
type Keypoint struct {
	X          float64
	Y          float64
	Confidence float64
}

// Pose упорядоченный набор суставов одного человека (например, 25 точек OpenPose)
type Pose []Keypoint

// PoseRecord содержит позы всех людей, найденных на изображении
type PoseRecord struct {
	People []Pose
}

// Valid возвращает суставы с уверенностью строго выше порога.
func (p Pose) Valid(threshold float64) []Keypoint {
	valid := make([]Keypoint, 0, len(p))
	for _, kp := range p {
		if kp.Confidence > threshold {
			valid = append(valid, kp)
		}
	}
	return valid
}
