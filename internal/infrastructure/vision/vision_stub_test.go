//go:build !gocv
// +build !gocv

package vision

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStubsReportMissingTag(t *testing.T) {
	_, err := NewGoCVResizer()
	require.ErrorContains(t, err, "gocv build tag")

	_, err = NewMaskRCNNDetector("model.pb", "model.pbtxt")
	require.ErrorContains(t, err, "gocv build tag")

	_, err = NewGrabCutRefiner()
	require.ErrorContains(t, err, "gocv build tag")

	_, err = (&GrabCutRefiner{}).Refine(context.Background(), nil, nil, 1)
	require.Error(t, err)
}
