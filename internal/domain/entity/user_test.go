package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewUser_DefaultState(t *testing.T) {
	u := NewUser(1, 10)
	require.Equal(t, StateMainMenu, u.State)
	require.Equal(t, int64(1), u.ID)
	require.Equal(t, int64(10), u.ChatID)
	require.Nil(t, u.Pose)
}

func TestUser_TakePoseResets(t *testing.T) {
	u := NewUser(1, 10)
	u.AttachPose(Pose{{X: 1, Y: 2, Confidence: 0.9}})

	pose := u.TakePose()
	require.Len(t, pose, 1)
	require.Nil(t, u.Pose)
	require.Nil(t, u.TakePose())
}
