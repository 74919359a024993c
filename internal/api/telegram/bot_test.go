package telegram

import (
	"context"
	"fmt"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"

	app "humanseg/internal/application"
	"humanseg/internal/domain/entity"
	"humanseg/internal/infrastructure/imageio"
	"humanseg/internal/infrastructure/storage"
	"humanseg/internal/infrastructure/synthetic"
	"humanseg/internal/preprocess"
)

const poseDoc = `{"people": [{"pose_keypoints_2d": [
	10, 10, 0.9, 50, 90, 0.9, 10, 90, 0.8, 50, 10, 0.8, 30, 50, 0.7,
	30, 50, 0.7, 20, 30, 0.6, 40, 70, 0.6, 20, 70, 0.5, 40, 30, 0.5]}]}`

type recorder struct {
	texts  []string
	photos []tgbotapi.PhotoConfig
}

func (r *recorder) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	switch m := c.(type) {
	case tgbotapi.MessageConfig:
		r.texts = append(r.texts, m.Text)
	case tgbotapi.PhotoConfig:
		r.photos = append(r.photos, m)
	}
	return tgbotapi.Message{}, nil
}

func (r *recorder) last() string {
	if len(r.texts) == 0 {
		return ""
	}
	return r.texts[len(r.texts)-1]
}

func newTestBot(t *testing.T, files map[string][]byte) (*Bot, *recorder) {
	t.Helper()

	rec := &recorder{}
	seg := app.NewSegmentationService(preprocess.NewPreprocessor(16, nil), synthetic.NewPredictor(), nil)
	b := &Bot{
		out: rec,
		download: func(ctx context.Context, fileID string) ([]byte, error) {
			data, ok := files[fileID]
			if !ok {
				return nil, fmt.Errorf("file %s not found", fileID)
			}
			return data, nil
		},
		users:        app.NewUserService(storage.NewMemoryUserRepository()),
		segmentation: seg,
	}
	return b, rec
}

func message(text string) *tgbotapi.Message {
	msg := &tgbotapi.Message{
		From: &tgbotapi.User{ID: 1},
		Chat: &tgbotapi.Chat{ID: 10},
		Text: text,
	}
	if len(text) > 0 && text[0] == '/' {
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}}
	}
	return msg
}

func photoMessage(fileID string) *tgbotapi.Message {
	msg := message("")
	msg.Photo = []tgbotapi.PhotoSize{{FileID: "thumb"}, {FileID: fileID}}
	return msg
}

func pngPhoto(t *testing.T) []byte {
	t.Helper()
	data, err := imageio.EncodePNG(entity.NewImage(100, 100, 3))
	require.NoError(t, err)
	return data
}

func TestBot_Commands(t *testing.T) {
	b, rec := newTestBot(t, nil)
	ctx := context.Background()

	b.handleMessage(ctx, message("/start"))
	require.Equal(t, msgStart, rec.last())

	b.handleMessage(ctx, message("/help"))
	require.Equal(t, msgHelp, rec.last())

	b.handleMessage(ctx, message("/pose"))
	require.Equal(t, msgAwaitingPose, rec.last())
	user, err := b.users.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateAwaitingPose, user.State)

	b.handleMessage(ctx, message("/cancel"))
	require.Equal(t, msgCancelled, rec.last())
	require.Equal(t, entity.StateMainMenu, user.State)

	b.handleMessage(ctx, message("/unknown"))
	require.Equal(t, msgUnknownCommand, rec.last())

	b.handleMessage(ctx, message("hello"))
	require.Equal(t, msgSendPhoto, rec.last())
}

func TestBot_PhotoWithoutPose(t *testing.T) {
	b, rec := newTestBot(t, map[string][]byte{"photo": pngPhoto(t)})
	ctx := context.Background()

	b.handleMessage(ctx, photoMessage("photo"))
	require.Len(t, rec.photos, 1)
	require.Contains(t, rec.photos[0].Caption, "x=0 y=0 100x100")
	require.Contains(t, rec.photos[0].Caption, "нет")

	user, err := b.users.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, user.State)
}

func TestBot_PoseThenPhoto(t *testing.T) {
	b, rec := newTestBot(t, map[string][]byte{
		"pose":  []byte(poseDoc),
		"photo": pngPhoto(t),
	})
	ctx := context.Background()

	b.handleMessage(ctx, message("/pose"))
	doc := message("")
	doc.Document = &tgbotapi.Document{FileID: "pose", FileName: "pose.json"}
	b.handleMessage(ctx, doc)
	require.Equal(t, fmt.Sprintf(msgPoseAccepted, 10), rec.last())

	b.handleMessage(ctx, photoMessage("photo"))
	require.Len(t, rec.photos, 1)
	require.Contains(t, rec.photos[0].Caption, "x=-22 y=-2 104x104")
	require.Contains(t, rec.photos[0].Caption, "да")

	// поза используется только для одного фото
	b.handleMessage(ctx, photoMessage("photo"))
	require.Len(t, rec.photos, 2)
	require.Contains(t, rec.photos[1].Caption, "нет")
}

func TestBot_BadPose(t *testing.T) {
	b, rec := newTestBot(t, map[string][]byte{
		"broken": []byte("{"),
		"pose":   []byte(poseDoc),
	})
	ctx := context.Background()

	b.handleMessage(ctx, message("/pose"))
	doc := message("")
	doc.Document = &tgbotapi.Document{FileID: "broken"}
	b.handleMessage(ctx, doc)
	require.Equal(t, msgPoseError, rec.last())

	doc = message("")
	doc.Caption = "3"
	doc.Document = &tgbotapi.Document{FileID: "pose"}
	b.handleMessage(ctx, doc)
	require.Equal(t, fmt.Sprintf(msgPoseNoPerson, 3), rec.last())
}

func TestBot_PhotoDownloadFails(t *testing.T) {
	b, rec := newTestBot(t, nil)

	b.handleMessage(context.Background(), photoMessage("missing"))
	require.Equal(t, msgProcessingError, rec.last())
	require.Empty(t, rec.photos)
}
