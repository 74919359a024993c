package telegram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	app "humanseg/internal/application"
	"humanseg/internal/domain/entity"
	"humanseg/internal/infrastructure/imageio"
	"humanseg/internal/infrastructure/posefile"
	"humanseg/internal/preprocess"
)

const (
	msgStart = `👋 Привет! Я бот для сегментации людей на фотографиях.

📸 Отправьте мне фото человека, и я выделю силуэт маской.

📋 Команды:
/pose — загрузить позу OpenPose для следующего фото
/help — справка
/cancel — отменить текущую операцию`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ (необязательно) Отправьте /pose и JSON-файл OpenPose
2️⃣ Отправьте фото человека
3️⃣ Вы получите кадр с наложенной маской и параметры рамки

💡 Рекомендации:
• Человек должен быть виден целиком
• Без позы кадр берётся по центру изображения
• В подписи к JSON можно указать номер человека (с нуля)

📋 Команды:
/pose — загрузить позу
/cancel — отменить операцию`

	msgAwaitingPose    = "🦴 Отправьте JSON-файл OpenPose документом."
	msgPoseAccepted    = "✅ Поза принята (%d точек). Теперь отправьте фото."
	msgPoseError       = "⚠️ Не удалось прочитать позу. Нужен JSON OpenPose с pose_keypoints_2d."
	msgPoseNoPerson    = "⚠️ В файле нет человека с номером %d."
	msgCancelled       = "❌ Операция отменена. Отправьте фото или /pose."
	msgSendPhoto       = "📸 Пожалуйста, отправьте фото человека."
	msgUnknownCommand  = "❓ Неизвестная команда. Используйте /help для справки."
	msgProcessing      = "⏳ Обрабатываю изображение..."
	msgNoPerson        = "🤷 По позе не удалось построить рамку человека."
	msgProcessingError = "⚠️ Не удалось обработать изображение. Попробуйте другое фото."
	msgResult          = "🧍 Рамка: x=%d y=%d %dx%d\nКадр по позе: %s\nПокрытие маской: %.1f%%"
)

// sender часть tgbotapi.BotAPI, которой пользуется бот
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// downloader скачивает файл Telegram по идентификатору
type downloader func(ctx context.Context, fileID string) ([]byte, error)

// Bot представляет Telegram-бота
type Bot struct {
	api          *tgbotapi.BotAPI
	out          sender
	download     downloader
	users        *app.UserService
	segmentation *app.SegmentationService
}

// NewBot создаёт нового бота
func NewBot(token string, users *app.UserService, segmentation *app.SegmentationService) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.Printf("Authorized on account %s", api.Self.UserName)

	b := &Bot{
		api:          api,
		out:          api,
		users:        users,
		segmentation: segmentation,
	}
	b.download = b.downloadFile
	return b, nil
}

// Run запускает основной цикл обработки сообщений до отмены контекста
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	user, err := b.users.Get(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		log.Printf("Error getting user: %v", err)
		return
	}

	// Обработка команд
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	// Поза приходит документом
	if msg.Document != nil && user.State == entity.StateAwaitingPose {
		b.handlePose(ctx, msg)
		return
	}

	// Обработка фото
	if len(msg.Photo) > 0 {
		b.handlePhoto(ctx, msg)
		return
	}

	if user.State == entity.StateAwaitingPose {
		b.sendMessage(msg.Chat.ID, msgAwaitingPose)
		return
	}
	b.sendMessage(msg.Chat.ID, msgSendPhoto)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	userID, chatID := msg.From.ID, msg.Chat.ID

	switch msg.Command() {
	case "start":
		b.setState(ctx, userID, chatID, entity.StateMainMenu)
		b.sendMessage(chatID, msgStart)

	case "help":
		b.sendMessage(chatID, msgHelp)

	case "pose":
		if _, err := b.users.BeginPose(ctx, userID, chatID); err != nil {
			log.Printf("Error updating user: %v", err)
		}
		b.sendMessage(chatID, msgAwaitingPose)

	case "cancel":
		if _, err := b.users.Cancel(ctx, userID, chatID); err != nil {
			log.Printf("Error updating user: %v", err)
		}
		b.sendMessage(chatID, msgCancelled)

	default:
		b.sendMessage(chatID, msgUnknownCommand)
	}
}

// handlePose читает JSON OpenPose; номер человека можно указать в подписи
func (b *Bot) handlePose(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	data, err := b.download(ctx, msg.Document.FileID)
	if err != nil {
		log.Printf("Error downloading pose: %v", err)
		b.sendMessage(chatID, msgPoseError)
		return
	}

	record, err := posefile.Decode(bytes.NewReader(data))
	if err != nil {
		log.WithError(err).Warn("bad pose document")
		b.sendMessage(chatID, msgPoseError)
		return
	}

	person := 0
	if caption := strings.TrimSpace(msg.Caption); caption != "" {
		if n, err := strconv.Atoi(caption); err == nil {
			person = n
		}
	}

	pose, err := posefile.Person(record, person)
	if err != nil {
		b.sendMessage(chatID, fmt.Sprintf(msgPoseNoPerson, person))
		return
	}

	if _, err := b.users.AcceptPose(ctx, msg.From.ID, chatID, pose); err != nil {
		log.Printf("Error saving pose: %v", err)
		b.sendMessage(chatID, msgPoseError)
		return
	}
	b.sendMessage(chatID, fmt.Sprintf(msgPoseAccepted, len(pose)))
}

// handlePhoto сегментирует фото и отправляет кадр с наложенной маской
func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message) {
	userID, chatID := msg.From.ID, msg.Chat.ID

	// Устанавливаем состояние "обработка"
	b.setState(ctx, userID, chatID, entity.StateProcessing)
	// В любом случае возвращаем в главное меню
	defer b.setState(ctx, userID, chatID, entity.StateMainMenu)

	b.sendMessage(chatID, msgProcessing)

	pose, err := b.users.TakePose(ctx, userID, chatID)
	if err != nil {
		log.Printf("Error reading pose: %v", err)
	}

	// Получаем файл с максимальным разрешением
	photo := msg.Photo[len(msg.Photo)-1]

	imageData, err := b.download(ctx, photo.FileID)
	if err != nil {
		log.Printf("Error downloading photo: %v", err)
		b.sendMessage(chatID, msgProcessingError)
		return
	}

	img, err := imageio.DecodeRGB(bytes.NewReader(imageData))
	if err != nil {
		log.Printf("Error decoding photo: %v", err)
		b.sendMessage(chatID, msgProcessingError)
		return
	}

	res, err := b.segmentation.Segment(ctx, img, pose)
	if errors.Is(err, preprocess.ErrNoDetection) {
		b.sendMessage(chatID, msgNoPerson)
		return
	}
	if err != nil {
		log.Printf("Error segmenting photo: %v", err)
		b.sendMessage(chatID, msgProcessingError)
		return
	}

	overlay, err := res.Overlay()
	if err != nil {
		log.Printf("Error rendering overlay: %v", err)
		b.sendMessage(chatID, msgProcessingError)
		return
	}
	data, err := imageio.EncodePNG(overlay)
	if err != nil {
		log.Printf("Error encoding overlay: %v", err)
		b.sendMessage(chatID, msgProcessingError)
		return
	}

	fromPose := "нет"
	if res.FromPose {
		fromPose = "да"
	}
	out := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "overlay.png", Bytes: data})
	out.Caption = fmt.Sprintf(msgResult, res.BBox.X, res.BBox.Y, res.BBox.Width, res.BBox.Height, fromPose, res.Mask.Coverage(0.5)*100)
	if _, err := b.out.Send(out); err != nil {
		log.Printf("Error sending photo: %v", err)
	}
}

func (b *Bot) setState(ctx context.Context, userID, chatID int64, state entity.UserState) {
	if _, err := b.users.SetState(ctx, userID, chatID, state); err != nil {
		log.Printf("Error updating user: %v", err)
	}
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	fileURL := file.Link(b.api.Token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.out.Send(msg); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}
