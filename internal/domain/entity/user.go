package entity

// UserState состояние пользователя в диалоге
type UserState string

const (
	StateMainMenu      UserState = "main_menu"      // В главном меню
	StateAwaitingPose  UserState = "awaiting_pose"  // Ожидание JSON-файла OpenPose
	StateAwaitingPhoto UserState = "awaiting_photo" // Ожидание фото человека
	StateProcessing    UserState = "processing"     // Обработка изображения
)

// User представляет пользователя бота
type User struct {
	ID     int64     // Telegram User ID
	ChatID int64     // Telegram Chat ID
	State  UserState // Текущее состояние пользователя
	Pose   Pose      // Поза для следующего фото, nil если не загружена
}

// NewUser создаёт нового пользователя с начальным состоянием
func NewUser(userID, chatID int64) *User {
	return &User{
		ID:     userID,
		ChatID: chatID,
		State:  StateMainMenu,
	}
}

// SetState обновляет состояние пользователя
func (u *User) SetState(state UserState) {
	u.State = state
}

// AttachPose запоминает позу для следующего фото
func (u *User) AttachPose(pose Pose) {
	u.Pose = pose
}

// TakePose возвращает сохранённую позу и сбрасывает её
func (u *User) TakePose() Pose {
	pose := u.Pose
	u.Pose = nil
	return pose
}
