package app

import (
	"context"

	"humanseg/internal/domain/entity"
	"humanseg/internal/domain/port"
)

type UserService struct {
	repo port.UserRepository
}

func NewUserService(repo port.UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.repo.Get(ctx, userID, chatID)
}

func (s *UserService) SetState(ctx context.Context, userID, chatID int64, state entity.UserState) (*entity.User, error) {
	user, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	user.SetState(state)
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// BeginPose ждёт от пользователя JSON-файл OpenPose
func (s *UserService) BeginPose(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateAwaitingPose)
}

// AcceptPose запоминает позу и ждёт фото, к которому она относится
func (s *UserService) AcceptPose(ctx context.Context, userID, chatID int64, pose entity.Pose) (*entity.User, error) {
	if _, err := s.repo.Get(ctx, userID, chatID); err != nil {
		return nil, err
	}
	if err := s.repo.AttachPose(ctx, userID, pose); err != nil {
		return nil, err
	}
	return s.SetState(ctx, userID, chatID, entity.StateAwaitingPhoto)
}

// TakePose возвращает позу для текущего фото и сбрасывает её
func (s *UserService) TakePose(ctx context.Context, userID, chatID int64) (entity.Pose, error) {
	user, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	pose := user.TakePose()
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}
	return pose, nil
}

func (s *UserService) Cancel(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	user, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	user.TakePose()
	return s.SetState(ctx, userID, chatID, entity.StateMainMenu)
}
