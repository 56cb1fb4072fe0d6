package service

import (
	"alcyxob/therapy-app/internal/domain"
	"alcyxob/therapy-app/internal/repository"
	"alcyxob/therapy-app/internal/storage"
	"context"
	"errors"
	"fmt"
)

var (
	ErrPostureNotFound    = errors.New("posture not found")
	ErrUnknownTherapyType = errors.New("unknown therapy type")
)

type PostureService interface {
	ListPostures(ctx context.Context, therapyType domain.TherapyType) ([]domain.Posture, error)
	GetPosture(ctx context.Context, id string) (*domain.Posture, error)
}

type postureService struct {
	postureRepo repository.PostureRepository
	media       *storage.MediaResolver
}

func NewPostureService(postureRepo repository.PostureRepository, media *storage.MediaResolver) PostureService {
	return &postureService{postureRepo: postureRepo, media: media}
}

func (s *postureService) ListPostures(ctx context.Context, therapyType domain.TherapyType) ([]domain.Posture, error) {
	if therapyType != "" && !therapyType.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTherapyType, therapyType)
	}
	return s.postureRepo.List(ctx, therapyType)
}

// GetPosture returns the posture with media references resolved to fetchable URLs.
func (s *postureService) GetPosture(ctx context.Context, id string) (*domain.Posture, error) {
	posture, err := s.postureRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostureNotFound
		}
		return nil, err
	}
	if posture.PhotoURL, err = s.media.Resolve(ctx, posture.PhotoURL); err != nil {
		return nil, err
	}
	if posture.VideoURL, err = s.media.Resolve(ctx, posture.VideoURL); err != nil {
		return nil, err
	}
	return posture, nil
}
