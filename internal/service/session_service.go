package service

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"doc-chat-be/internal/apperror"
	"doc-chat-be/internal/dto"
	"doc-chat-be/internal/pkg/logger"
	"doc-chat-be/pkg/session"
)

type ISessionService interface {
	GetInfo(ctx context.Context, sessionID string) (*dto.SessionInfoResponse, error)
	Delete(ctx context.Context, sessionID string) (*dto.DeleteSessionResponse, error)
	ResetQuota(ctx context.Context, sessionID string) (*dto.ResetQuotaResponse, error)
}

type sessionService struct {
	sessions   session.Store
	publisher  message.Publisher
	purgeTopic string
	logger     logger.ILogger
}

func NewSessionService(
	sessions session.Store,
	publisher message.Publisher,
	purgeTopic string,
	log logger.ILogger,
) ISessionService {
	return &sessionService{
		sessions:   sessions,
		publisher:  publisher,
		purgeTopic: purgeTopic,
		logger:     log,
	}
}

func (s *sessionService) GetInfo(ctx context.Context, sessionID string) (*dto.SessionInfoResponse, error) {
	tokens, err := s.sessions.GetQuota(ctx, sessionID)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindGenerationFailed, "failed to read quota", err)
	}

	sources, err := s.sessions.ListSources(ctx, sessionID)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindGenerationFailed, "failed to list sources", err)
	}

	files := make([]dto.SessionFile, len(sources))
	for i, src := range sources {
		files[i] = dto.SessionFile{
			Id:          src.ID,
			Name:        src.Name,
			Kind:        src.Kind,
			ContentType: src.ContentType,
			Size:        src.Size,
			UploadedAt:  src.UploadedAt,
		}
	}

	return &dto.SessionInfoResponse{Tokens: tokens, Files: files}, nil
}

// Delete clears the session's bookkeeping and hands index cleanup to the
// background consumer. The index half is best-effort: a publish failure is
// logged, not surfaced, so the session clear itself never fails on it.
func (s *sessionService) Delete(ctx context.Context, sessionID string) (*dto.DeleteSessionResponse, error) {
	if err := s.sessions.Clear(ctx, sessionID); err != nil {
		return nil, apperror.Wrap(apperror.KindGenerationFailed, "failed to clear session", err)
	}

	payload, err := json.Marshal(dto.PurgeTenantMessage{TenantID: sessionID})
	if err == nil {
		err = s.publisher.Publish(s.purgeTopic, message.NewMessage(watermill.NewUUID(), payload))
	}
	if err != nil {
		s.logger.Error("session", "failed to schedule chunk purge", map[string]interface{}{
			"session": sessionID,
			"error":   err.Error(),
		})
	} else {
		s.logger.Info("session", "session cleared", map[string]interface{}{
			"session": sessionID,
		})
	}

	return &dto.DeleteSessionResponse{Success: true}, nil
}

func (s *sessionService) ResetQuota(ctx context.Context, sessionID string) (*dto.ResetQuotaResponse, error) {
	tokens, err := s.sessions.ResetQuota(ctx, sessionID)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindGenerationFailed, "failed to reset quota", err)
	}

	s.logger.Info("session", "quota reset", map[string]interface{}{
		"session": sessionID,
		"tokens":  tokens,
	})
	return &dto.ResetQuotaResponse{Tokens: tokens}, nil
}
