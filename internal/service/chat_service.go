package service

import (
	"context"
	"errors"
	"strings"

	"doc-chat-be/internal/apperror"
	"doc-chat-be/internal/dto"
	"doc-chat-be/internal/pkg/logger"
	"doc-chat-be/pkg/llm"
	"doc-chat-be/pkg/retrieval"
	"doc-chat-be/pkg/session"
	"doc-chat-be/pkg/streamer"
)

// ChatAnswer is a started generation: the quota has been consumed and tokens
// are flowing on Events. Cancelling the Ask context stops upstream
// consumption; tokens already emitted are not retracted.
type ChatAnswer struct {
	RemainingQuota int
	Events         <-chan llm.StreamEvent
}

type IChatService interface {
	Ask(ctx context.Context, sessionID string, req *dto.ChatRequest) (*ChatAnswer, error)
}

type chatService struct {
	sessions  session.Store
	retriever *retrieval.Engine
	streamer  *streamer.Streamer
	logger    logger.ILogger
}

func NewChatService(
	sessions session.Store,
	retriever *retrieval.Engine,
	st *streamer.Streamer,
	log logger.ILogger,
) IChatService {
	return &chatService{
		sessions:  sessions,
		retriever: retriever,
		streamer:  st,
		logger:    log,
	}
}

// Ask runs quota check -> retrieval -> streaming for one question. The
// quota unit is consumed before generation starts and is not refunded on a
// downstream failure.
func (s *chatService) Ask(ctx context.Context, sessionID string, req *dto.ChatRequest) (*ChatAnswer, error) {
	// Input rejection happens before any external call.
	if strings.TrimSpace(req.Question) == "" {
		return nil, apperror.New(apperror.KindInvalidInput, "question is required")
	}
	if len(req.Sources) == 0 {
		return nil, apperror.New(apperror.KindInvalidInput, "attach at least one source before asking")
	}

	remaining, err := s.sessions.ConsumeQuota(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrQuotaExhausted) {
			return nil, apperror.New(apperror.KindQuotaExhausted,
				"message quota exhausted for this session")
		}
		return nil, apperror.Wrap(apperror.KindGenerationFailed, "failed to check quota", err)
	}

	// An empty retrieval result is valid; the streamer answers with the
	// fixed refusal instead of fabricating.
	chunks, err := s.retriever.Retrieve(ctx, sessionID, req.Question, req.TargetSource, retrieval.DefaultTopK)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindGenerationFailed, "retrieval failed", err)
	}

	history := make([]llm.Message, 0, len(req.ConversationHistory))
	for _, m := range req.ConversationHistory {
		history = append(history, llm.Message{Role: m.Role, Content: m.Content})
	}

	events, err := s.streamer.Answer(ctx, req.Question, chunks, history)
	if err != nil {
		kind := streamer.Classify(err)
		s.logger.Error("chat", "generation failed to start", map[string]interface{}{
			"session": sessionID,
			"kind":    string(kind),
			"error":   err.Error(),
		})
		return nil, apperror.Wrap(apperror.KindGenerationFailed, kind.Message(), err)
	}

	s.logger.Info("chat", "answer stream started", map[string]interface{}{
		"session":   sessionID,
		"chunks":    len(chunks),
		"remaining": remaining,
	})

	return &ChatAnswer{
		RemainingQuota: remaining,
		Events:         events,
	}, nil
}
