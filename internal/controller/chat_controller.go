package controller

import (
	"bufio"
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"doc-chat-be/internal/apperror"
	"doc-chat-be/internal/dto"
	"doc-chat-be/internal/pkg/serverutils"
	"doc-chat-be/internal/service"
	"doc-chat-be/pkg/streamer"
)

const quotaRemainingHeader = "X-Quota-Remaining"

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Ask(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
}

func NewChatController(chatService service.IChatService) IChatController {
	return &chatController{
		chatService: chatService,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat")
	h.Post("", c.Ask)
}

// Ask streams the answer as text/plain, one flush per token. The stream
// context outlives the handler (fiber runs the body writer after return),
// and is cancelled the moment a write to the client fails.
func (c *chatController) Ask(ctx *fiber.Ctx) error {
	sessionID := serverutils.SessionID(ctx)

	var req dto.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.Wrap(apperror.KindInvalidInput, "malformed request body", err)
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	streamCtx, cancel := context.WithCancel(context.Background())

	answer, err := c.chatService.Ask(streamCtx, sessionID, &req)
	if err != nil {
		cancel()
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.Kind == apperror.KindQuotaExhausted {
			return ctx.Status(fiber.StatusTooManyRequests).JSON(dto.ChatErrorResponse{
				Error:  appErr.Message,
				Tokens: 0,
			})
		}
		return err
	}

	ctx.Set(quotaRemainingHeader, strconv.Itoa(answer.RemainingQuota))
	ctx.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")

	ctx.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()

		for ev := range answer.Events {
			if ev.Err != nil {
				kind := streamer.Classify(ev.Err)
				w.WriteString("\n\n[" + string(kind) + "] " + kind.Message())
				w.Flush()
				return
			}
			if ev.Delta != "" {
				if _, err := w.WriteString(ev.Delta); err != nil {
					return
				}
				// A flush failure means the client went away; cancelling via
				// the deferred cancel stops upstream token consumption.
				if err := w.Flush(); err != nil {
					return
				}
			}
			if ev.Done {
				return
			}
		}
	})

	return nil
}
