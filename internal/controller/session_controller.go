package controller

import (
	"github.com/gofiber/fiber/v2"

	"doc-chat-be/internal/pkg/serverutils"
	"doc-chat-be/internal/service"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router)
	Show(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	ResetQuota(ctx *fiber.Ctx) error
}

type sessionController struct {
	sessionService service.ISessionService
}

func NewSessionController(sessionService service.ISessionService) ISessionController {
	return &sessionController{
		sessionService: sessionService,
	}
}

func (c *sessionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/session")
	h.Get("", c.Show)
	h.Delete("", c.Delete)
	h.Post("reset-quota", c.ResetQuota)
}

func (c *sessionController) Show(ctx *fiber.Ctx) error {
	sessionID := serverutils.SessionID(ctx)

	res, err := c.sessionService.GetInfo(ctx.Context(), sessionID)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *sessionController) Delete(ctx *fiber.Ctx) error {
	sessionID := serverutils.SessionID(ctx)

	res, err := c.sessionService.Delete(ctx.Context(), sessionID)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *sessionController) ResetQuota(ctx *fiber.Ctx) error {
	sessionID := serverutils.SessionID(ctx)

	res, err := c.sessionService.ResetQuota(ctx.Context(), sessionID)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}
