package controller

import (
	"io"

	"github.com/gofiber/fiber/v2"

	"doc-chat-be/internal/apperror"
	"doc-chat-be/internal/pkg/serverutils"
	"doc-chat-be/internal/service"
)

type IIngestController interface {
	RegisterRoutes(r fiber.Router)
	Ingest(ctx *fiber.Ctx) error
	DeleteSource(ctx *fiber.Ctx) error
}

type ingestController struct {
	ingestService service.IIngestService
}

func NewIngestController(ingestService service.IIngestService) IIngestController {
	return &ingestController{
		ingestService: ingestService,
	}
}

func (c *ingestController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/ingest")
	h.Post("", c.Ingest)
	h.Delete("", c.DeleteSource)
}

// Ingest accepts a multipart form with exactly one of file, url, or text.
func (c *ingestController) Ingest(ctx *fiber.Ctx) error {
	sessionID := serverutils.SessionID(ctx)

	fileHeader, fileErr := ctx.FormFile("file")
	url := ctx.FormValue("url")
	text := ctx.FormValue("text")
	title := ctx.FormValue("title")

	provided := 0
	if fileErr == nil && fileHeader != nil {
		provided++
	}
	if url != "" {
		provided++
	}
	if text != "" {
		provided++
	}
	if provided != 1 {
		return apperror.New(apperror.KindInvalidInput,
			"provide exactly one of file, url, or text")
	}

	switch {
	case fileErr == nil && fileHeader != nil:
		f, err := fileHeader.Open()
		if err != nil {
			return apperror.Wrap(apperror.KindInvalidInput, "failed to open uploaded file", err)
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			return apperror.Wrap(apperror.KindInvalidInput, "failed to read uploaded file", err)
		}

		res, err := c.ingestService.IngestFile(ctx.Context(), sessionID, fileHeader.Filename, data)
		if err != nil {
			return err
		}
		return ctx.JSON(res)

	case url != "":
		res, err := c.ingestService.IngestURL(ctx.Context(), sessionID, url)
		if err != nil {
			return err
		}
		return ctx.JSON(res)

	default:
		res, err := c.ingestService.IngestText(ctx.Context(), sessionID, title, text)
		if err != nil {
			return err
		}
		return ctx.JSON(res)
	}
}

func (c *ingestController) DeleteSource(ctx *fiber.Ctx) error {
	sessionID := serverutils.SessionID(ctx)
	fileName := ctx.Query("fileName")

	res, err := c.ingestService.DeleteSource(ctx.Context(), sessionID, fileName)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}
