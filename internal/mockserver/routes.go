package mockserver

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/muurk/rfqedit/internal/logging"
)

func (s *Server) routes() {
	api := s.app.Group("/api")
	api.Get("/health", s.health)

	rfq := api.Group("/rfq/:id<int>")
	rfq.Get("/", s.getRecord)
	rfq.Patch("/", s.patchRecord)
	rfq.Get("/solt", s.getTable)
	rfq.Patch("/solt/tab/:tab<int>", s.patchTab)
	rfq.Post("/solt/line", s.addLine)
	rfq.Patch("/solt/line/:line<int>", s.patchLine)
	rfq.Delete("/solt/line/:line<int>", s.deleteLine)
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"ok": true})
}

func (s *Server) getRecord(c *fiber.Ctx) error {
	id, _ := c.ParamsInt("id")
	rec, err := s.store.Record(id)
	if err != nil {
		return failure(c, err)
	}
	return c.JSON(rec)
}

func (s *Server) patchRecord(c *fiber.Ctx) error {
	id, _ := c.ParamsInt("id")
	rec, err := s.store.PatchRecord(id, decodeFields(c.Body()))
	if err != nil {
		return failure(c, err)
	}
	return c.JSON(rec)
}

func (s *Server) getTable(c *fiber.Ctx) error {
	id, _ := c.ParamsInt("id")
	return c.JSON(s.store.Table(id))
}

func (s *Server) patchTab(c *fiber.Ctx) error {
	id, _ := c.ParamsInt("id")
	index, _ := c.ParamsInt("tab")

	name, _ := decodeFields(c.Body())["name"].(string)
	tab, err := s.store.RenameTab(id, index, name)
	if err != nil {
		return failure(c, err)
	}
	return c.JSON(tab)
}

func (s *Server) addLine(c *fiber.Ctx) error {
	id, _ := c.ParamsInt("id")
	line, err := s.store.AddLine(id, decodeFields(c.Body()))
	if err != nil {
		return failure(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(line)
}

func (s *Server) patchLine(c *fiber.Ctx) error {
	id, _ := c.ParamsInt("id")
	lineID, _ := c.ParamsInt("line")
	line, err := s.store.PatchLine(id, lineID, decodeFields(c.Body()))
	if err != nil {
		return failure(c, err)
	}
	return c.JSON(line)
}

func (s *Server) deleteLine(c *fiber.Ctx) error {
	id, _ := c.ParamsInt("id")
	lineID, _ := c.ParamsInt("line")
	if err := s.store.DeleteLine(id, lineID); err != nil {
		return failure(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

// failure maps store errors to status codes.
func failure(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, ErrNoValidFields), errors.Is(err, ErrNameRequired):
		status = fiber.StatusBadRequest
	default:
		logging.Error("Store operation failed", zap.String("path", c.Path()), zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
