package handler

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/healthweb/planboard/internal/domain"
	"github.com/healthweb/planboard/internal/middleware"
	"github.com/healthweb/planboard/internal/service"
	"github.com/healthweb/planboard/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

type BoardHandler struct {
	boards   *service.BoardRegistry
	validate *validator.Validate
	now      func() time.Time
}

func NewBoardHandler(boards *service.BoardRegistry) *BoardHandler {
	return &BoardHandler{
		boards:   boards,
		validate: newValidator(),
		now:      time.Now,
	}
}

type selectMatchRequest struct {
	MatchID int64 `json:"match_id" validate:"required,gt=0"`
}

type visibleRangeRequest struct {
	Start string `json:"start" validate:"required,calendar_date"`
	End   string `json:"end" validate:"required,calendar_date"`
}

type mountCellRequest struct {
	Rendered *bool `json:"rendered"`
}

func (h *BoardHandler) board(c *fiber.Ctx) *service.CalendarSync {
	return h.boards.Get(middleware.GetAccountID(c))
}

// SelectMatch PUT /v1/board/match
func (h *BoardHandler) SelectMatch(c *fiber.Ctx) error {
	var req selectMatchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	telemetry.SetSpanAttributes(c, attribute.Int64("board.match_id", req.MatchID))

	view := h.board(c)
	result, err := view.OnMatchChange(c.UserContext(), req.MatchID)
	if err != nil {
		return errorResponse(c, err)
	}
	view.FlushDecorations()

	return c.JSON(fiber.Map{
		"match_id": req.MatchID,
		"refresh":  result,
	})
}

// SetRange POST /v1/board/range
// The range is remembered even before a match is selected.
func (h *BoardHandler) SetRange(c *fiber.Ctx) error {
	var req visibleRangeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	view := h.board(c)
	start, _ := parseCalendarTime(req.Start, view.Location())
	end, _ := parseCalendarTime(req.End, view.Location())

	result, err := view.OnRangeChange(c.UserContext(), start, end)
	if errors.Is(err, domain.ErrNoMatchSelected) {
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"message": "Range stored, select a match to load plans",
			"refresh": nil,
		})
	}
	if err != nil {
		return errorResponse(c, err)
	}
	view.FlushDecorations()

	return c.JSON(fiber.Map{"refresh": result})
}

// Refresh POST /v1/board/refresh?fresh=true
func (h *BoardHandler) Refresh(c *fiber.Ctx) error {
	view := h.board(c)
	fresh := c.QueryBool("fresh", false)
	telemetry.SetSpanAttributes(c,
		attribute.Int64("board.match_id", view.MatchID()),
		attribute.Bool("board.fresh", fresh),
	)

	result, err := view.Refresh(c.UserContext(), fresh)
	if err != nil {
		return errorResponse(c, err)
	}
	view.FlushDecorations()
	return c.JSON(fiber.Map{"refresh": result})
}

// ListDays GET /v1/board/days
func (h *BoardHandler) ListDays(c *fiber.Ctx) error {
	view := h.board(c)
	return c.JSON(fiber.Map{
		"match_id": view.MatchID(),
		"days":     view.Classifications(),
	})
}

// GetDay GET /v1/board/days/:date
func (h *BoardHandler) GetDay(c *fiber.Ctx) error {
	view := h.board(c)
	dateKey := c.Params("date")
	if _, err := domain.ParseDateKey(dateKey, view.Location()); err != nil {
		return errorResponse(c, err)
	}

	status, loaded := view.Classification(dateKey)
	day, _ := view.Day(dateKey)
	return c.JSON(fiber.Map{
		"date":       dateKey,
		"loaded":     loaded,
		"status":     status,
		"indicators": status.Indicators(),
		"day":        day,
	})
}

// ListCells GET /v1/board/cells
func (h *BoardHandler) ListCells(c *fiber.Ctx) error {
	view := h.board(c)
	view.FlushDecorations()
	return c.JSON(view.Cells())
}

// MountCell PUT /v1/board/cells/:date
func (h *BoardHandler) MountCell(c *fiber.Ctx) error {
	req := mountCellRequest{}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
		}
	}
	rendered := req.Rendered == nil || *req.Rendered

	view := h.board(c)
	// the board keeps the key after the request, so it must not alias fasthttp's buffer
	dateKey := utils.CopyString(c.Params("date"))
	if err := view.MountCell(dateKey, rendered); err != nil {
		return errorResponse(c, err)
	}

	cell, _ := view.Cell(dateKey)
	return c.JSON(cell)
}

// UnmountCell DELETE /v1/board/cells/:date
func (h *BoardHandler) UnmountCell(c *fiber.Ctx) error {
	if err := h.board(c).UnmountCell(c.Params("date")); err != nil {
		return errorResponse(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Today GET /v1/board/today
func (h *BoardHandler) Today(c *fiber.Ctx) error {
	summary, err := h.board(c).Today(c.UserContext(), h.now())
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(summary)
}

// WeekStart GET /v1/board/week-start?date=YYYY-MM-DD
func (h *BoardHandler) WeekStart(c *fiber.Ctx) error {
	date := c.Query("date")
	if date == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "date is required"})
	}

	weekStart, err := h.board(c).WeekStartFor(date)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"date": date, "week_start": weekStart})
}

// DropBoard DELETE /v1/board
func (h *BoardHandler) DropBoard(c *fiber.Ctx) error {
	if !h.boards.Remove(middleware.GetAccountID(c)) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": domain.ErrNotFound.Error()})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func errorResponse(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidDate), errors.Is(err, domain.ErrInvalidMatchID):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, domain.ErrNoMatchSelected), errors.Is(err, service.ErrNoVisibleRange):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	default:
		return err
	}
}
