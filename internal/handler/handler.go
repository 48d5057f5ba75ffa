// Package handler — HTTP API календаря поверх fiber. Тела запросов и ответов
// в camelCase, ошибки в виде {"detail": "..."}.
package handler

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Leganyst/salon-booking/internal/calendar"
	"github.com/Leganyst/salon-booking/internal/crosscheck"
	"github.com/Leganyst/salon-booking/internal/ledger"
	"github.com/Leganyst/salon-booking/internal/lock"
	"github.com/Leganyst/salon-booking/internal/repository"
	"github.com/Leganyst/salon-booking/internal/service"
)

type Handler struct {
	cal    *service.Calendar
	dir    *service.Directory
	logger *zap.Logger
}

func New(cal *service.Calendar, dir *service.Directory, logger *zap.Logger) *Handler {
	return &Handler{cal: cal, dir: dir, logger: logger}
}

// Register вешает все маршруты на router (обычно группа /api).
func (h *Handler) Register(router fiber.Router) {
	router.Get("/outlets", h.listOutlets)

	staff := router.Group("/staff")
	staff.Get("", h.listStaff)
	staff.Get("/outlet/:outletId", h.listStaffByOutlet)
	staff.Get("/stats", h.staffStats)
	staff.Get("/:id", h.getStaff)
	staff.Put("", h.saveStaff)
	staff.Put("/:id", h.saveStaff)
	staff.Delete("/:id", h.deleteStaff)

	customers := router.Group("/customers")
	customers.Get("", h.listCustomers)
	customers.Get("/search", h.searchCustomers)
	customers.Get("/:id", h.getCustomer)
	customers.Get("/:id/appointments", h.customerAppointments)
	customers.Get("/:id/credit-transactions", h.creditHistory)
	customers.Post("/:id/credit-transactions", h.adjustCredits)
	customers.Post("", h.createCustomer)
	customers.Put("/:id", h.updateCustomer)

	services := router.Group("/services")
	services.Get("", h.listServices)
	services.Get("/outlet/:outletId", h.listServicesByOutlet)
	services.Get("/:id", h.getService)
	services.Put("", h.saveService)
	services.Put("/:id", h.saveService)
	services.Delete("/:id", h.deleteService)

	shifts := router.Group("/shifts")
	shifts.Get("/staff/:staffId/:date", h.listShifts(staffScope))
	shifts.Get("/outlet/:outletId/:date", h.listShifts(outletScope))
	shifts.Put("", h.saveShift)
	shifts.Put("/:id", h.saveShift)
	shifts.Delete("/:id", h.deleteShift)

	timeOffs := router.Group("/time-offs")
	timeOffs.Get("/staff/:staffId/:date", h.listTimeOffs(staffScope))
	timeOffs.Get("/outlet/:outletId/:date", h.listTimeOffs(outletScope))
	timeOffs.Get("/:id", h.getTimeOff)
	timeOffs.Put("", h.saveTimeOff)
	timeOffs.Put("/:id", h.saveTimeOff)
	timeOffs.Delete("/:id", h.deleteTimeOff)

	blocked := router.Group("/blocked-times")
	blocked.Get("/staff/:staffId/:date", h.listBlockedTimes(staffScope))
	blocked.Get("/outlet/:outletId/:date", h.listBlockedTimes(outletScope))
	blocked.Get("/:id", h.getBlockedTime)
	blocked.Put("", h.saveBlockedTime)
	blocked.Put("/:id", h.saveBlockedTime)
	blocked.Delete("/:id", h.deleteBlockedTime)

	appointments := router.Group("/appointments")
	appointments.Get("", h.listAppointments)
	appointments.Get("/outlet/:outletId/:date", h.listAppointmentsByOutlet)
	appointments.Get("/:id", h.getAppointment)
	appointments.Put("/status/:id", h.updateAppointmentStatus)
	appointments.Put("", h.saveAppointment)
	appointments.Put("/:id", h.saveAppointment)
	appointments.Delete("/:id", h.deleteAppointment)

	cal := router.Group("/calendar")
	cal.Post("/validate", h.validateProposal)
	cal.Get("/window/:staffId/:date", h.window)
	cal.Get("/availability/:staffId/:date", h.availability)
}

// fail переводит ошибку сервиса в HTTP-ответ.
func (h *Handler) fail(c *fiber.Ctx, err error) error {
	var (
		notFound     *repository.NotFoundError
		conflict     *crosscheck.ConflictError
		insufficient *ledger.InsufficientCreditsError
	)
	switch {
	case errors.As(err, &notFound):
		return detail(c, fiber.StatusNotFound, capitalize(notFound.Entity)+" not found")
	case errors.Is(err, repository.ErrNotFound):
		return detail(c, fiber.StatusNotFound, "Not found")
	case errors.As(err, &conflict), errors.As(err, &insufficient):
		return detail(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidInput):
		return detail(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, lock.ErrBusy):
		return detail(c, fiber.StatusServiceUnavailable, err.Error())
	}

	// PersistenceError уже залогирован в сервисе
	var persistence *service.PersistenceError
	if !errors.As(err, &persistence) {
		h.logger.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}
	return detail(c, fiber.StatusInternalServerError, "Internal server error")
}

func detail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"detail": msg})
}

func message(c *fiber.Ctx, status int, msg string, data any) error {
	body := fiber.Map{"message": msg}
	if data != nil {
		body["data"] = data
	}
	return c.Status(status).JSON(body)
}

// saved отвечает 201 на создание и 200 на обновление.
func saved(c *fiber.Ctx, entity string, created bool, data any) error {
	if created {
		return message(c, fiber.StatusCreated, entity+" successfully created", data)
	}
	return message(c, fiber.StatusOK, entity+" successfully updated", data)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// ===== параметры =====

func paramID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, invalid("invalid %s", name)
	}
	return id, nil
}

// optionalID — id из пути для PUT /:id, nil для PUT "".
func optionalID(c *fiber.Ctx) (*uuid.UUID, error) {
	if c.Params("id") == "" {
		return nil, nil
	}
	id, err := paramID(c, "id")
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func paramDate(c *fiber.Ctx) (time.Time, error) {
	d, err := calendar.ParseDate(c.Params("date"))
	if err != nil {
		return time.Time{}, invalid("%v", err)
	}
	return d, nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return invalid("failed to parse request body: %v", err)
	}
	return nil
}

type scopeFunc func(c *fiber.Ctx) (crosscheck.Scope, error)

func staffScope(c *fiber.Ctx) (crosscheck.Scope, error) {
	id, err := paramID(c, "staffId")
	if err != nil {
		return crosscheck.Scope{}, err
	}
	return crosscheck.StaffScope(id), nil
}

func outletScope(c *fiber.Ctx) (crosscheck.Scope, error) {
	id, err := paramID(c, "outletId")
	if err != nil {
		return crosscheck.Scope{}, err
	}
	return crosscheck.OutletScope(id), nil
}

// scopeAndDate — общая часть GET /staff/:staffId/:date и /outlet/:outletId/:date.
func scopeAndDate(c *fiber.Ctx, scope scopeFunc) (crosscheck.Scope, time.Time, error) {
	s, err := scope(c)
	if err != nil {
		return crosscheck.Scope{}, time.Time{}, err
	}
	d, err := paramDate(c)
	if err != nil {
		return crosscheck.Scope{}, time.Time{}, err
	}
	return s, d, nil
}
