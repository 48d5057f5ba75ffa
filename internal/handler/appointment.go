package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Leganyst/salon-booking/internal/crosscheck"
	"github.com/Leganyst/salon-booking/internal/model"
)

// ===== записи =====

func (h *Handler) listAppointments(c *fiber.Ctx) error {
	page, err := h.cal.ListAppointments(c.UserContext(), c.QueryInt("page", 1), c.QueryInt("pageSize", 0))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(toPageResponse(page, toAppointmentResponse))
}

func (h *Handler) listAppointmentsByOutlet(c *fiber.Ctx) error {
	s, date, err := scopeAndDate(c, outletScope)
	if err != nil {
		return h.fail(c, err)
	}
	items, err := h.cal.AppointmentsOn(c.UserContext(), s, date)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(mapSlice(items, toAppointmentResponse))
}

func (h *Handler) getAppointment(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	a, err := h.cal.GetAppointment(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(toAppointmentResponse(*a))
}

func (h *Handler) saveAppointment(c *fiber.Ctx) error {
	id, err := optionalID(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req appointmentRequest
	if err := parseBody(c, &req); err != nil {
		return h.fail(c, err)
	}
	in, err := req.toInput()
	if err != nil {
		return h.fail(c, err)
	}

	a, err := h.cal.SaveAppointment(c.UserContext(), id, in)
	if err != nil {
		return h.fail(c, err)
	}
	return saved(c, "Appointment", id == nil, toAppointmentResponse(*a))
}

// updateAppointmentStatus принимает статус в query (?status=) или в теле.
func (h *Handler) updateAppointmentStatus(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}

	status := model.AppointmentStatus(c.Query("status"))
	if status == "" && len(c.Body()) > 0 {
		var req statusRequest
		if err := parseBody(c, &req); err != nil {
			return h.fail(c, err)
		}
		status = req.Status
	}

	a, err := h.cal.UpdateAppointmentStatus(c.UserContext(), id, status)
	if err != nil {
		return h.fail(c, err)
	}
	return message(c, fiber.StatusOK, "Appointment status successfully updated", toAppointmentResponse(*a))
}

func (h *Handler) deleteAppointment(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	if err := h.cal.DeleteAppointment(c.UserContext(), id); err != nil {
		return h.fail(c, err)
	}
	return message(c, fiber.StatusOK, "Appointment successfully deleted", nil)
}

// ===== календарь =====

// validateProposal — сухой прогон: 200 {"valid": true} или та же ошибка,
// что вернуло бы сохранение.
func (h *Handler) validateProposal(c *fiber.Ctx) error {
	var req proposalRequest
	if err := parseBody(c, &req); err != nil {
		return h.fail(c, err)
	}
	if req.Kind == "" {
		req.Kind = crosscheck.KindAppointment
	}
	in, err := req.toInput()
	if err != nil {
		return h.fail(c, err)
	}
	if err := h.cal.Validate(c.UserContext(), in); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"valid": true})
}

func (h *Handler) window(c *fiber.Ctx) error {
	staffID, err := paramID(c, "staffId")
	if err != nil {
		return h.fail(c, err)
	}
	date, err := paramDate(c)
	if err != nil {
		return h.fail(c, err)
	}
	w, err := h.cal.Window(c.UserContext(), staffID, date)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(toWindowResponse(staffID, date, w))
}

// availability: ?duration= (минуты, по умолчанию 30), ?step=, ?customerId=.
func (h *Handler) availability(c *fiber.Ctx) error {
	staffID, err := paramID(c, "staffId")
	if err != nil {
		return h.fail(c, err)
	}
	date, err := paramDate(c)
	if err != nil {
		return h.fail(c, err)
	}

	var customerID *uuid.UUID
	if raw := c.Query("customerId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return h.fail(c, invalid("invalid customerId"))
		}
		customerID = &id
	}

	duration := c.QueryInt("duration", 30)
	slots, err := h.cal.Availability(c.UserContext(), staffID, customerID, date, duration, c.QueryInt("step", duration))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(toRangeResponses(slots))
}
