package handler

import (
	"github.com/gofiber/fiber/v2"
)

// ===== смены =====

func (h *Handler) listShifts(scope scopeFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, date, err := scopeAndDate(c, scope)
		if err != nil {
			return h.fail(c, err)
		}
		items, err := h.cal.Shifts(c.UserContext(), s, date)
		if err != nil {
			return h.fail(c, err)
		}
		return c.JSON(mapSlice(items, toShiftResponse))
	}
}

func (h *Handler) saveShift(c *fiber.Ctx) error {
	id, err := optionalID(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req shiftRequest
	if err := parseBody(c, &req); err != nil {
		return h.fail(c, err)
	}
	in, err := req.toInput()
	if err != nil {
		return h.fail(c, err)
	}

	shift, err := h.cal.SaveShift(c.UserContext(), id, in)
	if err != nil {
		return h.fail(c, err)
	}
	return saved(c, "Shift", id == nil, toShiftResponse(*shift))
}

func (h *Handler) deleteShift(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	if err := h.cal.DeleteShift(c.UserContext(), id); err != nil {
		return h.fail(c, err)
	}
	return message(c, fiber.StatusOK, "Shift successfully deleted", nil)
}

// ===== отгулы =====

func (h *Handler) listTimeOffs(scope scopeFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, date, err := scopeAndDate(c, scope)
		if err != nil {
			return h.fail(c, err)
		}
		items, err := h.cal.TimeOffs(c.UserContext(), s, date)
		if err != nil {
			return h.fail(c, err)
		}
		return c.JSON(mapSlice(items, toTimeOffResponse))
	}
}

func (h *Handler) getTimeOff(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	t, err := h.cal.GetTimeOff(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(toTimeOffResponse(*t))
}

func (h *Handler) saveTimeOff(c *fiber.Ctx) error {
	id, err := optionalID(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req timeOffRequest
	if err := parseBody(c, &req); err != nil {
		return h.fail(c, err)
	}
	in, err := req.toInput()
	if err != nil {
		return h.fail(c, err)
	}

	t, err := h.cal.SaveTimeOff(c.UserContext(), id, in)
	if err != nil {
		return h.fail(c, err)
	}
	return saved(c, "Time off", id == nil, toTimeOffResponse(*t))
}

func (h *Handler) deleteTimeOff(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	if err := h.cal.DeleteTimeOff(c.UserContext(), id); err != nil {
		return h.fail(c, err)
	}
	return message(c, fiber.StatusOK, "Time off successfully deleted", nil)
}

// ===== блокировки =====

func (h *Handler) listBlockedTimes(scope scopeFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, date, err := scopeAndDate(c, scope)
		if err != nil {
			return h.fail(c, err)
		}
		items, err := h.cal.BlockedTimes(c.UserContext(), s, date)
		if err != nil {
			return h.fail(c, err)
		}
		return c.JSON(mapSlice(items, toBlockedTimeResponse))
	}
}

func (h *Handler) getBlockedTime(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	b, err := h.cal.GetBlockedTime(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(toBlockedTimeResponse(*b))
}

func (h *Handler) saveBlockedTime(c *fiber.Ctx) error {
	id, err := optionalID(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req blockedTimeRequest
	if err := parseBody(c, &req); err != nil {
		return h.fail(c, err)
	}
	in, err := req.toInput()
	if err != nil {
		return h.fail(c, err)
	}

	b, err := h.cal.SaveBlockedTime(c.UserContext(), id, in)
	if err != nil {
		return h.fail(c, err)
	}
	return saved(c, "Blocked time", id == nil, toBlockedTimeResponse(*b))
}

func (h *Handler) deleteBlockedTime(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	if err := h.cal.DeleteBlockedTime(c.UserContext(), id); err != nil {
		return h.fail(c, err)
	}
	return message(c, fiber.StatusOK, "Blocked time successfully deleted", nil)
}
