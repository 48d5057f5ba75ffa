package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Leganyst/salon-booking/internal/model"
)

// ===== филиалы =====

func (h *Handler) listOutlets(c *fiber.Ctx) error {
	items, err := h.dir.Outlets(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(mapSlice(items, toOutletResponse))
}

// ===== сотрудники =====

func staffList(items []model.Staff) []staffResponse {
	return mapSlice(items, func(s model.Staff) staffResponse { return toStaffResponse(s, nil) })
}

func (h *Handler) listStaff(c *fiber.Ctx) error {
	items, err := h.dir.Staff(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(staffList(items))
}

func (h *Handler) listStaffByOutlet(c *fiber.Ctx) error {
	outletID, err := paramID(c, "outletId")
	if err != nil {
		return h.fail(c, err)
	}
	items, err := h.dir.StaffByOutlet(c.UserContext(), outletID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(staffList(items))
}

func (h *Handler) staffStats(c *fiber.Ctx) error {
	stats, err := h.dir.StaffStats(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(stats)
}

func (h *Handler) getStaff(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	p, err := h.dir.GetStaff(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(toStaffResponse(p.Staff, p.OutletIDs))
}

func (h *Handler) saveStaff(c *fiber.Ctx) error {
	id, err := optionalID(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req staffRequest
	if err := parseBody(c, &req); err != nil {
		return h.fail(c, err)
	}

	p, err := h.dir.SaveStaff(c.UserContext(), id, req.toProfile())
	if err != nil {
		return h.fail(c, err)
	}
	return saved(c, "Staff", id == nil, toStaffResponse(p.Staff, p.OutletIDs))
}

func (h *Handler) deleteStaff(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	if err := h.dir.DeleteStaff(c.UserContext(), id); err != nil {
		return h.fail(c, err)
	}
	return message(c, fiber.StatusOK, "Staff successfully deleted", nil)
}

// ===== клиенты =====

func (h *Handler) listCustomers(c *fiber.Ctx) error {
	items, err := h.dir.Customers(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(mapSlice(items, toCustomerResponse))
}

func (h *Handler) searchCustomers(c *fiber.Ctx) error {
	items, err := h.dir.SearchCustomers(c.UserContext(), c.Query("q"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(mapSlice(items, toCustomerResponse))
}

func (h *Handler) getCustomer(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	cu, err := h.dir.GetCustomer(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(toCustomerResponse(*cu))
}

func (h *Handler) customerAppointments(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	page, err := h.dir.CustomerAppointments(c.UserContext(), id, c.QueryInt("page", 1), c.QueryInt("pageSize", 0))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(toPageResponse(page, toAppointmentResponse))
}

func (h *Handler) creditHistory(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	page, err := h.dir.CreditHistory(c.UserContext(), id, c.QueryInt("page", 1), c.QueryInt("pageSize", 0))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(toPageResponse(page, toCreditTransactionResponse))
}

func (h *Handler) adjustCredits(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var req creditAdjustmentRequest
	if err := parseBody(c, &req); err != nil {
		return h.fail(c, err)
	}
	cu, entry, err := h.dir.AdjustCredits(c.UserContext(), id, req.Amount, req.Description)
	if err != nil {
		return h.fail(c, err)
	}
	return saved(c, "Credit transaction", true, creditAdjustmentResponse{
		Transaction:   toCreditTransactionResponse(*entry),
		CreditBalance: cu.CreditBalance,
	})
}

func (h *Handler) createCustomer(c *fiber.Ctx) error {
	var req customerRequest
	if err := parseBody(c, &req); err != nil {
		return h.fail(c, err)
	}
	cu, err := h.dir.CreateCustomer(c.UserContext(), req.toModel())
	if err != nil {
		return h.fail(c, err)
	}
	return saved(c, "Customer", true, toCustomerResponse(*cu))
}

func (h *Handler) updateCustomer(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var req customerRequest
	if err := parseBody(c, &req); err != nil {
		return h.fail(c, err)
	}
	cu, err := h.dir.UpdateCustomer(c.UserContext(), id, req.toModel())
	if err != nil {
		return h.fail(c, err)
	}
	return saved(c, "Customer", false, toCustomerResponse(*cu))
}

// ===== услуги =====

func serviceList(items []model.Service) []serviceResponse {
	return mapSlice(items, func(s model.Service) serviceResponse { return toServiceResponse(s, nil) })
}

func (h *Handler) listServices(c *fiber.Ctx) error {
	items, err := h.dir.Services(c.UserContext(), c.QueryBool("active", false))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(serviceList(items))
}

func (h *Handler) listServicesByOutlet(c *fiber.Ctx) error {
	outletID, err := paramID(c, "outletId")
	if err != nil {
		return h.fail(c, err)
	}
	items, err := h.dir.ServicesByOutlet(c.UserContext(), outletID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(serviceList(items))
}

func (h *Handler) getService(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	p, err := h.dir.GetService(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(toServiceResponse(p.Service, p.OutletIDs))
}

func (h *Handler) saveService(c *fiber.Ctx) error {
	id, err := optionalID(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req serviceRequest
	if err := parseBody(c, &req); err != nil {
		return h.fail(c, err)
	}

	p, err := h.dir.SaveService(c.UserContext(), id, req.toProfile())
	if err != nil {
		return h.fail(c, err)
	}
	return saved(c, "Service", id == nil, toServiceResponse(p.Service, p.OutletIDs))
}

func (h *Handler) deleteService(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	if err := h.dir.DeleteService(c.UserContext(), id); err != nil {
		return h.fail(c, err)
	}
	return message(c, fiber.StatusOK, "Service successfully deleted", nil)
}
