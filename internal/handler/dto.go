package handler

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/Leganyst/salon-booking/internal/calendar"
	"github.com/Leganyst/salon-booking/internal/crosscheck"
	"github.com/Leganyst/salon-booking/internal/model"
	"github.com/Leganyst/salon-booking/internal/service"
)

// Date — дата YYYY-MM-DD в JSON.
type Date time.Time

func (d Date) Time() time.Time { return time.Time(d) }

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + calendar.FormatDate(time.Time(d)) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	t, err := calendar.ParseDate(strings.Trim(string(data), `"`))
	if err != nil {
		return err
	}
	*d = Date(t)
	return nil
}

func datePtr(d *datatypes.Date) *Date {
	if d == nil {
		return nil
	}
	v := Date(calendar.DateOf(time.Time(*d)))
	return &v
}

// WallTime — дата и время без часового пояса. Смещение, если пришло,
// отбрасывается: календарь живёт в настенном времени салона.
type WallTime time.Time

const wallTimeLayout = "2006-01-02T15:04:05"

var wallTimeLayouts = []string{time.RFC3339, wallTimeLayout, "2006-01-02T15:04", "2006-01-02 15:04:05", "2006-01-02 15:04"}

func (w WallTime) Time() time.Time { return time.Time(w) }

func (w WallTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Time(w).Format(wallTimeLayout) + `"`), nil
}

func (w *WallTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	for _, layout := range wallTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			*w = WallTime(model.WallClock(t))
			return nil
		}
	}
	return fmt.Errorf("invalid datetime %q, expected YYYY-MM-DDTHH:MM[:SS]", s)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", service.ErrInvalidInput, fmt.Sprintf(format, args...))
}

// ===== филиалы =====

type outletResponse struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Address string    `json:"address"`
	Phone   *string   `json:"phone"`
	Active  bool      `json:"active"`
}

func toOutletResponse(o model.Outlet) outletResponse {
	return outletResponse{ID: o.ID, Name: o.Name, Address: o.Address, Phone: o.Phone, Active: o.Active}
}

// ===== сотрудники =====

type staffRequest struct {
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Email     string      `json:"email"`
	Phone     string      `json:"phone"`
	Role      string      `json:"role"`
	Bookable  bool        `json:"bookable"`
	Active    bool        `json:"active"`
	Outlets   []uuid.UUID `json:"outlets"`
}

func (r staffRequest) toProfile() service.StaffProfile {
	return service.StaffProfile{
		Staff: model.Staff{
			FirstName: r.FirstName,
			LastName:  r.LastName,
			Email:     r.Email,
			Phone:     r.Phone,
			Role:      r.Role,
			Bookable:  r.Bookable,
			Active:    r.Active,
		},
		OutletIDs: r.Outlets,
	}
}

type staffResponse struct {
	ID uuid.UUID `json:"id"`
	staffRequest
}

func toStaffResponse(s model.Staff, outlets []uuid.UUID) staffResponse {
	return staffResponse{
		ID: s.ID,
		staffRequest: staffRequest{
			FirstName: s.FirstName,
			LastName:  s.LastName,
			Email:     s.Email,
			Phone:     s.Phone,
			Role:      s.Role,
			Bookable:  s.Bookable,
			Active:    s.Active,
			Outlets:   outlets,
		},
	}
}

// ===== услуги =====

type serviceRequest struct {
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Duration       int             `json:"duration"`
	PriceType      model.PriceType `json:"priceType"`
	CreditCost     int             `json:"creditCost"`
	CashPrice      decimal.Decimal `json:"cashPrice"`
	Active         bool            `json:"active"`
	OnlineBookings bool            `json:"onlineBookings"`
	Commissions    bool            `json:"comissions"`
	Locations      []uuid.UUID     `json:"locations,omitempty"`
}

func (r serviceRequest) toProfile() service.ServiceProfile {
	return service.ServiceProfile{
		Service: model.Service{
			Name:           r.Name,
			Description:    r.Description,
			DurationMin:    r.Duration,
			PriceType:      r.PriceType,
			CreditCost:     r.CreditCost,
			CashPrice:      r.CashPrice,
			Active:         r.Active,
			OnlineBookings: r.OnlineBookings,
			Commissions:    r.Commissions,
		},
		OutletIDs: r.Locations,
	}
}

type serviceResponse struct {
	ID uuid.UUID `json:"id"`
	serviceRequest
}

func toServiceResponse(s model.Service, locations []uuid.UUID) serviceResponse {
	return serviceResponse{
		ID: s.ID,
		serviceRequest: serviceRequest{
			Name:           s.Name,
			Description:    s.Description,
			Duration:       s.DurationMin,
			PriceType:      s.PriceType,
			CreditCost:     s.CreditCost,
			CashPrice:      s.CashPrice,
			Active:         s.Active,
			OnlineBookings: s.OnlineBookings,
			Commissions:    s.Commissions,
			Locations:      locations,
		},
	}
}

// ===== клиенты =====

type customerRequest struct {
	FirstName            string                   `json:"firstName"`
	LastName             string                   `json:"lastName"`
	Email                string                   `json:"email"`
	Phone                string                   `json:"phone"`
	Birthday             *Date                    `json:"birthday"`
	MembershipType       *string                  `json:"membershipType"`
	MembershipStatus     model.MembershipStatus   `json:"membershipStatus"`
	PreferredTherapistID *uuid.UUID               `json:"preferredTherapistId"`
	PreferredOutletID    *uuid.UUID               `json:"preferredOutletId"`
	Allergies            []string                 `json:"allergies"`
	Reminders            model.ReminderPreference `json:"reminders"`

	// Учитывается только при создании.
	CreditBalance int `json:"creditBalance"`
}

func (r customerRequest) toModel() model.Customer {
	c := model.Customer{
		FirstName:            r.FirstName,
		LastName:             r.LastName,
		Email:                r.Email,
		Phone:                r.Phone,
		MembershipType:       r.MembershipType,
		MembershipStatus:     r.MembershipStatus,
		PreferredTherapistID: r.PreferredTherapistID,
		PreferredOutletID:    r.PreferredOutletID,
		Allergies:            datatypes.JSONSlice[string](r.Allergies),
		Reminders:            r.Reminders,
		CreditBalance:        r.CreditBalance,
	}
	if r.Birthday != nil {
		b := datatypes.Date(r.Birthday.Time())
		c.Birthday = &b
	}
	if c.MembershipStatus == "" {
		c.MembershipStatus = model.MembershipActive
	}
	if c.Reminders == "" {
		c.Reminders = model.RemindersEmailSMS
	}
	if c.Allergies == nil {
		c.Allergies = datatypes.JSONSlice[string]{}
	}
	return c
}

type customerResponse struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	customerRequest
}

func toCustomerResponse(c model.Customer) customerResponse {
	allergies := []string(c.Allergies)
	if allergies == nil {
		allergies = []string{}
	}
	return customerResponse{
		ID:        c.ID,
		CreatedAt: c.CreatedAt,
		customerRequest: customerRequest{
			FirstName:            c.FirstName,
			LastName:             c.LastName,
			Email:                c.Email,
			Phone:                c.Phone,
			Birthday:             datePtr(c.Birthday),
			MembershipType:       c.MembershipType,
			MembershipStatus:     c.MembershipStatus,
			PreferredTherapistID: c.PreferredTherapistID,
			PreferredOutletID:    c.PreferredOutletID,
			Allergies:            allergies,
			Reminders:            c.Reminders,
			CreditBalance:        c.CreditBalance,
		},
	}
}

type creditTransactionResponse struct {
	ID            uuid.UUID                   `json:"id"`
	CustomerID    uuid.UUID                   `json:"customerId"`
	AppointmentID *uuid.UUID                  `json:"appointmentId"`
	Amount        int                         `json:"amount"`
	Type          model.CreditTransactionType `json:"type"`
	Description   string                      `json:"description"`
	CreatedAt     time.Time                   `json:"createdAt"`
}

// creditAdjustmentRequest — ручная правка баланса: amount > 0 начисляет, < 0 списывает.
type creditAdjustmentRequest struct {
	Amount      int    `json:"amount"`
	Description string `json:"description"`
}

type creditAdjustmentResponse struct {
	Transaction   creditTransactionResponse `json:"transaction"`
	CreditBalance int                       `json:"creditBalance"`
}

func toCreditTransactionResponse(t model.CreditTransaction) creditTransactionResponse {
	return creditTransactionResponse{
		ID:            t.ID,
		CustomerID:    t.CustomerID,
		AppointmentID: t.AppointmentID,
		Amount:        t.Amount,
		Type:          t.Type,
		Description:   t.Description,
		CreatedAt:     t.CreatedAt,
	}
}

// ===== смены =====

type shiftRequest struct {
	StaffID   uuid.UUID      `json:"staffId"`
	ShiftDate Date           `json:"shiftDate"`
	StartTime calendar.Clock `json:"startTime"`
	EndTime   calendar.Clock `json:"endTime"`
}

func (r shiftRequest) toInput() (service.ShiftInput, error) {
	rng, err := calendar.NewRange(r.StartTime, r.EndTime)
	if err != nil {
		return service.ShiftInput{}, invalid("%v", err)
	}
	return service.ShiftInput{StaffID: r.StaffID, Date: r.ShiftDate.Time(), Range: rng}, nil
}

type shiftResponse struct {
	ID uuid.UUID `json:"id"`
	shiftRequest
}

func toShiftResponse(s model.Shift) shiftResponse {
	return shiftResponse{
		ID: s.ID,
		shiftRequest: shiftRequest{
			StaffID:   s.StaffID,
			ShiftDate: Date(s.Date()),
			StartTime: s.StartTime,
			EndTime:   s.EndTime,
		},
	}
}

// ===== отгулы =====

type timeOffRequest struct {
	StaffID     uuid.UUID              `json:"staffId"`
	Duration    float64                `json:"duration"`
	Type        model.TimeOffType      `json:"type"`
	StartDate   Date                   `json:"startDate"`
	StartTime   calendar.Clock         `json:"startTime"`
	EndTime     calendar.Clock         `json:"endTime"`
	Frequency   model.TimeOffFrequency `json:"frequency"`
	EndsDate    *Date                  `json:"endsDate"`
	Description string                 `json:"description"`
	Approved    bool                   `json:"approved"`
}

func (r timeOffRequest) toInput() (service.TimeOffInput, error) {
	rng, err := calendar.NewRange(r.StartTime, r.EndTime)
	if err != nil {
		return service.TimeOffInput{}, invalid("%v", err)
	}
	in := service.TimeOffInput{
		StaffID:     r.StaffID,
		Type:        r.Type,
		Duration:    r.Duration,
		StartDate:   r.StartDate.Time(),
		Range:       rng,
		Frequency:   r.Frequency,
		Description: r.Description,
		Approved:    r.Approved,
	}
	if r.EndsDate != nil {
		t := r.EndsDate.Time()
		in.EndsDate = &t
	}
	return in, nil
}

type timeOffResponse struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	timeOffRequest
}

func toTimeOffResponse(t model.TimeOff) timeOffResponse {
	return timeOffResponse{
		ID:        t.ID,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
		timeOffRequest: timeOffRequest{
			StaffID:     t.StaffID,
			Duration:    t.Duration,
			Type:        t.Type,
			StartDate:   Date(t.Date()),
			StartTime:   t.StartTime,
			EndTime:     t.EndTime,
			Frequency:   t.Frequency,
			EndsDate:    datePtr(t.EndsDate),
			Description: t.Description,
			Approved:    t.Approved,
		},
	}
}

// ===== блокировки =====

type blockedTimeRequest struct {
	StaffID              uuid.UUID          `json:"staffId"`
	Title                string             `json:"title"`
	StartDate            Date               `json:"startDate"`
	FromTime             calendar.Clock     `json:"fromTime"`
	ToTime               calendar.Clock     `json:"toTime"`
	Frequency            calendar.Frequency `json:"frequency"`
	Ends                 *model.EndsMode    `json:"ends"`
	EndsOnDate           *Date              `json:"endsOnDate"`
	EndsAfterOccurrences *int               `json:"endsAfterOccurences"`
	Description          string             `json:"description"`
	Approved             bool               `json:"approved"`
}

func (r blockedTimeRequest) toInput() (service.BlockedTimeInput, error) {
	rng, err := calendar.NewRange(r.FromTime, r.ToTime)
	if err != nil {
		return service.BlockedTimeInput{}, invalid("%v", err)
	}

	var onDate *datatypes.Date
	if r.EndsOnDate != nil {
		d := datatypes.Date(r.EndsOnDate.Time())
		onDate = &d
	}
	ends, err := model.DecodeEnds(r.Ends, onDate, r.EndsAfterOccurrences)
	if err != nil {
		return service.BlockedTimeInput{}, invalid("%v", err)
	}
	freq := r.Frequency
	if freq == "" {
		freq = calendar.FrequencyNone
	}
	rule, err := calendar.NewRule(r.StartDate.Time(), freq, ends)
	if err != nil {
		return service.BlockedTimeInput{}, invalid("%v", err)
	}

	return service.BlockedTimeInput{
		StaffID:     r.StaffID,
		Title:       r.Title,
		Range:       rng,
		Rule:        rule,
		Description: r.Description,
		Approved:    r.Approved,
	}, nil
}

type blockedTimeResponse struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	blockedTimeRequest
}

func toBlockedTimeResponse(b model.BlockedTime) blockedTimeResponse {
	return blockedTimeResponse{
		ID:        b.ID,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
		blockedTimeRequest: blockedTimeRequest{
			StaffID:              b.StaffID,
			Title:                b.Title,
			StartDate:            Date(b.Date()),
			FromTime:             b.FromTime,
			ToTime:               b.ToTime,
			Frequency:            b.Frequency,
			Ends:                 b.EndsMode,
			EndsOnDate:           datePtr(b.EndsOnDate),
			EndsAfterOccurrences: b.EndsAfterOccurrences,
			Description:          b.Description,
			Approved:             b.Approved,
		},
	}
}

// ===== записи =====

type appointmentRequest struct {
	CustomerID    uuid.UUID           `json:"customerId"`
	StaffID       uuid.UUID           `json:"staffId"`
	ServiceID     uuid.UUID           `json:"serviceId"`
	OutletID      uuid.UUID           `json:"outletId"`
	StartTime     WallTime            `json:"startTime"`
	EndTime       WallTime            `json:"endTime"`
	PaymentMethod model.PaymentMethod `json:"paymentMethod"`
	PaymentStatus model.PaymentStatus `json:"paymentStatus"`

	// Только в ответе: при сохранении берётся из БД.
	CreditsPaid int `json:"creditsPaid"`

	CashPaid decimal.Decimal         `json:"cashPaid"`
	Notes    *string                 `json:"notes"`
	Status   model.AppointmentStatus `json:"status"`
}

func (r appointmentRequest) toInput() (service.AppointmentInput, error) {
	start, end := r.StartTime.Time(), r.EndTime.Time()
	if !calendar.SameDate(start, end) {
		return service.AppointmentInput{}, invalid("appointment must start and end on the same date")
	}
	rng, err := calendar.NewRange(calendar.ClockOf(start), calendar.ClockOf(end))
	if err != nil {
		return service.AppointmentInput{}, invalid("%v", err)
	}
	return service.AppointmentInput{
		CustomerID:    r.CustomerID,
		StaffID:       r.StaffID,
		ServiceID:     r.ServiceID,
		OutletID:      r.OutletID,
		Date:          calendar.DateOf(start),
		Range:         rng,
		PaymentMethod: r.PaymentMethod,
		PaymentStatus: r.PaymentStatus,
		CashPaid:      r.CashPaid,
		Status:        r.Status,
		Notes:         r.Notes,
	}, nil
}

type appointmentResponse struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	appointmentRequest
}

func toAppointmentResponse(a model.Appointment) appointmentResponse {
	return appointmentResponse{
		ID:        a.ID,
		CreatedAt: a.CreatedAt,
		appointmentRequest: appointmentRequest{
			CustomerID:    a.CustomerID,
			StaffID:       a.StaffID,
			ServiceID:     a.ServiceID,
			OutletID:      a.OutletID,
			StartTime:     WallTime(a.StartsAt),
			EndTime:       WallTime(a.EndsAt),
			PaymentMethod: a.PaymentMethod,
			PaymentStatus: a.PaymentStatus,
			CreditsPaid:   a.CreditsPaid,
			CashPaid:      a.CashPaid,
			Notes:         a.Notes,
			Status:        a.Status,
		},
	}
}

type statusRequest struct {
	Status model.AppointmentStatus `json:"status"`
}

// ===== календарь =====

type proposalRequest struct {
	Kind       crosscheck.Kind `json:"kind"`
	StaffID    uuid.UUID       `json:"staffId"`
	CustomerID *uuid.UUID      `json:"customerId"`
	Date       Date            `json:"date"`
	StartTime  calendar.Clock  `json:"startTime"`
	EndTime    calendar.Clock  `json:"endTime"`
	ExcludeID  *uuid.UUID      `json:"excludeId"`
}

func (r proposalRequest) toInput() (service.ProposalInput, error) {
	rng, err := calendar.NewRange(r.StartTime, r.EndTime)
	if err != nil {
		return service.ProposalInput{}, invalid("%v", err)
	}
	return service.ProposalInput{
		Kind:       r.Kind,
		StaffID:    r.StaffID,
		CustomerID: r.CustomerID,
		Date:       r.Date.Time(),
		Range:      rng,
		ExcludeID:  r.ExcludeID,
	}, nil
}

type rangeResponse struct {
	StartTime calendar.Clock `json:"startTime"`
	EndTime   calendar.Clock `json:"endTime"`
}

func toRangeResponses(items []calendar.Range) []rangeResponse {
	out := make([]rangeResponse, 0, len(items))
	for _, r := range items {
		out = append(out, rangeResponse{StartTime: r.Start, EndTime: r.End})
	}
	return out
}

type windowResponse struct {
	StaffID uuid.UUID  `json:"staffId"`
	Date    Date       `json:"date"`
	Source  string     `json:"source"`
	ShiftID *uuid.UUID `json:"shiftId,omitempty"`
	rangeResponse
}

func toWindowResponse(staffID uuid.UUID, date time.Time, w crosscheck.Window) windowResponse {
	resp := windowResponse{
		StaffID:       staffID,
		Date:          Date(calendar.DateOf(date)),
		Source:        "default",
		rangeResponse: rangeResponse{StartTime: w.Range.Start, EndTime: w.Range.End},
	}
	if !w.IsDefault() {
		resp.Source = "shift"
		resp.ShiftID = &w.Shift.ID
	}
	return resp
}

type pageResponse[T any] struct {
	Items    []T  `json:"items"`
	Page     int  `json:"page"`
	PageSize int  `json:"pageSize"`
	Total    int  `json:"total"`
	HasNext  bool `json:"hasNext"`
	HasPrev  bool `json:"hasPrev"`
}

func toPageResponse[M, T any](p calendar.Page[M], conv func(M) T) pageResponse[T] {
	items := make([]T, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, conv(it))
	}
	return pageResponse[T]{
		Items:    items,
		Page:     p.Page,
		PageSize: p.PageSize,
		Total:    p.Total,
		HasNext:  p.HasNext,
		HasPrev:  p.HasPrev,
	}
}

func mapSlice[M, T any](items []M, conv func(M) T) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		out = append(out, conv(it))
	}
	return out
}
