package booking

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/AbderaoufHammouda/Dz-rent-it-V2/app/echoServer/jwtx"
	"github.com/AbderaoufHammouda/Dz-rent-it-V2/model"
	bs "github.com/AbderaoufHammouda/Dz-rent-it-V2/service/booking"
)

type Controller struct {
	Svc     bs.Service
	Sweeper bs.Sweeper
	V       *validator.Validate
	Log     *slog.Logger

	// Default sweep window when the admin endpoint omits threshold_hours.
	ExpiryHours int
}

const dateLayout = "2006-01-02"

func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, s, time.UTC)
}

func pathID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

// respondErr maps booking service error codes onto transport statuses.
func (h *Controller) respondErr(c echo.Context, op string, err error) error {
	h.Log.Error(op, "err", err)
	switch bs.Code(err) {
	case bs.ErrInvalidDateRange:
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"message": "invalid date range"})
	case bs.ErrInactiveItem:
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"message": "item is not bookable"})
	case bs.ErrSelfBooking:
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"message": "cannot book your own item"})
	case bs.ErrOverlap:
		return c.JSON(http.StatusConflict, echo.Map{"message": "dates overlap an existing booking"})
	case bs.ErrInvalidTransition:
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"message": "transition not allowed"})
	case bs.ErrExpired:
		return c.JSON(http.StatusGone, echo.Map{"message": "booking has expired"})
	case bs.ErrNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"message": "not found"})
	case bs.ErrBusy:
		return c.JSON(http.StatusConflict, echo.Map{"message": "resource busy, retry"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
}

// Create a booking
// @Summary      Create booking
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Param        payload  body  CreateBookingReq  true  "Booking payload"
// @Success      201  {object}  model.Booking
// @Router       /v1/bookings [post]
func (h *Controller) Create(c echo.Context) error {
	var req CreateBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}

	start, err := parseDate(req.StartDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid start_date"})
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid end_date"})
	}

	uid, err := jwtx.UserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	b, err := h.Svc.Create(c.Request().Context(), uid, req.ItemID, start, end)
	if err != nil {
		return h.respondErr(c, "booking create", err)
	}
	return c.JSON(http.StatusCreated, b)
}

// GET /v1/bookings/:id
func (h *Controller) Detail(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	uid, _ := jwtx.UserID(c)

	b, err := h.Svc.Get(c.Request().Context(), id, uid)
	if err != nil {
		return h.respondErr(c, "booking detail", err)
	}
	return c.JSON(http.StatusOK, b)
}

// GET /v1/bookings/my?role=renter|owner|both
func (h *Controller) Mine(c echo.Context) error {
	uid, _ := jwtx.UserID(c)
	role := c.QueryParam("role")
	switch role {
	case "renter", "owner":
	default:
		role = "both"
	}

	rows, err := h.Svc.ListMine(c.Request().Context(), uid, role)
	if err != nil {
		h.Log.Error("booking list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

func (h *Controller) transition(c echo.Context, target model.BookingStatus) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	uid, _ := jwtx.UserID(c)

	b, err := h.Svc.Transition(c.Request().Context(), id, target, uid)
	if err != nil {
		return h.respondErr(c, "booking transition", err)
	}
	return c.JSON(http.StatusOK, b)
}

// PATCH /v1/bookings/:id/approve
func (h *Controller) Approve(c echo.Context) error {
	return h.transition(c, model.BookingApproved)
}

// PATCH /v1/bookings/:id/reject
func (h *Controller) Reject(c echo.Context) error {
	return h.transition(c, model.BookingRejected)
}

// PATCH /v1/bookings/:id/cancel
func (h *Controller) Cancel(c echo.Context) error {
	return h.transition(c, model.BookingCancelled)
}

// PATCH /v1/bookings/:id/payment-pending
func (h *Controller) PaymentPending(c echo.Context) error {
	return h.transition(c, model.BookingPaymentPending)
}

// PATCH /v1/bookings/:id/complete
func (h *Controller) Complete(c echo.Context) error {
	return h.transition(c, model.BookingCompleted)
}

// GET /v1/items/:id/availability?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *Controller) Availability(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	from, err := parseDate(c.QueryParam("from"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid from"})
	}
	to, err := parseDate(c.QueryParam("to"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid to"})
	}

	rows, err := h.Svc.Availability(c.Request().Context(), id, from, to)
	if err != nil {
		h.Log.Error("availability", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/items/:id/quote?start_date=YYYY-MM-DD&end_date=YYYY-MM-DD
func (h *Controller) Quote(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	start, err := parseDate(c.QueryParam("start_date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid start_date"})
	}
	end, err := parseDate(c.QueryParam("end_date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid end_date"})
	}

	q, err := h.Svc.QuoteItem(c.Request().Context(), id, start, end)
	if err != nil {
		return h.respondErr(c, "quote", err)
	}
	return c.JSON(http.StatusOK, q)
}

// POST /v1/admin/bookings/sweep?threshold_hours=48&dry_run=true  (admin)
func (h *Controller) Sweep(c echo.Context) error {
	if jwtx.Role(c) != "admin" {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}

	hours := h.ExpiryHours
	if v := c.QueryParam("threshold_hours"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid threshold_hours"})
		}
		hours = n
	}
	dryRun := c.QueryParam("dry_run") == "true"

	report, err := h.Sweeper.SweepExpired(c.Request().Context(), time.Duration(hours)*time.Hour, dryRun)
	if err != nil {
		h.Log.Error("sweep", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, report)
}
