package review

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/AbderaoufHammouda/Dz-rent-it-V2/app/echoServer/jwtx"
	reviewsvc "github.com/AbderaoufHammouda/Dz-rent-it-V2/service/review"
)

type Controller struct {
	Svc reviewsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

type CreateReviewReq struct {
	BookingID int64  `json:"booking_id" validate:"required,gt=0"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Comment   string `json:"comment" validate:"required"`
}

// Create a review for a completed booking
// @Summary      Create review
// @Tags         reviews
// @Accept       json
// @Produce      json
// @Param        payload  body  CreateReviewReq  true  "Review payload"
// @Success      201  {object}  model.Review
// @Router       /v1/reviews [post]
func (h *Controller) Create(c echo.Context) error {
	var req CreateReviewReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}

	uid, err := jwtx.UserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	rv, err := h.Svc.Create(c.Request().Context(), req.BookingID, uid, req.Rating, req.Comment)
	switch err {
	case nil:
	case reviewsvc.ErrNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"message": "booking not found"})
	case reviewsvc.ErrNotAllowed:
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"message": "review not allowed"})
	default:
		h.Log.Error("review create", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusCreated, rv)
}

// GET /v1/users/:id/reviews
func (h *Controller) ForUser(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	rows, err := h.Svc.ReceivedBy(c.Request().Context(), id)
	if err != nil {
		h.Log.Error("review list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}
