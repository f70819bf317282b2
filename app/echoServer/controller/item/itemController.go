package item

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/AbderaoufHammouda/Dz-rent-it-V2/app/echoServer/jwtx"
	itemsvc "github.com/AbderaoufHammouda/Dz-rent-it-V2/service/item"
)

type Controller struct {
	Svc itemsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

type UpsertItemReq struct {
	Title         string          `json:"title" validate:"required,max=200"`
	Description   string          `json:"description"`
	PricePerDay   decimal.Decimal `json:"price_per_day" validate:"required"`
	DepositAmount decimal.Decimal `json:"deposit_amount" validate:"required"`
	IsActive      *bool           `json:"is_active"`
}

func pathID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

// Create a listing
// @Summary      Create item
// @Tags         items
// @Accept       json
// @Produce      json
// @Param        payload  body  UpsertItemReq  true  "Item payload"
// @Success      201  {object}  model.Item
// @Router       /v1/items [post]
func (h *Controller) Create(c echo.Context) error {
	var req UpsertItemReq
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

	it, err := h.Svc.Create(c.Request().Context(), uid, req.Title, req.Description, req.PricePerDay, req.DepositAmount)
	if err != nil {
		if err == itemsvc.ErrBadInput {
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"message": "invalid item data"})
		}
		h.Log.Error("item create", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusCreated, it)
}

// PUT /v1/items/:id
func (h *Controller) Update(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	var req UpsertItemReq
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

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	it, err := h.Svc.Update(c.Request().Context(), uid, id, itemsvc.UpdateReq{
		Title:         req.Title,
		Description:   req.Description,
		PricePerDay:   req.PricePerDay,
		DepositAmount: req.DepositAmount,
		IsActive:      active,
	})
	switch err {
	case nil:
	case itemsvc.ErrNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"message": "item not found"})
	case itemsvc.ErrNotOwner:
		return c.JSON(http.StatusForbidden, echo.Map{"message": "not the owner"})
	case itemsvc.ErrBadInput:
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"message": "invalid item data"})
	default:
		h.Log.Error("item update", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, it)
}

// GET /v1/items/:id
func (h *Controller) Detail(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	it, err := h.Svc.Get(c.Request().Context(), id)
	if err != nil {
		if err == itemsvc.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "item not found"})
		}
		h.Log.Error("item detail", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, it)
}

// GET /v1/items
func (h *Controller) List(c echo.Context) error {
	rows, err := h.Svc.ListActive(c.Request().Context())
	if err != nil {
		h.Log.Error("item list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}
