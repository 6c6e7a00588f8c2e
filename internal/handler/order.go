package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tranqv/restaurant-pos/internal/model"
	"github.com/tranqv/restaurant-pos/internal/repository"
	"github.com/tranqv/restaurant-pos/internal/service"
)

// OrderHandler exposes the order lifecycle over HTTP: creation and
// status transitions go through the order service; reads go straight
// to the repository.
type OrderHandler struct {
	Service   *service.OrderService
	Orders    *repository.OrderRepo
	Customers *repository.CustomerRepo
}

// NewOrderHandler constructs an OrderHandler.  All dependencies must
// be non-nil.
func NewOrderHandler(svc *service.OrderService, orders *repository.OrderRepo, customers *repository.CustomerRepo) *OrderHandler {
	if svc == nil || orders == nil || customers == nil {
		panic("nil dependency passed to NewOrderHandler")
	}
	return &OrderHandler{Service: svc, Orders: orders, Customers: customers}
}

func orderJSON(o model.Order) echo.Map {
	return echo.Map{
		"id":              o.ID,
		"customer":        o.CustomerPhone,
		"order_date":      o.OrderDate.UTC().Format(time.RFC3339),
		"total_amount":    o.TotalAmount,
		"points_earned":   o.PointsEarned,
		"points_used":     o.PointsUsed,
		"points_discount": o.PointsDiscount,
		"final_amount":    o.FinalAmount,
		"payment_method":  o.PaymentMethod,
		"status":          string(o.Status),
	}
}

func itemJSON(it model.OrderItem) echo.Map {
	return echo.Map{
		"id":           it.ID,
		"order":        it.OrderID,
		"product":      it.ProductID,
		"product_name": it.ProductName,
		"quantity":     it.Quantity,
		"price":        it.Price,
		"size":         it.Size,
		"product_note": it.Note,
	}
}

func orderIDParam(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id != 0
}

// Create handles POST /v1/orders.  The request must name an existing
// customer and payment method and carry at least one item; all
// pricing, loyalty and persistence rules live in the order service.
func (h *OrderHandler) Create(c echo.Context) error {
	var req service.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.CustomerPhone == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "customer_phone is required"})
	}
	if req.PaymentMethod == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "payment_method is required"})
	}
	if len(req.Items) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "items is required"})
	}
	res, err := h.Service.CreateOrder(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

// UpdateStatus handles PUT /v1/orders/:id/status.  It applies the
// requested transition through the state machine and returns the old
// and new status for audit.
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	id, ok := orderIDParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil || body.Status == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status is required"})
	}
	change, err := h.Service.TransitionStatus(c.Request().Context(), id, body.Status)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"order_id":       change.OrderID,
		"old_status":     string(change.Old),
		"new_status":     string(change.New),
		"customer_phone": change.CustomerPhone,
		"update_time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// List handles GET /v1/orders with optional status and payment_method
// query filters.
func (h *OrderHandler) List(c echo.Context) error {
	filter := repository.OrderFilter{
		Status:        c.QueryParam("status"),
		PaymentMethod: c.QueryParam("payment_method"),
	}
	orders, err := h.Orders.List(c.Request().Context(), filter)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]echo.Map, 0, len(orders))
	for _, o := range orders {
		out = append(out, orderJSON(o))
	}
	return c.JSON(http.StatusOK, out)
}

// GetStatus handles GET /v1/orders/:id/status, the polling fallback
// for clients without a live connection.
func (h *OrderHandler) GetStatus(c echo.Context) error {
	id, ok := orderIDParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	order, err := h.Orders.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	customer, err := h.Customers.GetByPhone(c.Request().Context(), order.CustomerPhone)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"order_id":       order.ID,
		"status":         string(order.Status),
		"customer_name":  customer.Name,
		"customer_phone": customer.Phone,
		"order_date":     order.OrderDate.UTC().Format(time.RFC3339),
		"total_amount":   order.TotalAmount,
		"final_amount":   order.FinalAmount,
	})
}

// Items handles GET /v1/orders/:id/items.
func (h *OrderHandler) Items(c echo.Context) error {
	id, ok := orderIDParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	if _, err := h.Orders.GetByID(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	items, err := h.Orders.ListItems(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]echo.Map, 0, len(items))
	for _, it := range items {
		out = append(out, itemJSON(it))
	}
	return c.JSON(http.StatusOK, out)
}

// CustomerOrders handles GET /v1/customers/:phone/orders.  It returns
// the customer's orders newest first, an optional status filter, and a
// per-status count summary.
func (h *OrderHandler) CustomerOrders(c echo.Context) error {
	phone := c.Param("phone")
	statusFilter := c.QueryParam("status")
	if statusFilter != "" {
		if _, err := model.ParseStatus(statusFilter); err != nil {
			return writeError(c, err)
		}
	}
	all, err := h.Orders.List(c.Request().Context(), repository.OrderFilter{CustomerPhone: phone})
	if err != nil {
		return writeError(c, err)
	}

	summary := map[string]int{
		string(model.StatusPending):    0,
		string(model.StatusApproved):   0,
		string(model.StatusDelivering): 0,
		string(model.StatusDelivered):  0,
		string(model.StatusCancelled):  0,
	}
	out := make([]echo.Map, 0, len(all))
	for _, o := range all {
		summary[string(o.Status)]++
		if statusFilter == "" || string(o.Status) == statusFilter {
			out = append(out, orderJSON(o))
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"total_orders":   len(out),
		"orders":         out,
		"status_summary": summary,
	})
}

// CustomerOrderDetail handles GET /v1/customers/:phone/orders/:id.
// The order must belong to the given customer; otherwise it is
// reported as not found rather than leaking its existence.
func (h *OrderHandler) CustomerOrderDetail(c echo.Context) error {
	phone := c.Param("phone")
	id, ok := orderIDParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	order, err := h.Orders.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	if order.CustomerPhone != phone {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found for this customer"})
	}
	items, err := h.Orders.ListItems(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	itemsOut := make([]echo.Map, 0, len(items))
	for _, it := range items {
		itemsOut = append(itemsOut, itemJSON(it))
	}
	resp := orderJSON(*order)
	resp["order_items"] = itemsOut
	return c.JSON(http.StatusOK, resp)
}
