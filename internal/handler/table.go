package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/tranqv/restaurant-pos/internal/broker"
	"github.com/tranqv/restaurant-pos/internal/model"
	"github.com/tranqv/restaurant-pos/internal/queue"
	"github.com/tranqv/restaurant-pos/internal/repository"
)

// TableHandler manages tables and publishes occupancy changes to the
// table_updates topic so floor displays stay current.
type TableHandler struct {
	Tables *repository.TableRepo
	Events broker.Broker
}

// NewTableHandler constructs a TableHandler.
func NewTableHandler(tables *repository.TableRepo, events broker.Broker) *TableHandler {
	if tables == nil || events == nil {
		panic("nil dependency passed to NewTableHandler")
	}
	return &TableHandler{Tables: tables, Events: events}
}

func tableIDParam(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id != 0
}

func (h *TableHandler) tableJSON(c echo.Context, t model.Table) (echo.Map, error) {
	occupants, err := h.Tables.Occupants(c.Request().Context(), t.ID)
	if err != nil {
		return nil, err
	}
	return echo.Map{"id": t.ID, "name": t.Name, "customers": occupants}, nil
}

// List handles GET /v1/tables.
func (h *TableHandler) List(c echo.Context) error {
	tables, err := h.Tables.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	out := make([]echo.Map, 0, len(tables))
	for _, t := range tables {
		m, err := h.tableJSON(c, t)
		if err != nil {
			return writeError(c, err)
		}
		out = append(out, m)
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /v1/tables/:id.
func (h *TableHandler) Get(c echo.Context) error {
	id, ok := tableIDParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	t, err := h.Tables.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	m, err := h.tableJSON(c, *t)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

// Create handles POST /v1/tables.
func (h *TableHandler) Create(c echo.Context) error {
	var body struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&body); err != nil || body.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	t := model.Table{Name: body.Name}
	if err := h.Tables.Create(c.Request().Context(), &t); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": t.ID, "name": t.Name})
}

// Update handles PUT /v1/tables/:id.
func (h *TableHandler) Update(c echo.Context) error {
	id, ok := tableIDParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	var body struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&body); err != nil || body.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	if err := h.Tables.Rename(c.Request().Context(), id, body.Name); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "name": body.Name})
}

// Delete handles DELETE /v1/tables/:id.
func (h *TableHandler) Delete(c echo.Context) error {
	id, ok := tableIDParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	if err := h.Tables.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "table deleted"})
}

// Assign handles POST /v1/tables/:id/assign.  The customer is moved
// off any table they previously occupied; a customer_removed event is
// published for each old table and a customer_assigned event for the
// new one, after the move has committed.
func (h *TableHandler) Assign(c echo.Context) error {
	id, ok := tableIDParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	var body struct {
		Phone string `json:"phone"`
	}
	if err := c.Bind(&body); err != nil || body.Phone == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "phone is required"})
	}
	removed, customer, err := h.Tables.AssignCustomer(c.Request().Context(), id, body.Phone)
	if err != nil {
		return writeError(c, err)
	}
	for _, oldID := range removed {
		h.publishUpdate(queue.ActionCustomerRemoved, oldID, customer)
	}
	h.publishUpdate(queue.ActionCustomerAssigned, id, customer)

	t, err := h.Tables.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	m, err := h.tableJSON(c, *t)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

// Remove handles POST /v1/tables/:id/remove.
func (h *TableHandler) Remove(c echo.Context) error {
	id, ok := tableIDParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	var body struct {
		Phone string `json:"phone"`
	}
	if err := c.Bind(&body); err != nil || body.Phone == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "phone is required"})
	}
	customer, remaining, err := h.Tables.RemoveCustomer(c.Request().Context(), id, body.Phone)
	if err != nil {
		return writeError(c, err)
	}
	h.publishUpdate(queue.ActionCustomerRemoved, id, customer)
	return c.JSON(http.StatusOK, echo.Map{
		"message":             "customer removed from table",
		"table_id":            id,
		"remaining_customers": remaining,
	})
}

// Occupants handles GET /v1/tables/:id/customers.
func (h *TableHandler) Occupants(c echo.Context) error {
	id, ok := tableIDParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	t, err := h.Tables.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	occupants, err := h.Tables.Occupants(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"table_id":   t.ID,
		"table_name": t.Name,
		"customers":  occupants,
	})
}

// Availability handles GET /v1/tables/:id/availability.
func (h *TableHandler) Availability(c echo.Context) error {
	id, ok := tableIDParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	t, err := h.Tables.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	occupants, err := h.Tables.Occupants(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"table_id":       t.ID,
		"table_name":     t.Name,
		"is_occupied":    len(occupants) > 0,
		"customer_count": len(occupants),
	})
}

func (h *TableHandler) publishUpdate(action string, tableID uint64, customer *model.Customer) {
	h.Events.Publish(broker.TopicTableUpdates, queue.TableUpdateEvent{
		Action:  action,
		TableID: tableID,
		Customer: queue.EventCustomer{
			Name:  customer.Name,
			Phone: customer.Phone,
		},
	})
}
