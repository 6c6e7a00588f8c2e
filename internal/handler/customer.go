package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tranqv/restaurant-pos/internal/model"
	"github.com/tranqv/restaurant-pos/internal/repository"
)

// CustomerHandler exposes the thin customer record endpoints the order
// engine reads from.
type CustomerHandler struct {
	Customers *repository.CustomerRepo
}

// NewCustomerHandler constructs a CustomerHandler.
func NewCustomerHandler(customers *repository.CustomerRepo) *CustomerHandler {
	if customers == nil {
		panic("nil repository passed to NewCustomerHandler")
	}
	return &CustomerHandler{Customers: customers}
}

func customerJSON(cu model.Customer) echo.Map {
	return echo.Map{
		"phone":       cu.Phone,
		"name":        cu.Name,
		"email":       cu.Email,
		"address":     cu.Address,
		"points":      cu.Points,
		"total_spent": cu.TotalSpent,
		"is_member":   cu.IsMember,
	}
}

// Login handles POST /v1/customers/login: a get-or-create keyed on the
// phone number.  An existing customer must present the name on record.
func (h *CustomerHandler) Login(c echo.Context) error {
	var body struct {
		Phone string `json:"phone"`
		Name  string `json:"name"`
	}
	if err := c.Bind(&body); err != nil || body.Phone == "" || body.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "phone and name are required"})
	}
	ctx := c.Request().Context()
	customer, err := h.Customers.GetByPhone(ctx, body.Phone)
	if errors.Is(err, repository.ErrCustomerNotFound) {
		customer = &model.Customer{Phone: body.Phone, Name: body.Name}
		if err := h.Customers.Create(ctx, customer); err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, customerJSON(*customer))
	}
	if err != nil {
		return writeError(c, err)
	}
	if customer.Name != body.Name {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "customer name does not match"})
	}
	return c.JSON(http.StatusOK, customerJSON(*customer))
}

// Points handles GET /v1/customers/:phone/points.
func (h *CustomerHandler) Points(c echo.Context) error {
	customer, err := h.Customers.GetByPhone(c.Request().Context(), c.Param("phone"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"points": customer.Points})
}

// List handles GET /v1/customers.
func (h *CustomerHandler) List(c echo.Context) error {
	customers, err := h.Customers.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	out := make([]echo.Map, 0, len(customers))
	for _, cu := range customers {
		out = append(out, customerJSON(cu))
	}
	return c.JSON(http.StatusOK, out)
}

// Create handles POST /v1/customers.
func (h *CustomerHandler) Create(c echo.Context) error {
	var body struct {
		Phone   string  `json:"phone"`
		Name    string  `json:"name"`
		Email   *string `json:"email"`
		Address *string `json:"address"`
	}
	if err := c.Bind(&body); err != nil || body.Phone == "" || body.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "phone and name are required"})
	}
	customer := model.Customer{Phone: body.Phone, Name: body.Name, Email: body.Email, Address: body.Address}
	if err := h.Customers.Create(c.Request().Context(), &customer); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, customerJSON(customer))
}
