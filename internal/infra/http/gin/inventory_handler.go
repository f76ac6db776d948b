package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"staybook/internal/app/commands"
	inventoryapp "staybook/internal/app/handlers/inventory"
)

type InventoryHandler struct {
	Commands commands.Bus
	Logger   *slog.Logger
}

type setRatesRequest struct {
	Rates []inventoryapp.DateRateInput `json:"rates"`
}

// SetRates upserts the base nightly rates of one room type.
func (h InventoryHandler) SetRates(c *gin.Context) {
	var req setRatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := inventoryapp.SetRoomRatesCommand{
		PropertyID: c.Param("id"),
		RoomTypeID: c.Param("roomTypeId"),
		Rates:      req.Rates,
	}
	result, err := commands.Dispatch[inventoryapp.SetRoomRatesCommand, *inventoryapp.SetRoomRatesResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ InventoryHTTP = InventoryHandler{}
