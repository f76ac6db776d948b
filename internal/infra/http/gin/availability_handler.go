package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"staybook/internal/app/dto"
	availabilityapp "staybook/internal/app/handlers/availability"
	"staybook/internal/app/queries"
)

type AvailabilityHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

// Calendar serves the priced calendar of a property between from and to, both inclusive.
func (h AvailabilityHandler) Calendar(c *gin.Context) {
	query := availabilityapp.GetPricedCalendarQuery{
		PropertyID: c.Param("id"),
		From:       c.Query("from"),
		To:         c.Query("to"),
	}
	result, err := queries.Ask[availabilityapp.GetPricedCalendarQuery, dto.PricedCalendar](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ AvailabilityHTTP = AvailabilityHandler{}
