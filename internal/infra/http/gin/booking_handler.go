package ginserver

import (
	"fmt"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"staybook/internal/app/commands"
	"staybook/internal/app/dto"
	bookingapp "staybook/internal/app/handlers/booking"
	"staybook/internal/app/queries"
)

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type stayRequest struct {
	CheckIn  string                   `json:"checkIn"`
	CheckOut string                   `json:"checkOut"`
	Party    dto.Party                `json:"party"`
	Rooms    []bookingapp.RoomRequest `json:"rooms"`
}

type createBookingRequest struct {
	PropertyID string `json:"propertyId"`
	GuestID    string `json:"guestId"`
	stayRequest
}

type cancelBookingRequest struct {
	Reason string `json:"reason"`
}

func (r stayRequest) toStay(propertyID string) bookingapp.StayRequest {
	return bookingapp.StayRequest{
		PropertyID: propertyID,
		CheckIn:    r.CheckIn,
		CheckOut:   r.CheckOut,
		Party:      r.Party,
		Rooms:      r.Rooms,
	}
}

// Quote prices a stay without booking it. Unbookable selections still answer
// 200 with ok=false and the reasons in errors.
func (h BookingHandler) Quote(c *gin.Context) {
	var req stayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	query := bookingapp.QuoteStayQuery{Stay: req.toStay(c.Param("id"))}
	result, err := queries.Ask[bookingapp.QuoteStayQuery, dto.StayQuote](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := bookingapp.RequestBookingCommand{
		GuestID:         req.GuestID,
		Stay:            req.toStay(req.PropertyID),
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[bookingapp.RequestBookingCommand, *bookingapp.RequestBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Header("Location", fmt.Sprintf("/api/v1/bookings/%s", result.Booking.ID))
	c.JSON(http.StatusCreated, result)
}

func (h BookingHandler) Cancel(c *gin.Context) {
	var req cancelBookingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	cmd := bookingapp.CancelBookingCommand{BookingID: c.Param("id"), Reason: req.Reason}
	result, err := commands.Dispatch[bookingapp.CancelBookingCommand, *dto.CancellationResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Get(c *gin.Context) {
	query := bookingapp.GetBookingQuery{BookingID: c.Param("id")}
	result, err := queries.Ask[bookingapp.GetBookingQuery, dto.BookingSummary](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) ListByProperty(c *gin.Context) {
	query := bookingapp.ListPropertyBookingsQuery{PropertyID: c.Param("id")}
	result, err := queries.Ask[bookingapp.ListPropertyBookingsQuery, bookingapp.BookingCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ BookingHTTP = BookingHandler{}
