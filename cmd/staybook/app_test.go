package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/app/dto"
	bookingapp "staybook/internal/app/handlers/booking"
	"staybook/internal/domain/inventory"
	"staybook/internal/domain/shared/money"
	"staybook/internal/infra/config"
	ginserver "staybook/internal/infra/http/gin"
	"staybook/internal/infra/obs"
)

type apiClient struct {
	t      *testing.T
	router http.Handler
}

func (c apiClient) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func newTestAPI(t *testing.T) apiClient {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := config.Config{
		Env:                  "test",
		IdempotencyTTL:       time.Hour,
		CalendarCacheTTL:     time.Minute,
		CancelFreeDays:       7,
		CancelPenaltyPercent: 50,
	}
	logger := discardLogger()
	metrics := obs.NewMetrics()
	infra, err := buildInfrastructure(context.Background(), cfg, logger, metrics)
	require.NoError(t, err)
	t.Cleanup(func() { infra.close(logger) })

	property := &inventory.Property{
		ID:       "prop-1",
		Name:     "Lakeside",
		Currency: "INR",
		RoomTypes: []inventory.RoomType{{
			ID:        "std",
			Name:      "Standard",
			BasePrice: money.Must(200000, "INR"),
			Occupancy: 2,
			Rooms:     []inventory.Room{{ID: "std-1", Number: "1"}},
		}},
	}
	imported, err := storeFixture(context.Background(), infra.factory, property, nil)
	require.NoError(t, err)
	require.True(t, imported)

	app := buildApplication(cfg, infra, metrics, logger)
	router := ginserver.NewRouter(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{Checks: infra.checks}, app.handlers)
	return apiClient{t: t, router: router}
}

func day(offset int) string {
	return time.Now().UTC().AddDate(0, 0, offset).Format(time.DateOnly)
}

func TestBookingFlowOverHTTP(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodPut, "/api/v1/properties/prop-1/room-types/std/rates", gin.H{"rates": []gin.H{
		{"date": day(30), "price": 2000},
		{"date": day(31), "price": 2000},
		{"date": day(32), "price": 2000},
	}}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(http.MethodPost, "/api/v1/properties/prop-1/special-rates", gin.H{
		"name":        "Early bird",
		"kind":        "offer",
		"pricingMode": "percent",
		"percentAdj":  10,
		"dateFrom":    day(30),
		"dateTo":      day(31),
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rate := decode[dto.SpecialRate](t, rec)
	assert.Equal(t, "/api/v1/properties/prop-1/special-rates/"+rate.ID, rec.Header().Get("Location"))

	rec = api.do(http.MethodGet, "/api/v1/properties/prop-1/calendar?from="+day(30)+"&to="+day(32), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cal := decode[dto.PricedCalendar](t, rec)
	require.Len(t, cal.Days, 3)
	assert.Equal(t, "1800.00", cal.Days[0].RoomType[0].Rate[0].FinalPrice.String())
	assert.Equal(t, "2000.00", cal.Days[2].RoomType[0].Rate[0].FinalPrice.String())

	stay := gin.H{
		"checkIn":  day(30),
		"checkOut": day(32),
		"party":    gin.H{"adults": 2},
		"rooms":    []gin.H{{"roomTypeId": "std", "count": 1}},
	}
	rec = api.do(http.MethodPost, "/api/v1/properties/prop-1/quotes", stay, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	quote := decode[dto.StayQuote](t, rec)
	assert.True(t, quote.OK)
	assert.Equal(t, "3600.00", quote.Totals.GrandTotalWithMeals.String())

	booking := gin.H{"propertyId": "prop-1", "guestId": "guest-1"}
	for k, v := range stay {
		booking[k] = v
	}
	idem := map[string]string{"Idempotency-Key": "req-1"}
	rec = api.do(http.MethodPost, "/api/v1/bookings", booking, idem)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[bookingapp.RequestBookingResult](t, rec)
	assert.Equal(t, "CONFIRMED", created.Booking.Status)
	assert.Equal(t, "/api/v1/bookings/"+created.Booking.ID, rec.Header().Get("Location"))

	rec = api.do(http.MethodPost, "/api/v1/bookings", booking, idem)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, created.Booking.ID, decode[bookingapp.RequestBookingResult](t, rec).Booking.ID)

	booking["guestId"] = "guest-2"
	rec = api.do(http.MethodPost, "/api/v1/bookings", booking, idem)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(http.MethodPost, "/api/v1/bookings", booking, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"quote"`)

	rec = api.do(http.MethodDelete, "/api/v1/properties/prop-1/special-rates/"+rate.ID, nil, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(http.MethodGet, "/api/v1/properties/prop-1/bookings", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[bookingapp.BookingCollection](t, rec).Items, 1)

	rec = api.do(http.MethodPost, "/api/v1/bookings/"+created.Booking.ID+"/cancel", gin.H{"reason": "change of plans"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cancelled := decode[dto.CancellationResult](t, rec)
	assert.Equal(t, "CANCELLED", cancelled.Status)
	assert.Equal(t, "3600.00", cancelled.Refund.String())

	rec = api.do(http.MethodPost, "/api/v1/bookings/"+created.Booking.ID+"/cancel", nil, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(http.MethodGet, "/api/v1/bookings/"+created.Booking.ID, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "CANCELLED", decode[dto.BookingSummary](t, rec).Status)

	rec = api.do(http.MethodDelete, "/api/v1/properties/prop-1/special-rates/"+rate.ID, nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSpecialRateLifecycleOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	body := gin.H{
		"name":        "Festive peak",
		"kind":        "peak",
		"pricingMode": "flat",
		"flatPrice":   500,
		"dateFrom":    day(10),
		"dateTo":      day(20),
		"roomTypeLinks": []gin.H{
			{"roomTypeId": "std"},
		},
	}
	rec := api.do(http.MethodPost, "/api/v1/properties/prop-1/special-rates", body, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decode[dto.SpecialRate](t, rec).ID
	base := "/api/v1/properties/prop-1/special-rates/" + id

	body["priority"] = 7
	rec = api.do(http.MethodPut, base, body, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 7, decode[dto.SpecialRate](t, rec).Priority)

	rec = api.do(http.MethodPost, base+"/deactivate", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[dto.SpecialRate](t, rec).Active)
	rec = api.do(http.MethodPost, base+"/activate", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[dto.SpecialRate](t, rec).Active)

	rec = api.do(http.MethodGet, "/api/v1/properties/prop-1/special-rates", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[dto.SpecialRateCollection](t, rec).Items, 1)

	rec = api.do(http.MethodPut, "/api/v1/properties/prop-1/special-rates/missing", body, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	body["kind"] = "bogus"
	rec = api.do(http.MethodPost, "/api/v1/properties/prop-1/special-rates", body, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodDelete, base, nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = api.do(http.MethodDelete, base, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestErrorMappingAndOperationalRoutes(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/api/v1/properties/prop-1/calendar?from=bad&to="+day(2), nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = api.do(http.MethodGet, "/api/v1/properties/nope/calendar?from="+day(1)+"&to="+day(2), nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = api.do(http.MethodGet, "/api/v1/bookings/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/properties/prop-1/quotes", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	raw := httptest.NewRecorder()
	api.router.ServeHTTP(raw, req)
	assert.Equal(t, http.StatusBadRequest, raw.Code)

	rec = api.do(http.MethodGet, "/livez", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = api.do(http.MethodGet, "/readyz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = api.do(http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "staybook_bus_messages_total")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
