package redis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/app/dto"
	"staybook/internal/app/policies"
)

var testKey = policies.CalendarKey{PropertyID: "prop-1", Version: 3, From: "2025-09-25", To: "2025-09-30"}

func testCalendar() dto.PricedCalendar {
	return dto.PricedCalendar{
		PropertyID: "prop-1",
		From:       "2025-09-25",
		To:         "2025-09-30",
		Days:       []dto.CalendarDay{{Date: "2025-09-25", RoomType: []dto.CalendarRoomType{}}},
	}
}

func TestCalendarCacheSetIndexesEntry(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewCalendarCache(db, 5*time.Minute)
	payload, err := json.Marshal(testCalendar())
	require.NoError(t, err)

	mock.ExpectSet("staybook:calendar:prop-1:v3:2025-09-25:2025-09-30", payload, 5*time.Minute).SetVal("OK")
	mock.ExpectSAdd("staybook:calendar:index:prop-1", "staybook:calendar:prop-1:v3:2025-09-25:2025-09-30").SetVal(1)
	mock.ExpectExpire("staybook:calendar:index:prop-1", 5*time.Minute).SetVal(true)

	require.NoError(t, cache.Set(context.Background(), testKey, testCalendar()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCalendarCacheGet(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewCalendarCache(db, time.Minute)
	payload, err := json.Marshal(testCalendar())
	require.NoError(t, err)

	mock.ExpectGet("staybook:calendar:prop-1:v3:2025-09-25:2025-09-30").SetVal(string(payload))
	cal, ok, err := cache.Get(context.Background(), testKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, testCalendar(), cal)

	mock.ExpectGet("staybook:calendar:prop-1:v3:2025-09-25:2025-09-30").RedisNil()
	_, ok, err = cache.Get(context.Background(), testKey)
	require.NoError(t, err)
	assert.False(t, ok)

	mock.ExpectGet("staybook:calendar:prop-1:v3:2025-09-25:2025-09-30").SetVal("{broken")
	_, ok, err = cache.Get(context.Background(), testKey)
	require.NoError(t, err)
	assert.False(t, ok)

	mock.ExpectGet("staybook:calendar:prop-1:v3:2025-09-25:2025-09-30").SetErr(errors.New("connection refused"))
	_, _, err = cache.Get(context.Background(), testKey)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCalendarCacheInvalidateProperty(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewCalendarCache(db, time.Minute)

	mock.ExpectSMembers("staybook:calendar:index:prop-1").SetVal([]string{
		"staybook:calendar:prop-1:v3:2025-09-25:2025-09-30",
		"staybook:calendar:prop-1:v4:2025-10-01:2025-10-31",
	})
	mock.ExpectDel(
		"staybook:calendar:prop-1:v3:2025-09-25:2025-09-30",
		"staybook:calendar:prop-1:v4:2025-10-01:2025-10-31",
		"staybook:calendar:index:prop-1",
	).SetVal(3)

	require.NoError(t, cache.InvalidateProperty(context.Background(), "prop-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
