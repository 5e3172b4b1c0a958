package rooms_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pg-manager/internal/handlers/rooms"
	"pg-manager/internal/models"
	"pg-manager/internal/services"
	"pg-manager/internal/stores"
	"pg-manager/internal/testdb"
)

func newRouter(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := rooms.NewRoomHandler(services.NewRoomService(services.Base{}, &stores.GormRoomStore{DB: testdb.New(t)}))

	r := gin.New()
	r.GET("/rooms", h.List)
	r.GET("/rooms/available", h.Available)
	r.GET("/rooms/occupied", h.Occupied)
	r.GET("/rooms/:id", h.Get)
	r.POST("/rooms", h.Create)
	r.PUT("/rooms/:id", h.Update)
	r.DELETE("/rooms/:id", h.Delete)
	return r
}

func send(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func create(t *testing.T, r http.Handler, number string) models.Room {
	t.Helper()
	w := send(r, http.MethodPost, "/rooms", map[string]interface{}{
		"room_number": number, "room_type": "Double", "capacity": 2, "monthly_rent": 4000,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var room models.Room
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &room))
	return room
}

func TestCreateAndList(t *testing.T) {
	r := newRouter(t)
	for _, n := range []string{"103", "101", "102"} {
		create(t, r, n)
	}

	w := send(r, http.MethodGet, "/rooms?skip=1&limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page []models.Room
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Len(t, page, 1)
	assert.Equal(t, "102", page[0].RoomNumber)
	assert.True(t, page[0].Available)

	assert.Equal(t, http.StatusBadRequest, send(r, http.MethodGet, "/rooms?limit=0", nil).Code)
	assert.Equal(t, http.StatusBadRequest, send(r, http.MethodGet, "/rooms?available=maybe", nil).Code)

	w = send(r, http.MethodGet, "/rooms/occupied", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestCreateValidation(t *testing.T) {
	r := newRouter(t)
	create(t, r, "101")

	w := send(r, http.MethodPost, "/rooms", map[string]interface{}{
		"room_number": "101", "room_type": "Double", "capacity": 2, "monthly_rent": 4000,
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = send(r, http.MethodPost, "/rooms", map[string]interface{}{
		"room_number": "102", "room_type": "Suite", "capacity": 2,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = send(r, http.MethodPost, "/rooms", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateAndDelete(t *testing.T) {
	r := newRouter(t)
	room := create(t, r, "201")
	path := fmt.Sprintf("/rooms/%d", room.ID)

	w := send(r, http.MethodPut, path, map[string]interface{}{"monthly_rent": 4500})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated models.Room
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, 4500.0, updated.MonthlyRent)
	assert.Equal(t, "201", updated.RoomNumber)

	w = send(r, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	assert.Equal(t, http.StatusNotFound, send(r, http.MethodGet, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, send(r, http.MethodDelete, path, nil).Code)
	assert.Equal(t, http.StatusBadRequest, send(r, http.MethodGet, "/rooms/zero", nil).Code)
}
