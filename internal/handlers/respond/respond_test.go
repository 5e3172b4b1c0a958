package respond

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pg-manager/internal/apperr"
)

func newContext(target string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	ctx.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return ctx, w
}

type envelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	RequestID string `json:"request_id"`
}

func TestErrorEnvelope(t *testing.T) {
	ctx, w := newContext("/")
	ctx.Set(RequestIDKey, "req-1")

	Error(ctx, apperr.Conflict("room is fully occupied"))

	assert.Equal(t, http.StatusConflict, w.Code)
	var body envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "CONFLICT", body.Error.Code)
	assert.Equal(t, "room is fully occupied", body.Error.Message)
	assert.Equal(t, "req-1", body.RequestID)
	assert.True(t, ctx.IsAborted())
}

func TestErrorHidesInternalDetails(t *testing.T) {
	ctx, w := newContext("/")

	Error(ctx, errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "INTERNAL_ERROR", body.Error.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestParsePage(t *testing.T) {
	ctx, _ := newContext("/rooms")
	page, err := ParsePage(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, page.Offset)
	assert.Equal(t, DefaultLimit, page.Limit)

	ctx, _ = newContext("/rooms?skip=20&limit=10000")
	page, err = ParsePage(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, page.Offset)
	assert.Equal(t, MaxLimit, page.Limit)

	for _, q := range []string{"skip=-1", "skip=x", "limit=0", "limit=abc"} {
		ctx, _ = newContext("/rooms?" + q)
		_, err = ParsePage(ctx)
		assert.True(t, apperr.Is(err, apperr.KindValidation), q)
	}
}

func TestParseID(t *testing.T) {
	ctx, _ := newContext("/")
	ctx.Params = gin.Params{{Key: "id", Value: "42"}}
	id, err := ParseID(ctx, "id")
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	ctx.Params = gin.Params{{Key: "id", Value: "0"}}
	_, err = ParseID(ctx, "id")
	assert.Error(t, err)
}

func TestParseOptionalQueries(t *testing.T) {
	ctx, _ := newContext("/?available=true&tenant_id=7")
	b, err := ParseBool(ctx, "available")
	require.NoError(t, err)
	assert.True(t, *b)
	id, err := ParseUintQuery(ctx, "tenant_id")
	require.NoError(t, err)
	assert.Equal(t, uint(7), *id)

	none, err := ParseBool(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, none)

	ctx, _ = newContext("/?available=maybe")
	_, err = ParseBool(ctx, "available")
	assert.Error(t, err)
}
