package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gathering-hub/backend/internal/apperr"
)

func TestErrorStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{apperr.Validation("title is required"), http.StatusBadRequest, "title is required"},
		{apperr.Authorization("admins only"), http.StatusForbidden, "admins only"},
		{apperr.Capacity("event is full"), http.StatusConflict, "event is full"},
		{apperr.NotFound("notice"), http.StatusNotFound, "notice not found"},
		{apperr.Backend("insert event", errors.New("pq: boom")), http.StatusInternalServerError, "insert event"},
		{errors.New("raw"), http.StatusInternalServerError, "internal error"},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		Error(c, tc.err)

		assert.Equal(t, tc.status, w.Code)
		var body Body
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.False(t, body.Success)
		assert.Equal(t, tc.msg, body.Error)
	}
}

func TestCreatedWithWarnings(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	CreatedWithWarnings(c, gin.H{"id": "x"}, []string{"notifications could not be sent"})

	assert.Equal(t, http.StatusCreated, w.Code)
	var body Body
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, []string{"notifications could not be sent"}, body.Warnings)
}
