package controllers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"talktrack-backend/logging"
	"talktrack-backend/services"
	"talktrack-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRespondErrorStatus(t *testing.T) {
	h := &Handler{Logger: logging.NewWithWriter(&bytes.Buffer{}, "error")}
	tests := []struct {
		err    error
		status int
	}{
		{&services.ValidationError{Message: "bad", Fields: map[string]string{"name": "required"}}, http.StatusBadRequest},
		{services.ErrUnauthenticated, http.StatusUnauthorized},
		{services.ErrInvalidCredentials, http.StatusUnauthorized},
		{services.ErrNotFound, http.StatusNotFound},
		{services.ErrFormNotPublished, http.StatusNotFound},
		{services.ErrConflict, http.StatusConflict},
		{services.ErrFormPublished, http.StatusConflict},
		{services.ErrInvalidTransition, http.StatusConflict},
		{fmt.Errorf("wrapped: %w", services.ErrAlreadySubmitted), http.StatusConflict},
		{storage.ErrTooLarge, http.StatusBadRequest},
		{storage.ErrDisabled, http.StatusServiceUnavailable},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		h.respondError(c, tt.err)
		assert.Equal(t, tt.status, w.Code, tt.err.Error())
	}
}

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	h := &Handler{Logger: logging.NewWithWriter(&bytes.Buffer{}, "error")}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	h.respondError(c, errors.New("pq: password authentication failed"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Something went wrong", body["error"])
}

func TestUpdateContentInputText(t *testing.T) {
	inline := UpdateContentInput{Content: json.RawMessage(`[{"id":"a","type":"TextField"}]`)}
	s, ok := inline.text()
	require.True(t, ok)
	assert.Equal(t, `[{"id":"a","type":"TextField"}]`, s)

	quoted := UpdateContentInput{Content: json.RawMessage(`"[]"`)}
	s, ok = quoted.text()
	require.True(t, ok)
	assert.Equal(t, "[]", s)

	_, ok = UpdateContentInput{Content: json.RawMessage(`"unterminated`)}.text()
	assert.False(t, ok)
}
