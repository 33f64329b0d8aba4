package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dave11k/flow-roll-app-sub001/internal/handler"
	"github.com/dave11k/flow-roll-app-sub001/internal/model"
)

func TestProfileHandlerGetDefault(t *testing.T) {
	stack := newTestStack(t)
	h := handler.NewProfileHandler(stack.store, stack.logger)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
	rr := httptest.NewRecorder()

	h.HandleGet(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var got model.UserProfile
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	assert.Equal(t, model.BeltWhite, got.BeltRank)
	assert.Zero(t, got.Stripes)
}

func TestProfileHandlerPut(t *testing.T) {
	stack := newTestStack(t)
	h := handler.NewProfileHandler(stack.store, stack.logger)

	body := `{"name":"Dave","beltRank":"purple","stripes":2}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/profile", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()

	h.HandlePut(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var got model.UserProfile
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	assert.Equal(t, model.BeltPurple, got.BeltRank)
	assert.Equal(t, 2, got.Stripes)
}

func TestProfileHandlerPutInvalidReverts(t *testing.T) {
	stack := newTestStack(t)
	h := handler.NewProfileHandler(stack.store, stack.logger)

	body := `{"beltRank":"purple","stripes":9}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/profile", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()

	h.HandlePut(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)

	// The store was reconciled back to the persisted profile.
	getRR := httptest.NewRecorder()
	h.HandleGet(getRR, httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil))
	require.Equal(t, http.StatusOK, getRR.Code)
	var got model.UserProfile
	require.NoError(t, json.NewDecoder(getRR.Body).Decode(&got))
	assert.Equal(t, model.BeltWhite, got.BeltRank)
}
