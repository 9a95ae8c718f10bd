package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arunsharma1203/grievance/internal/model"
)

func TestWriteServiceError(t *testing.T) {
	cases := []struct {
		err   error
		code  int
		field string
	}{
		{model.NewValidationError("value", "must be between 0 and 10"), http.StatusBadRequest, "value"},
		{fmt.Errorf("grievance 1: %w", model.ErrNotFound), http.StatusNotFound, ""},
		{fmt.Errorf("grievance 1 already exists: %w", model.ErrConflict), http.StatusConflict, ""},
		{errors.New("database is locked"), http.StatusInternalServerError, ""},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		WriteServiceError(rr, zerolog.Nop(), tc.err)
		require.Equal(t, tc.code, rr.Code, tc.err.Error())

		var body ErrorResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
		assert.False(t, body.OK)
		assert.Equal(t, tc.code, body.Code)
		assert.Equal(t, tc.field, body.Field)
		if tc.code == http.StatusInternalServerError {
			assert.NotContains(t, body.Message, "locked", "store details must not leak")
		}
	}
}

func TestWriteError_CarriesOkFalse(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, http.StatusRequestEntityTooLarge, "too big")

	var raw map[string]interface{}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&raw))
	assert.Equal(t, false, raw["ok"])
	assert.EqualValues(t, http.StatusRequestEntityTooLarge, raw["code"])
	assert.Equal(t, "too big", raw["message"])
}
