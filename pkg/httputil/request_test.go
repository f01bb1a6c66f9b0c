package httputil

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON(t *testing.T) {
	req := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"username":"alice"}`))

	var dest struct {
		Username string `json:"username"`
	}
	require.NoError(t, ParseJSON(req, &dest))
	assert.Equal(t, "alice", dest.Username)
}

func TestParseJSONOrError(t *testing.T) {
	req := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{broken`))
	w := httptest.NewRecorder()

	var dest map[string]string
	ok := ParseJSONOrError(w, req, &dest)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid JSON")
}

func TestParsePathString(t *testing.T) {
	router := mux.NewRouter()
	var got string
	router.HandleFunc("/users/{username}", func(w http.ResponseWriter, r *http.Request) {
		name, err := ParsePathString(r, "username")
		require.NoError(t, err)
		got = name
	})

	req := httptest.NewRequest("GET", "/users/alice", nil)
	router.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "alice", got)
}

func TestParsePathString_Missing(t *testing.T) {
	req := httptest.NewRequest("GET", "/users", nil)
	_, err := ParsePathString(req, "username")
	assert.Error(t, err)
}
