package tag

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postSuggest(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/tags/suggest", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.Suggest(w, req)
	return w
}

func TestSuggestEndpoint_FiltersAcceptedTags(t *testing.T) {
	h := NewHandler(StaticSuggester{"Backend", "api", "bad tag", "auth"}, time.Second)

	w := postSuggest(t, h, `{"description":"implemented the login page","tags":["backend"]}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Suggestions []string `json:"suggestions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"api", "auth"}, resp.Suggestions)
}

func TestSuggestEndpoint_ShortDescription(t *testing.T) {
	h := NewHandler(StaticSuggester{"anything"}, time.Second)

	w := postSuggest(t, h, `{"description":"short"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Suggestions []string `json:"suggestions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Suggestions)
}

func TestSuggestEndpoint_UpstreamFailureDowngrades(t *testing.T) {
	failing := SuggesterFunc(func(context.Context, string) ([]string, error) {
		return nil, errors.New("model unavailable")
	})
	h := NewHandler(failing, time.Second)

	w := postSuggest(t, h, `{"description":"a long enough description"}`)
	require.Equal(t, http.StatusOK, w.Code, "suggestion failures are not surfaced as errors")

	var resp struct {
		Suggestions []string `json:"suggestions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Suggestions)
}

func TestSuggestEndpoint_MethodNotAllowed(t *testing.T) {
	h := NewHandler(StaticSuggester{}, time.Second)
	req := httptest.NewRequest(http.MethodGet, "/api/tags/suggest", nil)
	w := httptest.NewRecorder()
	h.Suggest(w, req)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
