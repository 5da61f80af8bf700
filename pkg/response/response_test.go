package response

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrudenko/user-management-api/pkg/result"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusOK, StatusFor(result.KindSuccess))
	assert.Equal(t, http.StatusCreated, StatusFor(result.KindSuccessCreate))
	assert.Equal(t, http.StatusBadRequest, StatusFor(result.KindFailure))
	assert.Equal(t, http.StatusNotFound, StatusFor(result.KindNotFound))
	assert.Panics(t, func() { StatusFor(result.Kind(42)) })
}

func serve(r result.Result[string]) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router := gin.New()
	router.GET("/", func(c *gin.Context) { FromResult(c, r, "done") })
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	return w
}

func TestFromResultSuccess(t *testing.T) {
	w := serve(result.Success("payload"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":true`)
	assert.Contains(t, w.Body.String(), `"data":"payload"`)
	assert.Contains(t, w.Body.String(), `"message":"done"`)
}

func TestFromResultCreated(t *testing.T) {
	w := serve(result.SuccessCreate("payload"))
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestFromResultFailure(t *testing.T) {
	w := serve(result.Failure[string]("bad input"))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
	assert.Contains(t, w.Body.String(), `"message":"bad input"`)
}

func TestFromResultNotFound(t *testing.T) {
	w := serve(result.NotFound[string]("missing"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
