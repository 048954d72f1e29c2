package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestAnnotationHandlerRejectsUnknownSection(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAnnotationHandler(nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/artifacts/code/code-1/annotations/bogus", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "code-1"}, {Key: "section", Value: "bogus"}}

	handler.Get(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnnotationHandlerAddInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAnnotationHandler(nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/artifacts/code/code-1/annotations/evaluator", bytes.NewReader([]byte(`invalid`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "code-1"}, {Key: "section", Value: "evaluator"}}

	handler.Add(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
