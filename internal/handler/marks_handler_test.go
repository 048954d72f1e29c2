package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestMarksHandlerSheetRequiresKindAndArtifact(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewMarksHandler(nil, nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/assignments/asg-1/marks?kind=essay", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "asg-1"}}

	handler.Sheet(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
