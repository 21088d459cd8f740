package handler

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/complaint-desk/internal/middleware"
	"github.com/noah-isme/complaint-desk/internal/models"
)

type responseEnvelope struct {
	Data  json.RawMessage        `json:"data"`
	Error map[string]interface{} `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

var (
	studentClaims = &models.SessionClaims{AccountID: "s1", Role: models.RoleStudent, Name: "Asha Rao", Email: "asha@college.edu", StudentID: "S-101"}
	staffClaims   = &models.SessionClaims{AccountID: "a1", Role: models.RoleAdmin, Name: "Warden Iyer", Email: "iyer@college.edu", Department: models.DepartmentHostel}
)

func newTestContext(method, target, body string, claims *models.SessionClaims) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	c.Request = httptest.NewRequest(method, target, reader)
	if body != "" {
		c.Request.Header.Set("Content-Type", "application/json")
	}
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var env responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func decodeData(t *testing.T, env responseEnvelope, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, out))
}

func errorCode(env responseEnvelope) string {
	if env.Error == nil {
		return ""
	}
	code, _ := env.Error["code"].(string)
	return code
}
