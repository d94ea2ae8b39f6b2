package apperror

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldErrors_CollectsAll(t *testing.T) {
	fe := FieldErrors{}
	require.NoError(t, fe.Err())

	fe.Add("companyId", "company is required")
	fe.Add("clientId", "customer is required")
	fe.Add("companyId", "ignored second message")

	err := fe.Err()
	require.Error(t, err)

	fields := FieldErrorsOf(err)
	assert.Equal(t, "company is required", fields["companyId"])
	assert.Equal(t, "customer is required", fields["clientId"])
	assert.Equal(t, []string{"clientId", "companyId"}, fe.Fields())
	assert.Equal(t, http.StatusBadRequest, GetHTTPStatus(err))
}

func TestHasCode_ThroughWrapping(t *testing.T) {
	err := fmt.Errorf("create document: %w", NewDuplicate("document", "number", "INV-2026-00001"))

	assert.True(t, IsDuplicate(err))
	assert.False(t, IsNotFound(err))
	assert.Equal(t, http.StatusConflict, GetHTTPStatus(err))
}

func TestGetHTTPStatus_UnknownError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(fmt.Errorf("boom")))
}

func TestNewInvalidTransition(t *testing.T) {
	err := NewInvalidTransition("issued", "draft")
	assert.Equal(t, CodeInvalidTransition, err.Code)
	assert.Equal(t, "issued", err.Details["from"])
	assert.Contains(t, err.Error(), "issued to draft")
}
