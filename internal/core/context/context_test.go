package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCompanyAccess(t *testing.T) {
	ctx := context.Background()
	assert.False(t, HasCompanyAccess(ctx, "c1"), "anonymous users have no access")

	restricted := WithUser(ctx, &UserContext{UserID: "u1", CompanyIDs: []string{"c1"}})
	assert.True(t, HasCompanyAccess(restricted, "c1"))
	assert.False(t, HasCompanyAccess(restricted, "c2"))

	admin := WithUser(ctx, &UserContext{UserID: "u2", IsAdmin: true, CompanyIDs: []string{"c1"}})
	assert.True(t, HasCompanyAccess(admin, "c2"))

	unrestricted := WithUser(ctx, &UserContext{UserID: "u3"})
	assert.True(t, HasCompanyAccess(unrestricted, "c9"))
}

func TestTraceRoundTrip(t *testing.T) {
	tc := NewTraceContext()
	ctx := WithTrace(context.Background(), tc)

	assert.Equal(t, tc.RequestID, GetRequestID(ctx))
	assert.Equal(t, "", GetRequestID(context.Background()))
	assert.Equal(t, "u1", GetUserID(WithUser(ctx, &UserContext{UserID: "u1"})))
}

func TestHasAnyRole(t *testing.T) {
	assert.False(t, HasAnyRole(context.Background(), "accountant"))

	ctx := WithUser(context.Background(), &UserContext{UserID: "u-1", Roles: []string{"accountant"}})
	assert.True(t, HasAnyRole(ctx, "approver", "accountant"))
	assert.False(t, HasAnyRole(ctx, "approver"))

	admin := WithUser(context.Background(), &UserContext{UserID: "root", IsAdmin: true})
	assert.True(t, HasAnyRole(admin, "approver"))
}
