package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gcc-pulse-api/internal/access"
)

func newTestManager(t *testing.T) (*Manager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	manager := NewManager(Config{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	}, NewRedisRevocationStore(client))
	return manager, mr
}

func TestIssueAndVerify(t *testing.T) {
	manager, _ := newTestManager(t)
	identity := access.Identity{ID: "user-1", Email: "panel@example.com", Role: access.RolePanelist}

	tokens, err := manager.Issue(identity)
	require.NoError(t, err)
	require.NotEmpty(t, tokens.AccessToken)
	require.NotEqual(t, tokens.AccessToken, tokens.RefreshToken)

	resolved, err := manager.Verify(context.Background(), tokens.AccessToken)
	require.NoError(t, err)
	require.Equal(t, identity, resolved)
}

func TestVerifyRejectsRefreshTokenAndGarbage(t *testing.T) {
	manager, _ := newTestManager(t)
	tokens, err := manager.Issue(access.Identity{ID: "user-1", Role: access.RoleApplicant})
	require.NoError(t, err)

	_, err = manager.Verify(context.Background(), tokens.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = manager.Verify(context.Background(), "not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = manager.Verify(context.Background(), "")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	manager, _ := newTestManager(t)
	tokens, err := manager.Issue(access.Identity{ID: "user-1", Role: access.RoleApplicant})
	require.NoError(t, err)

	manager.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = manager.Verify(context.Background(), tokens.AccessToken)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestUnknownRoleClaimDegradesToApplicant(t *testing.T) {
	manager, _ := newTestManager(t)
	tokens, err := manager.Issue(access.Identity{ID: "user-1", Role: access.Role("owner")})
	require.NoError(t, err)

	resolved, err := manager.Verify(context.Background(), tokens.AccessToken)
	require.NoError(t, err)
	require.Equal(t, access.RoleApplicant, resolved.Role)
}

func TestRevokeSignsOutToken(t *testing.T) {
	manager, mr := newTestManager(t)
	tokens, err := manager.Issue(access.Identity{ID: "user-1", Role: access.RoleRecruitingAdmin})
	require.NoError(t, err)

	require.NoError(t, manager.Revoke(context.Background(), tokens.AccessToken))

	_, err = manager.Verify(context.Background(), tokens.AccessToken)
	require.ErrorIs(t, err, ErrRevokedToken)
	require.Len(t, mr.Keys(), 1)
}

func TestRefreshRotatesPair(t *testing.T) {
	manager, _ := newTestManager(t)
	identity := access.Identity{ID: "user-1", Email: "admin@example.com", Role: access.RoleSuperAdmin}
	tokens, err := manager.Issue(identity)
	require.NoError(t, err)

	next, resolved, err := manager.Refresh(context.Background(), tokens.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, identity, resolved)
	require.NotEqual(t, tokens.RefreshToken, next.RefreshToken)

	_, _, err = manager.Refresh(context.Background(), tokens.RefreshToken)
	require.ErrorIs(t, err, ErrRevokedToken)
}

func TestRevocationStoreFailureSurfaces(t *testing.T) {
	manager, mr := newTestManager(t)
	tokens, err := manager.Issue(access.Identity{ID: "user-1", Role: access.RoleApplicant})
	require.NoError(t, err)

	mr.SetError("connection refused")
	_, err = manager.Verify(context.Background(), tokens.AccessToken)
	require.Error(t, err)
}
