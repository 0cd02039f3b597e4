package businesses

import (
	"testing"
	"time"

	"github.com/platinummonkey/brandhub/pkg/roles"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubPermissionService counts ResolvePermission calls and lets mutators
// succeed without a database.
type stubPermissionService struct {
	Service
	resolveCalls int
	perm         *UserBusinessPermission
}

func (s *stubPermissionService) ResolvePermission(userID, businessID int64) (*UserBusinessPermission, error) {
	s.resolveCalls++
	return s.perm, nil
}

func (s *stubPermissionService) UpdateMemberRole(businessID, targetUserID int64, role roles.Role, callerID int64) error {
	return nil
}

func (s *stubPermissionService) RemoveMember(businessID, targetUserID, callerID int64) error {
	return nil
}

func (s *stubPermissionService) AcceptInvitation(token string, userID int64, userEmail string) (*BusinessInvitation, error) {
	return &BusinessInvitation{BusinessID: 1, Status: InvitationAccepted}, nil
}

func newStubService() *stubPermissionService {
	return &stubPermissionService{
		perm: &UserBusinessPermission{
			BusinessID:   1,
			UserID:       2,
			Role:         roles.RoleEditor,
			Capabilities: roles.CapabilitiesFor(roles.RoleEditor),
		},
	}
}

func TestCachedServiceResolvePermission(t *testing.T) {
	stub := newStubService()
	svc := NewCachedService(stub, time.Minute)

	first, err := svc.ResolvePermission(2, 1)
	require.NoError(t, err)
	second, err := svc.ResolvePermission(2, 1)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, stub.resolveCalls, "second lookup should be served from cache")

	// Different pair misses
	_, err = svc.ResolvePermission(3, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, stub.resolveCalls)

	cached := svc.(*CachedService)
	hits, misses, entries := cached.CacheStats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(2), misses)
	assert.Equal(t, 2, entries)
}

func TestCachedServiceInvalidation(t *testing.T) {
	t.Run("role change evicts the target", func(t *testing.T) {
		stub := newStubService()
		svc := NewCachedService(stub, time.Minute)

		_, err := svc.ResolvePermission(2, 1)
		require.NoError(t, err)

		require.NoError(t, svc.UpdateMemberRole(1, 2, roles.RoleAdmin, 9))

		_, err = svc.ResolvePermission(2, 1)
		require.NoError(t, err)
		assert.Equal(t, 2, stub.resolveCalls, "eviction forces a fresh lookup")
	})

	t.Run("removal evicts the target", func(t *testing.T) {
		stub := newStubService()
		svc := NewCachedService(stub, time.Minute)

		_, err := svc.ResolvePermission(2, 1)
		require.NoError(t, err)

		require.NoError(t, svc.RemoveMember(1, 2, 9))

		_, err = svc.ResolvePermission(2, 1)
		require.NoError(t, err)
		assert.Equal(t, 2, stub.resolveCalls)
	})

	t.Run("accepted invitation evicts the new member", func(t *testing.T) {
		stub := newStubService()
		svc := NewCachedService(stub, time.Minute)

		// A cached all-false row from before joining must not survive accept.
		_, err := svc.ResolvePermission(2, 1)
		require.NoError(t, err)

		_, err = svc.AcceptInvitation("tok", 2, "casey@example.com")
		require.NoError(t, err)

		_, err = svc.ResolvePermission(2, 1)
		require.NoError(t, err)
		assert.Equal(t, 2, stub.resolveCalls)
	})
}

func TestNewCachedServiceDisabled(t *testing.T) {
	stub := newStubService()
	assert.Same(t, Service(stub), NewCachedService(stub, 0))
}
