package businesses

import (
	"fmt"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/platinummonkey/brandhub/pkg/roles"
)

// permissionCacheEntries bounds the LRU. Resolved permission rows are tiny,
// so the bound is generous.
const permissionCacheEntries = 4096

// CachedService wraps a Service with a short-TTL LRU over ResolvePermission.
// Permission resolution runs on every authorized request, so even a small TTL
// removes most of the per-request database load. Membership mutations
// invalidate the affected entry so role changes take effect immediately on
// this instance; other instances converge within the TTL.
type CachedService struct {
	Service
	cache *lru.LRU[string, *UserBusinessPermission]

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCachedService wraps svc with a permission-resolution cache using the
// given TTL. A non-positive TTL returns svc unwrapped.
func NewCachedService(svc Service, ttl time.Duration) Service {
	if ttl <= 0 {
		return svc
	}
	return &CachedService{
		Service: svc,
		cache:   lru.NewLRU[string, *UserBusinessPermission](permissionCacheEntries, nil, ttl),
	}
}

func permissionKey(userID, businessID int64) string {
	return fmt.Sprintf("%d:%d", businessID, userID)
}

// ResolvePermission serves from cache when possible. All-false rows for
// non-members are cached too; they are the common case for public traffic.
func (c *CachedService) ResolvePermission(userID, businessID int64) (*UserBusinessPermission, error) {
	key := permissionKey(userID, businessID)

	if perm, ok := c.cache.Get(key); ok {
		c.hits.Add(1)
		return perm, nil
	}
	c.misses.Add(1)

	perm, err := c.Service.ResolvePermission(userID, businessID)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, perm)
	return perm, nil
}

func (c *CachedService) UpdateMemberRole(businessID, targetUserID int64, role roles.Role, callerID int64) error {
	err := c.Service.UpdateMemberRole(businessID, targetUserID, role, callerID)
	if err == nil {
		c.cache.Remove(permissionKey(targetUserID, businessID))
	}
	return err
}

func (c *CachedService) RemoveMember(businessID, targetUserID, callerID int64) error {
	err := c.Service.RemoveMember(businessID, targetUserID, callerID)
	if err == nil {
		c.cache.Remove(permissionKey(targetUserID, businessID))
	}
	return err
}

func (c *CachedService) AcceptInvitation(token string, userID int64, userEmail string) (*BusinessInvitation, error) {
	invitation, err := c.Service.AcceptInvitation(token, userID, userEmail)
	if err == nil {
		// The new member may have a cached all-false row from browsing
		// the business before joining.
		c.cache.Remove(permissionKey(userID, invitation.BusinessID))
	}
	return invitation, err
}

func (c *CachedService) ReviewAccessRequest(businessID, requestID, callerID int64, decision ReviewDecision) (*BusinessAccessRequest, error) {
	request, err := c.Service.ReviewAccessRequest(businessID, requestID, callerID, decision)
	if err == nil && request.Status == AccessRequestApproved {
		c.cache.Remove(permissionKey(request.UserID, businessID))
	}
	return request, err
}

func (c *CachedService) DeleteBusiness(id int64, callerID int64) error {
	err := c.Service.DeleteBusiness(id, callerID)
	if err == nil {
		// Keys cannot be pattern-matched out of the LRU, so drop everything.
		c.cache.Purge()
	}
	return err
}

// CacheStats reports hit/miss counters and the current entry count.
func (c *CachedService) CacheStats() (hits, misses int64, entries int) {
	return c.hits.Load(), c.misses.Load(), c.cache.Len()
}
