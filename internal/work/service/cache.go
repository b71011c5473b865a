package service

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"tbt/internal/work/models"
)

const (
	certificateCacheSize = 1024
	certificateCacheTTL  = 30 * time.Second
)

// certificateCache keeps recent public lookups. Ownership changes evict the
// entry; the TTL bounds staleness across instances.
type certificateCache struct {
	lru *expirable.LRU[string, models.Certificate]
}

func newCertificateCache(size int, ttl time.Duration) *certificateCache {
	return &certificateCache{lru: expirable.NewLRU[string, models.Certificate](size, nil, ttl)}
}

func (c *certificateCache) get(tbtID string) (models.Certificate, bool) {
	return c.lru.Get(tbtID)
}

func (c *certificateCache) put(cert models.Certificate) {
	c.lru.Add(cert.TBTID, cert)
}

func (c *certificateCache) evict(tbtID string) {
	c.lru.Remove(tbtID)
}
