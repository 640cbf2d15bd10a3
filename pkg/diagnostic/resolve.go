// SPDX-FileCopyrightText: 2026 The pathwatch authors
//
// SPDX-License-Identifier: Apache-2.0

package diagnostic

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// Resolver is the reverse-DNS capability used to enrich hops and resolve
// diagnostic targets.
type Resolver interface {
	LookupAddr(ctx context.Context, addr string) ([]string, error)
	LookupHost(ctx context.Context, addr string) ([]string, error)
}

type resolver struct {
	*net.Resolver
}

// NewResolver creates a new resolver backed by the pure-Go stub resolver.
func NewResolver() Resolver {
	return &resolver{
		Resolver: &net.Resolver{
			PreferGo: true,
		},
	}
}

// defaultCacheTTL bounds how long resolved names are reused. Hop addresses
// repeat on every run of a continuous session, so even a short TTL removes
// almost all lookup traffic.
const defaultCacheTTL = 5 * time.Minute

type cachingResolver struct {
	inner Resolver
	cache *ttlcache.Cache[string, []string]
}

// NewCachingResolver wraps a resolver with a TTL-bounded name cache.
// A ttl of zero falls back to the default of five minutes.
func NewCachingResolver(inner Resolver, ttl time.Duration) Resolver {
	if ttl == 0 {
		ttl = defaultCacheTTL
	}
	cache := ttlcache.New[string, []string](
		ttlcache.WithTTL[string, []string](ttl),
		ttlcache.WithDisableTouchOnHit[string, []string](),
	)
	go cache.Start()
	return &cachingResolver{inner: inner, cache: cache}
}

func (r *cachingResolver) LookupAddr(ctx context.Context, addr string) ([]string, error) {
	if item := r.cache.Get("addr:" + addr); item != nil {
		return item.Value(), nil
	}
	names, err := r.inner.LookupAddr(ctx, addr)
	if err != nil {
		return nil, err
	}
	r.cache.Set("addr:"+addr, names, ttlcache.DefaultTTL)
	return names, nil
}

func (r *cachingResolver) LookupHost(ctx context.Context, host string) ([]string, error) {
	if item := r.cache.Get("host:" + host); item != nil {
		return item.Value(), nil
	}
	addrs, err := r.inner.LookupHost(ctx, host)
	if err != nil {
		return nil, err
	}
	r.cache.Set("host:"+host, addrs, ttlcache.DefaultTTL)
	return addrs, nil
}

// Resolution is the outcome of resolving a diagnostic target.
type Resolution struct {
	// Address is the resolved literal address.
	Address string `json:"address"`
	// Hostname is the name the target resolves from, empty for literal
	// addresses without a reverse mapping.
	Hostname string `json:"hostname,omitempty"`
}

// ResolveTarget resolves a target string into a literal address and, where
// known, a hostname. Literal addresses pass through unchanged.
func ResolveTarget(ctx context.Context, r Resolver, target string) (Resolution, error) {
	if ip := net.ParseIP(target); ip != nil {
		res := Resolution{Address: target}
		// Best effort: a missing reverse mapping is not an error.
		if names, err := r.LookupAddr(ctx, target); err == nil && len(names) > 0 {
			res.Hostname = cleanHostname(names[0])
		}
		return res, nil
	}

	addrs, err := r.LookupHost(ctx, target)
	if err != nil {
		return Resolution{}, ErrResolution{Target: target, Err: err}
	}
	if len(addrs) == 0 {
		return Resolution{}, ErrResolution{Target: target, Err: errNoAddresses}
	}
	return Resolution{Address: addrs[0], Hostname: target}, nil
}

var errNoAddresses = &net.DNSError{Err: "no addresses found", IsNotFound: true}

// cleanHostname removes the trailing dot from DNS names.
func cleanHostname(hostname string) string {
	return strings.TrimSuffix(hostname, ".")
}
