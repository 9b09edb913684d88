/*
Package cache provides the read-through cache layer and its backends.

Three backends are available:
  - SturdycBackend: in-process, sharded, supports prefix sweeps
  - RedisBackend: shared across instances, sweeps with SCAN MATCH
  - NoopBackend: caching disabled, no prefix capability

Layer adds JSON encoding, metrics and logging on top of a Backend:

	layer := cache.NewLayer(backend, cache.WithLogger(logger), cache.WithMetrics(collector))

	var env storagemodels.Envelope[reviews.Review]
	if layer.Get(ctx, key, &env) {
	    return &env, nil
	}
	...
	_ = layer.Set(ctx, key, env, 10*time.Minute)

Prefix invalidation depends on an explicit capability. When the backend
reports SupportsPrefixScan() == false, DeleteByPrefix logs a warning and
deletes nothing, leaving stale entries to expire by TTL.
*/
package cache
