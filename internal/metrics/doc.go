/*
Package metrics exports pool activity as Prometheus metrics.

A Collector implements types.MetricsCollector. Pools call RecordOperation
for every has, get, save, delete and clear, and RecordLookup for every hit
check. Each collector owns a private registry, so several managers can run
in one process without clashing on registration.

Exported series (namespace and subsystem from Config):

	operations_total{pool,operation,status}
	operation_duration_seconds{pool,operation}
	lookups_total{pool,result}

Handler serves the registry in the Prometheus text or OpenMetrics format.
Snapshot returns the same counts as plain values for the CLI and tests.

A collector built from a disabled Config records nothing and its Handler
answers 404.
*/
package metrics
