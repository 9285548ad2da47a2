// Package metrics exposes Prometheus collectors for native bindings.
//
//	wasmnative_bindings                          gauge
//	wasmnative_bind_failures_total{kind}         counter
//	wasmnative_native_calls_total{namespace,name} counter
package metrics
