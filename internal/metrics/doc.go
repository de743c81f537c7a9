// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

/*
Package metrics provides Prometheus metrics for PiPlane.

Metrics are registered on the default registry via promauto and exposed at
/metrics by the HTTP API:

	curl http://localhost:8090/metrics

# Available Metrics

Ingestion:
  - piplane_ingest_cycle_duration_seconds (histogram)
  - piplane_ingest_failures_total{reason}
  - piplane_ingest_records_total

Registry:
  - piplane_aircraft_tracked (gauge)
  - piplane_aircraft_transitions_total{kind}
  - piplane_records_dropped_total

Alerting:
  - piplane_alerts_fired_total
  - piplane_notifier_dispatches_total{notifier,kind,result}
  - piplane_notifier_duration_seconds{notifier}
  - piplane_notifier_queue_depth{notifier}

Other:
  - piplane_enrichment_lookups_total{result}
  - piplane_http_requests_total{method,route,status}
  - piplane_websocket_connections
  - piplane_circuit_breaker_state{name}
  - piplane_events_published_total{topic,result}

Callers use the Record* helpers rather than touching the vectors directly.
*/
package metrics
