// PiPlane - ADS-B Aircraft Tracker and Alert Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/piplane

/*
Package services adapts PiPlane components to suture.Service.

	RunnerService   anything with RunWithContext(ctx) error: the poller,
	                alert engine, WebSocket hub, console view, LCD and OLED
	HTTPServerService  *http.Server, ListenAndServe plus graceful Shutdown
	BrokerService   the embedded NATS server: health-checked, shut down on
	                cancellation, not restarted once it has died

Every wrapper implements fmt.Stringer so supervisor events name the service.
*/
package services
