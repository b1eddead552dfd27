/*
Package monitoring provides Prometheus metrics for the message slot service.

# Overview

Metrics are registered on a private registry per Metrics instance and exposed
through Handler. A Metrics value also implements slot.Observer, so attaching it
to a Device records every open, select, write, read and close.

# Usage

	metrics := monitoring.NewMetrics()
	dev := slot.NewDevice(limits, logger).WithObserver(metrics)

	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
*/
package monitoring
