// Package services implements the business logic layer of the sales
// dashboard. It keeps the loaded sales table and turns user filters into
// dashboard views, keeping HTTP handlers free of aggregation rules.
//
// # Architecture
//
// Services follow these principles:
//
//	1. Interface-driven dependencies for testability
//	2. Context propagation for cancellation and tracing
//	3. Dependency injection of loggers, metrics and tracers
//
// # Dashboard State
//
// DashboardService loads the sources once per process and memoizes the
// result, including a failed load. Every view is recomputed from the
// immutable table, so concurrent requests share it without locking beyond
// the pointer swap performed by Reload.
//
//	svc := services.NewDashboardService(loader, metrics, tracer, logger)
//	view, err := svc.View(ctx, domain.DashboardFilters{AllLocations: true}, 100, 0)
//
// # Error Handling
//
// Errors from the dataprocessing package are returned unchanged so the
// transport layer can map ErrLoadFailure, ErrInvalidMetric and
// ErrInvalidCategory to problem responses.
package services
