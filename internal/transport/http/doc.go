// Package http implements the HTTP handlers of the sales dashboard. Handlers
// stay thin: they parse and validate the request, call the dashboard service
// and format the response.
//
// # Routes
//
//	GET  /api/health, /api/health/ready, /api/health/live, /api/version
//	GET  /api/dashboard/sources
//	GET  /api/dashboard/view?location=a&location=b&metric=m&field=f&value=v
//	GET  /api/dashboard/rows?...&limit=&offset=
//	GET  /api/dashboard/categories/{field}
//	POST /api/dashboard/reload
//	GET  /api/dashboard/export.csv, /api/dashboard/export.xlsx
//	GET  /api/dashboard/charts/{kind}.png
//	GET  /
//
// Without a location parameter every location is selected. An explicit
// empty location parameter selects none.
//
// # Error Handling
//
// Errors are rendered as RFC 7807 problem details by errors.ErrorHandler:
//
//	{
//	    "type": "/errors/sales/invalid-metric",
//	    "title": "Bad Request",
//	    "status": 400,
//	    "detail": "metric \"Producto\" is not a numeric column",
//	    "instance": "/api/dashboard/view"
//	}
//
// A failed load answers 503 with the missing and failed sources in the
// details extension.
package http
