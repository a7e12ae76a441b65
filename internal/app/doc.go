// Package app wires the sales dashboard together and manages its lifecycle.
//
// # Initialization Flow
//
//	1. Load configuration from defaults, YAML and SALES_* environment variables
//	2. Initialize logging and OpenTelemetry
//	3. Build the source resolver, loader and dashboard service
//	4. Set up middleware, API routes, the HTML page and /metrics
//	5. Start the HTTP server and load the sales data in the background
//
// # Usage
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := application.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful Shutdown
//
// Run blocks until SIGINT or SIGTERM, then drains in-flight requests,
// flushes telemetry and closes the log file. The package never calls
// os.Exit; main decides the exit code.
package app
