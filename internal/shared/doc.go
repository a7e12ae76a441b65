// Package shared holds helpers used by more than one package's tests.
//
// testutil provides a slog handler that records log output so tests can
// assert on what a component logged:
//
//	logger, logs := testutil.NewTestLogger(t)
//	svc := services.NewDashboardService(loader, nil, nil, logger)
//	...
//	testutil.AssertLogContains(t, logs, slog.LevelWarn, "Reload failed, keeping previous table")
//
// Nothing in shared may import application packages.
package shared
