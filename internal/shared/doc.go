// Package shared groups helpers used across keygate packages that belong to
// no single layer.
//
// # Test Utilities
//
// The testutil subpackage provides:
//
//   - A capturing slog handler with assertions on level, message and attributes
//   - A settable clock satisfying license.Clock
//   - Key record fixtures in every hwid state
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    logger, handler := testutil.NewTestLogger(t)
//	    clock := testutil.NewClock(testutil.FixtureNow)
//	    // ...
//	    testutil.AssertLogContains(t, handler, slog.LevelInfo, "key created")
//	}
//
// testutil must only be imported from _test.go files.
package shared
