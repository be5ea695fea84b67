// Package services implements the business logic layer of keygate. It sits
// between the HTTP handlers and the key store so that the key lifecycle rules
// are applied in one place.
//
// # Architecture
//
// Services follow these principles:
//
//  1. Interface-driven design for testability
//  2. Context propagation for cancellation and tracing
//  3. Dependency injection of the store, clock, metrics and logger
//
// # Available Services
//
//   - KeyService: issues, lists, rebinds, deletes and verifies license keys
//   - HealthService: reports liveness, readiness and build information
//
// # Error Handling
//
// Store failures are wrapped in ErrStoreFailure and logged once, here.
// Handlers turn them into 500 problem responses. Verification rejections
// (unknown, expired, mismatched) are not errors; they are returned as a
// VerifyResult outcome.
//
// # Testing
//
// KeyService is tested against the in-memory store with a fake clock:
//
//	clock := testutil.NewClock(testutil.FixtureNow)
//	svc := NewKeyService(store.NewMemoryStore(), clock.Now, infrastructure.NewNoopMetrics(), logger)
//
// Handlers mock the KeyService interface with testify.
package services
