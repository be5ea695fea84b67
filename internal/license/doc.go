// Package license holds the key lifecycle rules: expiry computation,
// hardware binding and verification outcomes, and staleness for sweeping.
//
// Everything here is pure. Callers pass the current time in and perform any
// storage writes the result asks for.
//
// # Hardware binding
//
// A record's hwid is in one of three states:
//
//   - unset: NULL or "", binds to the first hwid supplied on verification
//   - bypass: the literal "BYPASS", valid on any device until expiry
//   - bound: any other value, rejects every other hwid
//
// # Verification order
//
//  1. no record            -> not found
//  2. expires_at < now     -> expired
//  3. bypass               -> valid (bypass)
//  4. bound and different  -> mismatch
//  5. unset and supplied   -> valid, bind required
//  6. otherwise            -> valid
//
// Expiry is always created_at + months*30 days and is never recomputed.
package license
