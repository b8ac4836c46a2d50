// Package testutil provides shared test helpers for authentication
// mechanism implementations.
//
// Mechanism packages run the conformance assertions against their own
// implementation:
//
//	func TestConformance(t *testing.T) {
//	    m := newTestMechanism(t)
//	    testutil.AssertRoundTrip(t, m)
//	    testutil.AssertFreeIdempotent(t, m)
//	    testutil.AssertIdentityGated(t, m)
//	    testutil.AssertRejectsMalformed(t, m)
//	}
package testutil
