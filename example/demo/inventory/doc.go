// Package inventory models the compute fleet the demo application works
// with: instances carrying their attached volumes inline and pointing at
// their hypervisor through stored references.
//
// Besides the domain types and their blueprints, the package builds the
// simplified records a producer would store, so the load generator can seed
// a realistic dataset before it starts rehydrating.
package inventory
