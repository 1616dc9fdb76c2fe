// Package rehydrator provides core abstractions and types for rebuilding
// typed domain object graphs from their simplified, JSON-friendly record
// form.
//
// This package defines the engine that walks simplified values, the session
// that guarantees one instance per identity, the type registry with its
// per-type field setters, and lazy references that defer the store fetch
// until first use.
//
// The engine rehydrates three kinds of tagged mappings:
//   - datetime: becomes a time.Time in the named timezone
//   - ip-network: becomes a netip.Prefix
//   - object records and object-ref indirections: become registered domain
//     objects, fetched from a record store when only coordinates are present
//
// Key types:
//   - Engine: walks simplified values and reconstructs objects
//   - Session: per-request identity cache plus population report
//   - Registry / TypeBlueprint: classname to constructor and setter mapping
//   - LazyReference / Resolved: deferred, at-most-once object resolution
//
// Common usage pattern:
//
//	blueprint, err := rehydrator.BuildTypeBlueprint("Server").
//		ConstructedBy(func() any { return &Server{} }).
//		StoredInCollection("servers").
//		WithSetter("name", rehydrator.StringField(func(s *Server, v string) { s.Name = v })).
//		Finalize()
//
//	registry := rehydrator.NewRegistry()
//	err = registry.Register(blueprint)
//
//	engine, err := rehydrator.NewEngine(store, registry)
//
//	session := rehydrator.NewSession()
//	result, err := engine.Rehydrate(ctx, session, simplifiedValue)
//
//	ref, err := rehydrator.NewLazyReference(engine, "servers", "42")
//	server, err := rehydrator.ResolvedAs[*Server](ref).Get(ctx)
package rehydrator
