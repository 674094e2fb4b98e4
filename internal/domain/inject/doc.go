// Package inject implements the dependency injection engine.
//
// Plugins register named Descriptors into an Injector. Each descriptor carries
// a Producer (Factory, Value, Alias or Callback) and the ordered names it
// requires. Nothing is constructed at registration time: Get resolves a
// dependency on first use by resolving its requirements depth-first, calling
// the producer with them positionally and memoizing the result.
//
//	inj := inject.New()
//	_ = inj.Register(inject.Descriptor{
//		Name:  "greeting",
//		Kind:  inject.KindFactory,
//		Owner: "hello",
//		Producer: inject.Factory{
//			Requires: []string{"name"},
//			Fn: func(args ...any) (any, error) {
//				return "hello " + args[0].(string), nil
//			},
//		},
//	})
//
// Callbacks run only through Invoke and are never memoized. Filter returns a
// View for operating on subsets, for example every descriptor of one kind.
package inject
