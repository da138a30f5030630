package service

// Bundle carries the shared context for a collection of services that work
// together: one base context directory and one set of connect options. It has
// no protocol logic of its own; it exists so a group of ReifiedServices can
// be constructed from a single context.
//
// Integrators typically define a struct holding their collection:
//
//	type Services struct {
//		Cache *service.ReifiedService[*cache.Client]
//		Index *service.ReifiedService[*index.Client]
//	}
//
//	func NewServices(b *service.Bundle) *Services {
//		return &Services{
//			Cache: service.BundleService[*cache.Client](b, cacheService),
//			Index: service.BundleService[*index.Client](b, indexService),
//		}
//	}
type Bundle struct {
	baseDir string
	opts    []ConnectOption
}

func NewBundle(baseDir string, opts ...ConnectOption) *Bundle {
	return &Bundle{baseDir: baseDir, opts: opts}
}

func (b *Bundle) BaseDir() string {
	return b.baseDir
}

// BundleService reifies svc with the bundle's shared context. This is a
// package-level function because Go methods cannot introduce type parameters.
func BundleService[C any](b *Bundle, svc Service[C]) *ReifiedService[C] {
	return Reify(svc, b.baseDir, b.opts...)
}
