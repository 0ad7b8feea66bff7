package types

// Service is a named component that exposes methods a host can invoke
// without knowing the concrete type.
type Service interface {
	Name() string
	Methods() Signatures
	Method(name string) (Executable, error)
}
