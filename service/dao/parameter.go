package dao

// Parameter is an optional List filter; interpretation is left to the
// implementation.
type Parameter struct {
	Name  string
	Value interface{}
}
