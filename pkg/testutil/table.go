package testutil

// TableTest is one row of a table-driven test.
type TableTest[T any] struct {
	Name  string
	Input T
}
