package testutil

import "testing"

// Step helpers nest subtests named after the Given/When/Then clauses used by
// the godog features under e2e/, so a registrar scenario reads the same in
// `go test -v` output as in the feature files. Each returns the t.Run result;
// a scenario can stop when a precondition failed:
//
//	if !testutil.When(t, "creating a domain", create) {
//		return
//	}
func Given(t *testing.T, desc string, fn func(t *testing.T)) bool {
	t.Helper()
	return step(t, "Given", desc, fn)
}

func When(t *testing.T, desc string, fn func(t *testing.T)) bool {
	t.Helper()
	return step(t, "When", desc, fn)
}

func Then(t *testing.T, desc string, fn func(t *testing.T)) bool {
	t.Helper()
	return step(t, "Then", desc, fn)
}

// And continues the previous clause.
func And(t *testing.T, desc string, fn func(t *testing.T)) bool {
	t.Helper()
	return step(t, "And", desc, fn)
}

func step(t *testing.T, keyword, desc string, fn func(t *testing.T)) bool {
	t.Helper()
	return t.Run(keyword+" "+desc, fn)
}
