package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSteps_NameSubtestsAfterClauses(t *testing.T) {
	var names []string
	record := func(t *testing.T) { names = append(names, t.Name()) }

	ok := Given(t, "a registered domain", func(t *testing.T) {
		record(t)
		When(t, "renewing it", func(t *testing.T) {
			record(t)
			Then(t, "the expiry moves", record)
			And(t, "the transaction is logged", record)
		})
	})

	assert.True(t, ok)
	assert.Equal(t, []string{
		t.Name() + "/Given_a_registered_domain",
		t.Name() + "/Given_a_registered_domain/When_renewing_it",
		t.Name() + "/Given_a_registered_domain/When_renewing_it/Then_the_expiry_moves",
		t.Name() + "/Given_a_registered_domain/When_renewing_it/And_the_transaction_is_logged",
	}, names)
}
