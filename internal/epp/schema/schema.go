// Package schema assembles the registry of every object mapping and
// extension the gateway speaks.
package schema

import (
	"sync"

	"epp-gateway/internal/epp/codec"
	"epp-gateway/internal/epp/extensions/coa"
	"epp-gateway/internal/epp/extensions/fee"
	"epp-gateway/internal/epp/extensions/rgp"
	"epp-gateway/internal/epp/extensions/secdns"
	"epp-gateway/internal/epp/objects/contact"
	"epp-gateway/internal/epp/objects/domain"
	"epp-gateway/internal/epp/objects/host"
)

// Factories returns the built-in factories.
func Factories() []codec.Factory {
	return []codec.Factory{
		domain.Factory(),
		contact.Factory(),
		host.Factory(),
		fee.Factory(),
		secdns.Factory(),
		rgp.Factory(),
		coa.Factory(),
	}
}

// New returns a registry with the built-in factories plus extra.
func New(extra ...codec.Factory) (*codec.Registry, error) {
	return codec.NewRegistry(append(Factories(), extra...)...)
}

var defaultRegistry = sync.OnceValue(func() *codec.Registry {
	reg, err := New()
	if err != nil {
		panic(err)
	}
	return reg
})

// Default returns the shared registry of built-in factories.
func Default() *codec.Registry {
	return defaultRegistry()
}
