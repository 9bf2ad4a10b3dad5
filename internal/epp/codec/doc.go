// Package codec maps EPP objects to XML element trees and back.
//
// Every EPP command, response and extension type implements Component: Encode
// appends the object as a child of a parent element, Decode populates the
// object from an element. Writer and Reader carry the field-level helpers
// (strings, booleans, dates, decimals, nested components and lists) and apply
// the same required/optional protocol everywhere: a required field that is
// empty on encode, or absent on decode, fails with ErrMissing; a value that
// cannot be parsed fails with ErrInvalid.
//
// Both helpers keep the first failure and turn later calls into no-ops, so a
// component writes its fields top to bottom and checks Err once:
//
//	w := codec.NewWriter(parent, NS).Declare("create")
//	w.String("name", c.Name)
//	w.OptString("registrant", c.Registrant)
//	return w.Element(), w.Err()
//
// Children are matched by resolved namespace URI and local name, never by
// prefix, so documents that bind a namespace as the default namespace decode
// the same as prefixed ones.
//
// Registry dispatches an element to the concrete Component registered for its
// namespace. Exactly one Factory may claim a namespace.
package codec
