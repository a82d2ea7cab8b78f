// Package identity mints deterministic IDs for catalog entities. The same
// namespace and name always produce the same UUID, so independent importers
// converge on one ID for "Commodore" without coordinating.
package identity

import (
	"fmt"

	"github.com/google/uuid"
)

// Namespace scopes deterministic IDs to one entity class. Names only collide
// within a namespace, never across them.
type Namespace string

const (
	NamespaceManufacturer Namespace = "manufacturer"
	NamespaceProduct      Namespace = "product"
	NamespacePerson       Namespace = "person"
	NamespaceLibrary      Namespace = "library"
	NamespacePlatform     Namespace = "platform"
)

// Root UUIDs are part of the persisted ID space. Changing one orphans every
// ID already minted under it.
var roots = map[Namespace]uuid.UUID{
	NamespaceManufacturer: uuid.MustParse("1f0132b4-9a7d-4ec2-8a5b-3d61a2c7e9f4"),
	NamespaceProduct:      uuid.MustParse("2b845c1e-6f3a-4d9b-b7c8-5e92d4a1f036"),
	NamespacePerson:       uuid.MustParse("3c956d2f-7a4b-4e0c-8d19-6fa3e5b2c147"),
	NamespaceLibrary:      uuid.MustParse("4da67e30-8b5c-4f1d-9e2a-70b4f6c3d258"),
	NamespacePlatform:     uuid.MustParse("5eb78f41-9c6d-402e-af3b-81c507d4e369"),
}

// Generate returns the version 5 UUID for name within the namespace. The
// name is hashed exactly as given; callers own any casing or whitespace
// canonicalization.
func Generate(ns Namespace, name string) uuid.UUID {
	root, ok := roots[ns]
	if !ok {
		panic(fmt.Sprintf("identity: unknown namespace %q", ns))
	}
	return uuid.NewSHA1(root, []byte(name))
}

// Namespaces returns the supported namespaces.
func Namespaces() []Namespace {
	return []Namespace{
		NamespaceManufacturer,
		NamespaceProduct,
		NamespacePerson,
		NamespaceLibrary,
		NamespacePlatform,
	}
}

// Valid reports whether ns is a known namespace.
func Valid(ns Namespace) bool {
	_, ok := roots[ns]
	return ok
}
