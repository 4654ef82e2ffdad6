package reconcile

import (
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	legacyNamespace   = uuid.MustParse("6f1c1d2e-9a53-4c8e-b0b5-3f4d7f0a2c11")
	transientCategory = uuid.MustParse("0b8f5a52-7d0e-4f6b-9c3e-5a1d2e8b4c70")
	derivedSKU        = uuid.MustParse("d3a4c6e1-2b7f-4e19-8a5c-9f0e1b2d3c4a")
)

// ResolveID maps an input identifier into the store id space. UUIDs pass
// through; 24-hex legacy ObjectIds map to a stable name-based UUID so the
// same legacy id always lands on the same record.
func ResolveID(raw string) (uuid.UUID, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, false
	}
	if id, err := uuid.Parse(raw); err == nil && id != uuid.Nil {
		return id, true
	}
	if oid, err := primitive.ObjectIDFromHex(raw); err == nil {
		return uuid.NewSHA1(legacyNamespace, oid[:]), true
	}
	return uuid.Nil, false
}

// TransientCategoryID is the pre-reconciliation id used by seed files to
// reference a category by slug.
func TransientCategoryID(slug string) string {
	return uuid.NewSHA1(transientCategory, []byte(slug)).String()
}

// DerivedSKU generates a stable SKU for catalog entries that carry no item
// number or id.
func DerivedSKU(name string) string {
	return strings.ReplaceAll(uuid.NewSHA1(derivedSKU, []byte(name)).String(), "-", "")
}

// placeholderID stands in for a store-assigned id during dry runs.
func placeholderID() uuid.UUID {
	return uuid.New()
}
