package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"

	"github.com/roach88/crpq/internal/ontology"
	"github.com/roach88/crpq/internal/queryir"
)

// Domain prefixes for content-addressed identity.
const (
	DomainQuery      = "crpq/query/" + IDVersion
	DomainOntology   = "crpq/ontology/" + IDVersion
	DomainDerivation = "crpq/derivation/" + IDVersion
)

// hashWithDomain computes SHA256(domain + 0x00 + data) as lowercase hex.
// The null byte keeps the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

func hashValue(domain string, v Value) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", err
	}
	return hashWithDomain(domain, canonical), nil
}

// QueryID computes the content-addressed ID of a query.
//
// Two queries get the same ID exactly when their keys are equal: the head
// is hashed in order, the body as its sorted atom keys.
func QueryID(q queryir.Query) (string, error) {
	head := make([]string, len(q.Head))
	for i, t := range q.Head {
		head[i] = t.String()
	}
	body := make([]string, 0, len(q.Body))
	for _, a := range q.Body {
		body = append(body, a.Key())
	}
	slices.Sort(body)
	body = slices.Compact(body)

	id, err := hashValue(DomainQuery, Object{
		"head": Strings(head...),
		"body": Strings(body...),
	})
	if err != nil {
		return "", fmt.Errorf("QueryID: failed to marshal: %w", err)
	}
	return id, nil
}

// OntologyHash computes the content hash of an ontology: its name, its
// signature and its axioms in insertion order. Axiom order is part of the
// hash because it fixes the order queries are discovered in.
func OntologyHash(o *ontology.Ontology) (string, error) {
	axioms := o.Axioms()
	printed := make([]string, len(axioms))
	for i, ax := range axioms {
		printed[i] = ax.String()
	}

	id, err := hashValue(DomainOntology, Object{
		"name":       String(o.Name),
		"classes":    Strings(o.Classes()...),
		"properties": Strings(o.Properties()...),
		"axioms":     Strings(printed...),
	})
	if err != nil {
		return "", fmt.Errorf("OntologyHash: failed to marshal: %w", err)
	}
	return id, nil
}

// DerivationID computes the ID of one provenance edge of a run.
func DerivationID(runID, parentID, childID, rule, detail string) (string, error) {
	id, err := hashValue(DomainDerivation, Object{
		"run_id":    String(runID),
		"parent_id": String(parentID),
		"child_id":  String(childID),
		"rule":      String(rule),
		"detail":    String(detail),
	})
	if err != nil {
		return "", fmt.Errorf("DerivationID: failed to marshal: %w", err)
	}
	return id, nil
}

// MustQueryID is like QueryID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustQueryID(q queryir.Query) string {
	id, err := QueryID(q)
	if err != nil {
		panic(err)
	}
	return id
}

// MustOntologyHash is like OntologyHash but panics on error.
func MustOntologyHash(o *ontology.Ontology) string {
	id, err := OntologyHash(o)
	if err != nil {
		panic(err)
	}
	return id
}
