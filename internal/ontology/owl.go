package ontology

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// OWL/RDF namespace URIs
const (
	nsOWL  = "http://www.w3.org/2002/07/owl#"
	nsRDF  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	nsRDFS = "http://www.w3.org/2000/01/rdf-schema#"
)

// Property characteristics outside OWL 2 QL.
var unsupportedCharacteristics = map[string]bool{
	nsOWL + "TransitiveProperty":        true,
	nsOWL + "FunctionalProperty":        true,
	nsOWL + "InverseFunctionalProperty": true,
}

// LoadOWLFile parses an RDF/XML ontology from disk.
// The ontology name defaults to the file's base name.
func LoadOWLFile(path string) (*Ontology, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ontology: %w", err)
	}
	defer f.Close()

	o, err := LoadOWL(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if o.Name == "" {
		o.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return o, nil
}

// LoadOWL parses an OWL 2 QL ontology serialized as RDF/XML.
//
// Entities are named by IRI fragment (or last path segment). Individuals and
// annotations are ignored. Constructs outside DL-Lite_R (qualified
// existentials, transitive or functional properties, class unions, ...)
// fail with a *ProfileError.
func LoadOWL(r io.Reader) (*Ontology, error) {
	p := &owlParser{dec: xml.NewDecoder(r), ont: New("")}

	for {
		tok, err := p.dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read rdf/xml: %w", err)
		}

		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch {
		case matchElement(se, nsRDF, "RDF"):
			// Container element - descend into it
		case matchElement(se, nsOWL, "Ontology"):
			if about := entityIRI(se); about != "" {
				p.ont.Name = shortName(about)
			}
			err = p.dec.Skip()
		case matchElement(se, nsOWL, "Class"):
			err = p.class(se)
		case matchElement(se, nsOWL, "ObjectProperty"):
			err = p.property(se)
		case matchElement(se, nsOWL, "SymmetricProperty"):
			err = p.property(se)
			if err == nil && entityIRI(se) != "" {
				name := shortName(entityIRI(se))
				p.ont.Add(InverseOf{P: name, Q: name})
			}
		case se.Name.Space == nsOWL && unsupportedCharacteristics[nsOWL+se.Name.Local]:
			return nil, &ProfileError{Subject: shortName(entityIRI(se)), Reason: se.Name.Local + " is not supported"}
		case matchElement(se, nsOWL, "Restriction"):
			err = p.topLevelRestriction(se)
		default:
			err = p.dec.Skip()
		}
		if err != nil {
			return nil, err
		}
	}

	return p.ont, nil
}

type owlParser struct {
	dec *xml.Decoder
	ont *Ontology
}

// class parses an owl:Class element and its subsumption children.
func (p *owlParser) class(se xml.StartElement) error {
	iri := entityIRI(se)
	if iri == "" {
		return &ProfileError{Subject: "owl:Class", Reason: "anonymous class expressions are not supported"}
	}
	name := shortName(iri)
	p.ont.DeclareClass(name)

	for {
		tok, err := p.dec.Token()
		if err != nil {
			return fmt.Errorf("class %s: %w", name, err)
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch {
			case matchElement(el, nsRDFS, "subClassOf"):
				sup, ok, err := p.classExpr(el, name)
				if err != nil {
					return err
				}
				if ok {
					p.ont.Add(SubClassOf{Sub: Class(name), Sup: sup})
				}
			case matchElement(el, nsOWL, "equivalentClass"):
				other, ok, err := p.classExpr(el, name)
				if err != nil {
					return err
				}
				if ok {
					p.ont.Add(SubClassOf{Sub: Class(name), Sup: other})
					p.ont.Add(SubClassOf{Sub: other, Sup: Class(name)})
				}
			default:
				if err := p.dec.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			return nil
		}
	}
}

// property parses an owl:ObjectProperty element.
func (p *owlParser) property(se xml.StartElement) error {
	iri := entityIRI(se)
	if iri == "" {
		return p.dec.Skip()
	}
	name := shortName(iri)
	p.ont.DeclareProperty(name)
	self := Prop(name)

	for {
		tok, err := p.dec.Token()
		if err != nil {
			return fmt.Errorf("property %s: %w", name, err)
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch {
			case matchElement(el, nsRDFS, "subPropertyOf"):
				sup, err := p.roleExpr(el, name)
				if err != nil {
					return err
				}
				p.ont.Add(SubPropertyOf{Sub: self, Sup: sup})
			case matchElement(el, nsOWL, "equivalentProperty"):
				other, err := p.roleExpr(el, name)
				if err != nil {
					return err
				}
				p.ont.Add(SubPropertyOf{Sub: self, Sup: other})
				p.ont.Add(SubPropertyOf{Sub: other, Sup: self})
			case matchElement(el, nsOWL, "inverseOf"):
				other, err := p.roleExpr(el, name)
				if err != nil {
					return err
				}
				if other.Inverse {
					// inverseOf(p, q⁻) is p ≡ q
					p.ont.Add(SubPropertyOf{Sub: self, Sup: other.Inv()})
					p.ont.Add(SubPropertyOf{Sub: other.Inv(), Sup: self})
				} else {
					p.ont.Add(InverseOf{P: name, Q: other.Name})
				}
			case matchElement(el, nsRDFS, "domain"):
				c, ok, err := p.classExpr(el, name)
				if err != nil {
					return err
				}
				if ok {
					p.ont.Add(Domain{Role: self, Class: c})
				}
			case matchElement(el, nsRDFS, "range"):
				c, ok, err := p.classExpr(el, name)
				if err != nil {
					return err
				}
				if ok {
					p.ont.Add(Range{Role: self, Class: c})
				}
			case matchElement(el, nsRDF, "type"):
				res := getAttr(el, nsRDF, "resource")
				if unsupportedCharacteristics[res] {
					return &ProfileError{Subject: name, Reason: shortName(res) + " is not supported"}
				}
				if res == nsOWL+"SymmetricProperty" {
					p.ont.Add(InverseOf{P: name, Q: name})
				}
				if err := p.dec.Skip(); err != nil {
					return err
				}
			default:
				if err := p.dec.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			return nil
		}
	}
}

// classExpr reads the class expression held by el (rdfs:subClassOf,
// rdfs:domain, ...). ok is false for owl:Thing, which carries no information.
func (p *owlParser) classExpr(el xml.StartElement, subject string) (BasicConcept, bool, error) {
	if res := getAttr(el, nsRDF, "resource"); res != "" {
		if err := p.dec.Skip(); err != nil {
			return BasicConcept{}, false, err
		}
		if res == nsOWL+"Thing" {
			return BasicConcept{}, false, nil
		}
		return Class(shortName(res)), true, nil
	}

	var out BasicConcept
	found := false
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return BasicConcept{}, false, fmt.Errorf("%s: %w", subject, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case matchElement(t, nsOWL, "Restriction"):
				b, sups, err := p.restriction(t, subject)
				if err != nil {
					return BasicConcept{}, false, err
				}
				if len(sups) > 0 {
					return BasicConcept{}, false, &ProfileError{Subject: subject, Reason: "nested restriction axioms are not supported"}
				}
				out, found = b, true
			case matchElement(t, nsOWL, "Class") && entityIRI(t) != "":
				out, found = Class(shortName(entityIRI(t))), true
				if err := p.dec.Skip(); err != nil {
					return BasicConcept{}, false, err
				}
			default:
				return BasicConcept{}, false, &ProfileError{Subject: subject, Reason: "unsupported class expression " + t.Name.Local}
			}
		case xml.EndElement:
			return out, found, nil
		}
	}
}

// roleExpr reads a property reference: rdf:resource, or a nested
// owl:ObjectProperty holding owl:inverseOf for an inverse role.
func (p *owlParser) roleExpr(el xml.StartElement, subject string) (Role, error) {
	if res := getAttr(el, nsRDF, "resource"); res != "" {
		return Prop(shortName(res)), p.dec.Skip()
	}

	var out Role
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return Role{}, fmt.Errorf("%s: %w", subject, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if !matchElement(t, nsOWL, "ObjectProperty") {
				return Role{}, &ProfileError{Subject: subject, Reason: "unsupported property expression " + t.Name.Local}
			}
			if iri := entityIRI(t); iri != "" {
				out = Prop(shortName(iri))
				if err := p.dec.Skip(); err != nil {
					return Role{}, err
				}
				continue
			}
			inner, err := p.inverseOf(t, subject)
			if err != nil {
				return Role{}, err
			}
			out = inner
		case xml.EndElement:
			if out.Name == "" {
				return Role{}, &ProfileError{Subject: subject, Reason: "empty property expression"}
			}
			return out, nil
		}
	}
}

// inverseOf reads <owl:ObjectProperty><owl:inverseOf rdf:resource="p"/></owl:ObjectProperty>.
func (p *owlParser) inverseOf(se xml.StartElement, subject string) (Role, error) {
	var out Role
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return Role{}, fmt.Errorf("%s: %w", subject, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if !matchElement(t, nsOWL, "inverseOf") {
				if err := p.dec.Skip(); err != nil {
					return Role{}, err
				}
				continue
			}
			r, err := p.roleExpr(t, subject)
			if err != nil {
				return Role{}, err
			}
			out = r.Inv()
		case xml.EndElement:
			if out.Name == "" {
				return Role{}, &ProfileError{Subject: subject, Reason: "anonymous property without owl:inverseOf"}
			}
			return out, nil
		}
	}
}

// restriction parses an owl:Restriction. Only unqualified existentials
// (someValuesFrom owl:Thing) are accepted. sups collects rdfs:subClassOf
// children, which appear when the restriction is a top-level subject.
func (p *owlParser) restriction(se xml.StartElement, subject string) (BasicConcept, []BasicConcept, error) {
	var (
		role      Role
		hasRole   bool
		hasFiller bool
		sups      []BasicConcept
	)
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return BasicConcept{}, nil, fmt.Errorf("%s: %w", subject, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case matchElement(t, nsOWL, "onProperty"):
				r, err := p.roleExpr(t, subject)
				if err != nil {
					return BasicConcept{}, nil, err
				}
				role, hasRole = r, true
			case matchElement(t, nsOWL, "someValuesFrom"):
				res := getAttr(t, nsRDF, "resource")
				if res != nsOWL+"Thing" {
					return BasicConcept{}, nil, &ProfileError{Subject: subject, Reason: "qualified existential restrictions are not supported"}
				}
				hasFiller = true
				if err := p.dec.Skip(); err != nil {
					return BasicConcept{}, nil, err
				}
			case matchElement(t, nsRDFS, "subClassOf"):
				sup, ok, err := p.classExpr(t, subject)
				if err != nil {
					return BasicConcept{}, nil, err
				}
				if ok {
					sups = append(sups, sup)
				}
			default:
				return BasicConcept{}, nil, &ProfileError{Subject: subject, Reason: "unsupported restriction " + t.Name.Local}
			}
		case xml.EndElement:
			if !hasRole || !hasFiller {
				return BasicConcept{}, nil, &ProfileError{Subject: subject, Reason: "restriction needs owl:onProperty and owl:someValuesFrom"}
			}
			return Some(role), sups, nil
		}
	}
}

// topLevelRestriction handles ∃R ⊑ B written as a restriction subject.
func (p *owlParser) topLevelRestriction(se xml.StartElement) error {
	b, sups, err := p.restriction(se, "owl:Restriction")
	if err != nil {
		return err
	}
	if len(sups) == 0 {
		return errors.New("owl:Restriction without rdfs:subClassOf")
	}
	for _, sup := range sups {
		p.ont.Add(SubClassOf{Sub: b, Sup: sup})
	}
	return nil
}

func matchElement(se xml.StartElement, ns, local string) bool {
	return se.Name.Space == ns && se.Name.Local == local
}

func getAttr(se xml.StartElement, ns, local string) string {
	for _, a := range se.Attr {
		if a.Name.Space == ns && a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// entityIRI returns rdf:about, falling back to rdf:ID.
func entityIRI(se xml.StartElement) string {
	if about := getAttr(se, nsRDF, "about"); about != "" {
		return about
	}
	return getAttr(se, nsRDF, "ID")
}

// shortName converts http://example.org/univ#Professor to Professor.
func shortName(iri string) string {
	if i := strings.LastIndexByte(iri, '#'); i >= 0 {
		return iri[i+1:]
	}
	if i := strings.LastIndexByte(iri, '/'); i >= 0 && i < len(iri)-1 {
		return iri[i+1:]
	}
	return iri
}
