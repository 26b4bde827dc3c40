package ontology

import (
	"slices"
	"sync"
)

// Ontology is a DL-Lite_R TBox with its signature.
//
// Axioms keep their insertion order; rewriting iterates them in that order,
// which makes fresh-variable numbering reproducible.
//
// Thread-safety: reads are safe for concurrent use. DeclareClass may be
// called concurrently with reads (the query parser auto-declares unknown
// concept names); Add must not race with anything.
type Ontology struct {
	Name string

	mu         sync.RWMutex
	classes    map[string]bool
	properties map[string]bool
	axioms     []Axiom

	subClasses map[string][]string // named sup -> named subs
	subRoles   map[Role][]Role     // sup -> subs, exact match
	inverses   map[string][]string // property -> declared inverse partners
	domains    map[Role][]BasicConcept
	ranges     map[Role][]BasicConcept
}

// New creates an empty ontology.
func New(name string) *Ontology {
	return &Ontology{
		Name:       name,
		classes:    make(map[string]bool),
		properties: make(map[string]bool),
		subClasses: make(map[string][]string),
		subRoles:   make(map[Role][]Role),
		inverses:   make(map[string][]string),
		domains:    make(map[Role][]BasicConcept),
		ranges:     make(map[Role][]BasicConcept),
	}
}

// DeclareClass adds a class name to the signature.
// Returns false if the class was already declared.
func (o *Ontology) DeclareClass(name string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.classes[name] {
		return false
	}
	o.classes[name] = true
	return true
}

// DeclareProperty adds an object property name to the signature.
// Returns false if the property was already declared.
func (o *Ontology) DeclareProperty(name string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.properties[name] {
		return false
	}
	o.properties[name] = true
	return true
}

// HasClass reports whether name is a declared class.
func (o *Ontology) HasClass(name string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.classes[name]
}

// HasProperty reports whether name is a declared object property.
func (o *Ontology) HasProperty(name string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.properties[name]
}

// Add appends an axiom and declares every name it mentions.
// Duplicate axioms are ignored.
func (o *Ontology) Add(ax Axiom) {
	o.mu.Lock()
	defer o.mu.Unlock()

	for _, existing := range o.axioms {
		if existing == ax {
			return
		}
	}
	o.axioms = append(o.axioms, ax)

	switch a := ax.(type) {
	case SubClassOf:
		o.declareBasic(a.Sub)
		o.declareBasic(a.Sup)
		if a.Sub.IsNamed() && a.Sup.IsNamed() {
			o.subClasses[a.Sup.Name] = append(o.subClasses[a.Sup.Name], a.Sub.Name)
		}
	case Domain:
		o.properties[a.Role.Name] = true
		o.declareBasic(a.Class)
		o.domains[a.Role] = append(o.domains[a.Role], a.Class)
	case Range:
		o.properties[a.Role.Name] = true
		o.declareBasic(a.Class)
		o.ranges[a.Role] = append(o.ranges[a.Role], a.Class)
	case SubPropertyOf:
		o.properties[a.Sub.Name] = true
		o.properties[a.Sup.Name] = true
		o.subRoles[a.Sup] = append(o.subRoles[a.Sup], a.Sub)
	case InverseOf:
		o.properties[a.P] = true
		o.properties[a.Q] = true
		o.inverses[a.P] = append(o.inverses[a.P], a.Q)
		if a.P != a.Q {
			o.inverses[a.Q] = append(o.inverses[a.Q], a.P)
		}
	}
}

func (o *Ontology) declareBasic(b BasicConcept) {
	if b.Exists {
		o.properties[b.Role.Name] = true
		return
	}
	o.classes[b.Name] = true
}

// Classes returns the declared class names in sorted order.
func (o *Ontology) Classes() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return sortedKeys(o.classes)
}

// Properties returns the declared property names in sorted order.
func (o *Ontology) Properties() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return sortedKeys(o.properties)
}

// Axioms returns the axioms in insertion order.
// The returned slice is a copy.
func (o *Ontology) Axioms() []Axiom {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return slices.Clone(o.axioms)
}

// Len returns the number of axioms.
func (o *Ontology) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.axioms)
}

// SubConceptsOf returns the named classes asserted directly below name.
func (o *Ontology) SubConceptsOf(name string) []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.subClasses[name]
}

// SubRolesOf returns the roles R1 with an asserted SubPropertyOf(R1, r).
// The match on r is exact: subroles of p⁻ are not derived from subroles
// of p here; saturation performs that step itself.
func (o *Ontology) SubRolesOf(r Role) []Role {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.subRoles[r]
}

// InversesOf returns the properties declared inverse to the named property.
func (o *Ontology) InversesOf(name string) []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.inverses[name]
}

// DomainsOf returns the asserted domains of r.
func (o *Ontology) DomainsOf(r Role) []BasicConcept {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.domains[r]
}

// RangesOf returns the asserted ranges of r.
func (o *Ontology) RangesOf(r Role) []BasicConcept {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.ranges[r]
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
