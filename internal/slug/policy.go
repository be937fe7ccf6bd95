package slug

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var identRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Policy describes where an entity type stores its slug and which columns
// partition its uniqueness. An empty ScopeFields means the slug is global.
type Policy struct {
	Entity         string   `yaml:"entity"`
	Table          string   `yaml:"table"`
	ScopeFields    []string `yaml:"scope"`
	NameUnique     bool     `yaml:"name_unique"`
	FallbackPrefix string   `yaml:"fallback_prefix"`
	IDColumn       string   `yaml:"id_column"`
	SlugColumn     string   `yaml:"slug_column"`
	NameColumn     string   `yaml:"name_column"`
}

func (p Policy) withDefaults() Policy {
	if p.IDColumn == "" {
		p.IDColumn = "id"
	}
	if p.SlugColumn == "" {
		p.SlugColumn = "slug"
	}
	if p.NameColumn == "" {
		p.NameColumn = "name"
	}
	return p
}

func (p Policy) validate() error {
	if strings.TrimSpace(p.Entity) == "" {
		return errors.New("slug policy: entity is required")
	}
	idents := append([]string{p.Table, p.IDColumn, p.SlugColumn, p.NameColumn}, p.ScopeFields...)
	for _, id := range idents {
		if !identRe.MatchString(id) {
			return fmt.Errorf("slug policy %s: invalid identifier %q", p.Entity, id)
		}
	}
	if p.FallbackPrefix != "" && !Valid(strings.TrimSuffix(p.FallbackPrefix, "-")) {
		return fmt.Errorf("slug policy %s: invalid fallback prefix %q", p.Entity, p.FallbackPrefix)
	}
	return nil
}

// Global reports whether the slug is unique across the whole table.
func (p Policy) Global() bool { return len(p.ScopeFields) == 0 }

// Bind picks this policy's scope columns out of refs. Every scope column must
// be present in refs; a nil value scopes to rows where the column IS NULL.
func (p Policy) Bind(refs Scope) (Scope, error) {
	if p.Global() {
		return Scope{}, nil
	}
	bound := make(Scope, len(p.ScopeFields))
	for _, f := range p.ScopeFields {
		v, ok := refs[f]
		if !ok {
			return nil, fmt.Errorf("%w: %s requires %s", ErrMissingScope, p.Entity, f)
		}
		bound[f] = v
	}
	return bound, nil
}

// Scope maps scope columns to the values an entity holds for them.
type Scope map[string]any

// Key renders the scope as a stable string, e.g. "state_id=3".
func (s Scope) Key() string {
	if len(s) == 0 {
		return ""
	}
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, s[k]))
	}
	return strings.Join(parts, ",")
}

// Registry is the per-entity policy table. It is built once at startup and
// read concurrently afterwards.
type Registry struct {
	policies map[string]Policy
}

func NewRegistry(policies ...Policy) (*Registry, error) {
	reg := &Registry{policies: make(map[string]Policy, len(policies))}
	for _, p := range policies {
		if err := reg.Register(p); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// Register adds p, replacing any policy already registered for p.Entity.
func (r *Registry) Register(p Policy) error {
	p = p.withDefaults()
	if err := p.validate(); err != nil {
		return err
	}
	r.policies[p.Entity] = p
	return nil
}

func (r *Registry) Lookup(entity string) (Policy, error) {
	p, ok := r.policies[entity]
	if !ok {
		return Policy{}, fmt.Errorf("%w: %q", ErrUnknownEntity, entity)
	}
	return p, nil
}

// Entities lists the registered entity types in sorted order.
func (r *Registry) Entities() []string {
	out := make([]string, 0, len(r.policies))
	for e := range r.policies {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

type policyFile struct {
	Entities []Policy `yaml:"entities"`
}

// LoadYAML registers every policy listed under the "entities" key of the
// document read from rd. Listed entities replace existing rows wholesale.
func (r *Registry) LoadYAML(rd io.Reader) error {
	var f policyFile
	dec := yaml.NewDecoder(rd)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode slug policies: %w", err)
	}
	for _, p := range f.Entities {
		if err := r.Register(p); err != nil {
			return err
		}
	}
	return nil
}
