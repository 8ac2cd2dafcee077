// Command schemagen compiles the declarative schema definition
// (pkg/typedb/schema/schema.yaml) into the TypeQL define script the server
// is provisioned with. The runtime never derives the schema from Go types;
// this tool is the single place the graph vocabulary is decided.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Schema is the root of the declarative definition.
type Schema struct {
	Attributes []Attribute `yaml:"attributes"`
	Entities   []Entity    `yaml:"entities"`
	Relations  []Relation  `yaml:"relations"`
}

// Attribute declares a named attribute type.
type Attribute struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// Entity declares an entity type. Owns entries carry optional annotations
// verbatim ("id @key"); Plays entries are "relation:role" pairs.
type Entity struct {
	Name     string   `yaml:"name"`
	Sub      string   `yaml:"sub"`
	Abstract bool     `yaml:"abstract"`
	Owns     []string `yaml:"owns"`
	Plays    []string `yaml:"plays"`
}

// Relation declares a relation type with its role names.
type Relation struct {
	Name    string   `yaml:"name"`
	Relates []string `yaml:"relates"`
	Owns    []string `yaml:"owns"`
	Plays   []string `yaml:"plays"`
}

var attributeValueTypes = map[string]bool{
	"string": true, "boolean": true, "integer": true, "double": true,
	"decimal": true, "date": true, "datetime": true, "datetime-tz": true,
	"duration": true,
}

// Load reads and validates a schema definition file.
func Load(path string) (*Schema, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var s Schema
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &s, nil
}

// Validate checks that every reference in the definition resolves: owned
// attributes are declared, played roles exist on a declared relation, and
// parent types exist.
func (s *Schema) Validate() error {
	attrs := make(map[string]bool, len(s.Attributes))
	for _, a := range s.Attributes {
		if a.Name == "" {
			return fmt.Errorf("attribute with empty name")
		}
		if !attributeValueTypes[a.Type] {
			return fmt.Errorf("attribute %q: unknown value type %q", a.Name, a.Type)
		}
		if attrs[a.Name] {
			return fmt.Errorf("attribute %q declared twice", a.Name)
		}
		attrs[a.Name] = true
	}

	entities := make(map[string]bool, len(s.Entities))
	for _, e := range s.Entities {
		if entities[e.Name] {
			return fmt.Errorf("entity %q declared twice", e.Name)
		}
		entities[e.Name] = true
	}
	roles := make(map[string]bool)
	relations := make(map[string]bool, len(s.Relations))
	for _, r := range s.Relations {
		if relations[r.Name] {
			return fmt.Errorf("relation %q declared twice", r.Name)
		}
		relations[r.Name] = true
		if len(r.Relates) < 2 {
			return fmt.Errorf("relation %q: needs at least two roles", r.Name)
		}
		for _, role := range r.Relates {
			roles[r.Name+":"+role] = true
		}
	}

	for _, e := range s.Entities {
		if e.Sub != "" && !entities[e.Sub] {
			return fmt.Errorf("entity %q: unknown supertype %q", e.Name, e.Sub)
		}
		if err := checkOwns(e.Name, e.Owns, attrs); err != nil {
			return err
		}
		if err := checkPlays(e.Name, e.Plays, roles); err != nil {
			return err
		}
	}
	for _, r := range s.Relations {
		if err := checkOwns(r.Name, r.Owns, attrs); err != nil {
			return err
		}
		if err := checkPlays(r.Name, r.Plays, roles); err != nil {
			return err
		}
	}
	return nil
}

func checkOwns(owner string, owns []string, attrs map[string]bool) error {
	for _, o := range owns {
		name, _, _ := strings.Cut(o, " ")
		if !attrs[name] {
			return fmt.Errorf("%s: owns undeclared attribute %q", owner, name)
		}
	}
	return nil
}

func checkPlays(player string, plays []string, roles map[string]bool) error {
	for _, p := range plays {
		if !roles[p] {
			return fmt.Errorf("%s: plays unknown role %q", player, p)
		}
	}
	return nil
}

// Render emits the TypeQL define script. Output is deterministic: types
// keep definition order, so regenerating an unchanged definition produces
// an identical file.
func (s *Schema) Render() string {
	var b strings.Builder
	b.WriteString("# Code generated by schemagen from schema.yaml. DO NOT EDIT.\n\n")
	b.WriteString("define\n\n")

	for _, a := range s.Attributes {
		fmt.Fprintf(&b, "attribute %s value %s;\n", a.Name, a.Type)
	}

	for _, e := range s.Entities {
		head := "entity " + e.Name
		if e.Sub != "" {
			head += " sub " + e.Sub
		}
		if e.Abstract {
			head += " @abstract"
		}
		writeType(&b, head, clauseList(e.Owns, e.Plays))
	}
	for _, r := range s.Relations {
		clauses := make([]string, 0, len(r.Relates)+len(r.Owns)+len(r.Plays))
		for _, role := range r.Relates {
			clauses = append(clauses, "relates "+role)
		}
		clauses = append(clauses, clauseList(r.Owns, r.Plays)...)
		writeType(&b, "relation "+r.Name, clauses)
	}
	return b.String()
}

func clauseList(owns, plays []string) []string {
	clauses := make([]string, 0, len(owns)+len(plays))
	for _, o := range owns {
		clauses = append(clauses, "owns "+o)
	}
	for _, p := range plays {
		clauses = append(clauses, "plays "+p)
	}
	return clauses
}

func writeType(b *strings.Builder, head string, clauses []string) {
	b.WriteString("\n")
	if len(clauses) == 0 {
		b.WriteString(head + ";\n")
		return
	}
	b.WriteString(head + ",\n    ")
	b.WriteString(strings.Join(clauses, ",\n    "))
	b.WriteString(";\n")
}

// Roles returns every declared relation:role pair, sorted. Kept exported
// for the test suite and for future boilerplate emitters.
func (s *Schema) Roles() []string {
	var out []string
	for _, r := range s.Relations {
		for _, role := range r.Relates {
			out = append(out, r.Name+":"+role)
		}
	}
	sort.Strings(out)
	return out
}

func main() {
	in := flag.String("in", "pkg/typedb/schema/schema.yaml", "declarative schema definition")
	out := flag.String("out", "pkg/typedb/schema/schema.tql", "TypeQL output file")
	flag.Parse()

	s, err := Load(*in)
	if err != nil {
		log.Fatal(err)
	}
	if err := os.WriteFile(*out, []byte(s.Render()), 0o644); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("wrote %s: %d attributes, %d entities, %d relations\n",
		*out, len(s.Attributes), len(s.Entities), len(s.Relations))
}
