package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGeneratedSchemaIsCurrent(t *testing.T) {
	s, err := Load("../../pkg/typedb/schema/schema.yaml")
	require.NoError(t, err)

	want, err := os.ReadFile("../../pkg/typedb/schema/schema.tql")
	require.NoError(t, err)
	require.Equal(t, string(want), s.Render(),
		"schema.tql is stale, run go generate ./pkg/typedb")
}

func TestValidateCatchesUndeclaredAttribute(t *testing.T) {
	s := &Schema{
		Attributes: []Attribute{{Name: "id", Type: "string"}},
		Entities:   []Entity{{Name: "widget", Owns: []string{"id @key", "color"}}},
	}
	err := s.Validate()
	require.ErrorContains(t, err, `owns undeclared attribute "color"`)
}

func TestValidateCatchesUnknownRole(t *testing.T) {
	s := &Schema{
		Attributes: []Attribute{{Name: "id", Type: "string"}},
		Entities:   []Entity{{Name: "widget", Plays: []string{"ownership:owner"}}},
		Relations:  []Relation{{Name: "ownership", Relates: []string{"holder", "item"}}},
	}
	err := s.Validate()
	require.ErrorContains(t, err, `plays unknown role "ownership:owner"`)
}

func TestValidateCatchesBadValueType(t *testing.T) {
	s := &Schema{Attributes: []Attribute{{Name: "id", Type: "uuid"}}}
	err := s.Validate()
	require.ErrorContains(t, err, `unknown value type "uuid"`)
}

func TestRenderLaysOutTypes(t *testing.T) {
	s := &Schema{
		Attributes: []Attribute{{Name: "id", Type: "string"}},
		Entities: []Entity{
			{Name: "widget", Owns: []string{"id @key"}, Plays: []string{"ownership:item"}},
			{Name: "gadget", Sub: "widget"},
		},
		Relations: []Relation{{Name: "ownership", Relates: []string{"holder", "item"}}},
	}
	require.NoError(t, s.Validate())

	out := s.Render()
	require.Contains(t, out, "attribute id value string;\n")
	require.Contains(t, out, "entity widget,\n    owns id @key,\n    plays ownership:item;\n")
	require.Contains(t, out, "entity gadget sub widget;\n")
	require.Contains(t, out, "relation ownership,\n    relates holder,\n    relates item;\n")
	require.Equal(t, []string{"ownership:holder", "ownership:item"}, s.Roles())
}
