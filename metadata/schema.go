// Package metadata implements the metadata generator (spec §4.4): schema
// selection by document type, prompt building, validation, and
// merge-over-existing.
package metadata

import "github.com/MadBomber/ragdoll-core/document"

// FieldKind constrains the accepted shape of a metadata field's value.
type FieldKind string

const (
	FieldString    FieldKind = "string"
	FieldStringArr FieldKind = "string_array"
	FieldEnum      FieldKind = "enum"
)

// Field describes one schema field.
type Field struct {
	Name     string
	Kind     FieldKind
	Required bool
	Enum     []string // only meaningful when Kind == FieldEnum
	MaxItems int       // only meaningful when Kind == FieldStringArr; 0 = unbounded
}

// Schema is the set of fields a document type's generated metadata must
// conform to (spec §3 invariant 5).
type Schema struct {
	Name   string
	Fields []Field
}

func (s Schema) RequiredFields() []string {
	var req []string
	for _, f := range s.Fields {
		if f.Required {
			req = append(req, f.Name)
		}
	}
	return req
}

func (s Schema) field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Schemas, keyed by document.Type, per the required-field table in §4.4.
var Schemas = map[document.Type]Schema{
	document.TypeText: {
		Name: "TEXT",
		Fields: []Field{
			{Name: "summary", Kind: FieldString, Required: true},
			{Name: "keywords", Kind: FieldStringArr, Required: true, MaxItems: 20},
			{Name: "classification", Kind: FieldEnum, Required: true, Enum: defaultClassifications},
		},
	},
	document.TypeImage: {
		Name: "IMAGE",
		Fields: []Field{
			{Name: "description", Kind: FieldString, Required: true},
			{Name: "summary", Kind: FieldString, Required: true},
			{Name: "scene_type", Kind: FieldString, Required: true},
			{Name: "classification", Kind: FieldEnum, Required: true, Enum: defaultClassifications},
		},
	},
	document.TypeAudio: {
		Name: "AUDIO",
		Fields: []Field{
			{Name: "summary", Kind: FieldString, Required: true},
			{Name: "content_type", Kind: FieldString, Required: true},
			{Name: "classification", Kind: FieldEnum, Required: true, Enum: defaultClassifications},
		},
	},
	document.TypePDF: {
		Name: "PDF",
		Fields: []Field{
			{Name: "summary", Kind: FieldString, Required: true},
			{Name: "document_type", Kind: FieldString, Required: true},
			{Name: "classification", Kind: FieldEnum, Required: true, Enum: defaultClassifications},
		},
	},
	document.TypeMixed: {
		Name: "MIXED",
		Fields: []Field{
			{Name: "summary", Kind: FieldString, Required: true},
			{Name: "content_types", Kind: FieldStringArr, Required: true},
			{Name: "primary_content_type", Kind: FieldString, Required: true},
			{Name: "classification", Kind: FieldEnum, Required: true, Enum: defaultClassifications},
		},
	},
}

var defaultClassifications = []string{
	"reference", "narrative", "technical", "correspondence", "financial", "other",
}

// SchemaFor selects a schema by document type, defaulting unrecognized types
// (docx, html, markdown) to the TEXT schema.
func SchemaFor(t document.Type) Schema {
	if s, ok := Schemas[t]; ok {
		return s
	}
	return Schemas[document.TypeText]
}
