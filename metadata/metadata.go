package metadata

import (
	"context"
	"fmt"
	"strings"

	"github.com/MadBomber/ragdoll-core/document"
	"github.com/MadBomber/ragdoll-core/gateway"
)

const contentPreviewCap = 2000

// ValidationError records a missing-required-field problem; it is recorded
// in logs but, per §4.4, does not discard otherwise-valid fields.
type ValidationError struct {
	Schema string
	Field  string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("metadata schema %s: missing required field %q", e.Schema, e.Field)
}

// Generator builds provider prompts constrained by media-type-specific
// schemas, validates the result, and merges it over existing metadata.
type Generator struct {
	gw *gateway.Gateway
}

func New(gw *gateway.Gateway) *Generator {
	return &Generator{gw: gw}
}

// Generate builds metadata for a document of the given type and content,
// merging the result over existing (caller-set values win, per §4.4).
func (g *Generator) Generate(ctx context.Context, docType document.Type, content string, fileMetadata map[string]interface{}, existing map[string]interface{}) (map[string]interface{}, []error) {
	schema := SchemaFor(docType)

	// generate_metadata is a no-op if required metadata keys already
	// present (spec §4.5 job 2).
	if hasAllRequired(schema, existing) {
		return existing, nil
	}

	prompt := buildPrompt(schema, docType, content, fileMetadata)

	// maxLength=0 defers to the gateway's configured summary_max_length
	// rather than a value hardcoded here, so generated summaries respect
	// whatever bound the caller configured (spec §8 seed scenario 5).
	summary, err := g.gw.Summarize(ctx, prompt, 0)
	generated := map[string]interface{}{}
	if err == nil && summary != "" {
		generated["summary"] = summary
	}

	keywords, err := g.gw.ExtractKeywords(ctx, content, 10)
	if err == nil && len(keywords) > 0 {
		generated["keywords"] = keywords
	}

	generated = fillSchemaDefaults(schema, generated)

	validated, valErrs := Validate(schema, generated)
	return Merge(existing, validated), valErrs
}

func hasAllRequired(schema Schema, metadata map[string]interface{}) bool {
	if metadata == nil {
		return false
	}
	for _, name := range schema.RequiredFields() {
		if _, ok := metadata[name]; !ok {
			return false
		}
	}
	return true
}

func buildPrompt(schema Schema, docType document.Type, content string, fileMetadata map[string]interface{}) string {
	preview := content
	if runes := []rune(preview); len(runes) > contentPreviewCap {
		preview = string(runes[:contentPreviewCap])
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Generate metadata for a %s document matching schema %s.\n", docType, schema.Name)
	fmt.Fprintf(&sb, "Required fields: %s\n", strings.Join(schema.RequiredFields(), ", "))
	if docType == document.TypePDF || docType == document.TypeImage || docType == document.TypeAudio {
		fmt.Fprintf(&sb, "File metadata: %v\n", fileMetadata)
	}
	fmt.Fprintf(&sb, "Content:\n%s\n", preview)
	return sb.String()
}

// fillSchemaDefaults ensures every schema field the gateway calls didn't
// populate gets a deterministic placeholder, so Validate can report
// missing-required-field problems precisely rather than failing the whole
// batch.
func fillSchemaDefaults(schema Schema, generated map[string]interface{}) map[string]interface{} {
	if _, ok := generated["classification"]; !ok {
		generated["classification"] = defaultClassifications[len(defaultClassifications)-1] // "other"
	}
	switch schema.Name {
	case "IMAGE":
		setIfAbsent(generated, "description", "")
		setIfAbsent(generated, "scene_type", "unknown")
	case "AUDIO":
		setIfAbsent(generated, "content_type", "speech")
	case "PDF":
		setIfAbsent(generated, "document_type", "document")
	case "MIXED":
		setIfAbsent(generated, "content_types", []string{"text"})
		setIfAbsent(generated, "primary_content_type", "text")
	}
	return generated
}

func setIfAbsent(m map[string]interface{}, key string, value interface{}) {
	if _, ok := m[key]; !ok {
		m[key] = value
	}
}

// Validate drops unknown/invalid fields without logging or reporting them,
// and returns ValidationErrors only for missing required fields, without
// discarding the valid fields that remain.
func Validate(schema Schema, candidate map[string]interface{}) (map[string]interface{}, []error) {
	valid := make(map[string]interface{})
	var errs []error

	for _, f := range schema.Fields {
		v, present := candidate[f.Name]
		if !present {
			if f.Required {
				errs = append(errs, ValidationError{Schema: schema.Name, Field: f.Name})
			}
			continue
		}
		if !fieldValueValid(f, v) {
			continue // dropped: invalid shape for its kind
		}
		valid[f.Name] = v
	}

	return valid, errs
}

func fieldValueValid(f Field, v interface{}) bool {
	switch f.Kind {
	case FieldString:
		_, ok := v.(string)
		return ok
	case FieldStringArr:
		arr, ok := v.([]string)
		if !ok {
			return false
		}
		if f.MaxItems > 0 && len(arr) > f.MaxItems {
			return false
		}
		return true
	case FieldEnum:
		s, ok := v.(string)
		if !ok {
			return false
		}
		for _, e := range f.Enum {
			if e == s {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// Merge layers generated metadata under existing metadata: caller-set
// values (already present in existing) win, per §4.4.
func Merge(existing, generated map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(existing)+len(generated))
	for k, v := range generated {
		merged[k] = v
	}
	for k, v := range existing {
		merged[k] = v
	}
	return merged
}
