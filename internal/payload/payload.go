// Package payload generates request payloads from the semantic type tags
// declared in the endpoint catalog.
package payload

import (
	"fmt"
	"math/rand"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/apiprobe/apiprobe/internal/catalog"
)

// Kind is the closed set of payload field variants. Unknown catalog tags
// map to KindOther rather than being silently stringified.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindBoolean
	KindArray
	KindObject
	KindFile
	KindOther
)

// ParseKind maps a catalog type tag to its variant
func ParseKind(tag string) Kind {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "string":
		return KindString
	case "number", "integer":
		return KindNumber
	case "boolean", "bool":
		return KindBoolean
	case "array":
		return KindArray
	case "object":
		return KindObject
	case "file":
		return KindFile
	default:
		return KindOther
	}
}

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindFile:
		return "file"
	default:
		return "other"
	}
}

// Generator produces test values for payload fields
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator seeded from the current time
func NewGenerator() *Generator {
	return NewSeededGenerator(time.Now().UnixNano())
}

// NewSeededGenerator creates a generator with a fixed seed, for
// reproducible payloads
func NewSeededGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Value generates a test value for one variant, using the field name for
// context where it helps (identifiers, emails).
func (g *Generator) Value(kind Kind, field string) any {
	switch kind {
	case KindString:
		return g.generateString(field)
	case KindNumber:
		return g.generateNumber()
	case KindBoolean:
		return true
	case KindArray:
		return g.generateArray()
	case KindObject:
		return g.generateObject()
	case KindFile:
		return g.generateFile(field)
	default:
		return nil
	}
}

// Build generates a request body for a payload schema. A nil or empty
// schema yields nil, meaning no body should be sent.
func (g *Generator) Build(schema catalog.Schema) map[string]any {
	if len(schema) == 0 {
		return nil
	}
	body := make(map[string]any, len(schema))
	for _, field := range sortedFields(schema) {
		body[field] = g.Value(ParseKind(schema[field]), field)
	}
	return body
}

// Query generates URL query values for a query schema
func (g *Generator) Query(schema catalog.Schema) url.Values {
	values := url.Values{}
	for _, field := range sortedFields(schema) {
		values.Set(field, fmt.Sprintf("%v", g.Value(ParseKind(schema[field]), field)))
	}
	return values
}

// sortedFields keeps generation order stable so seeded generators are
// reproducible
func sortedFields(schema catalog.Schema) []string {
	fields := make([]string, 0, len(schema))
	for field := range schema {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

func (g *Generator) generateString(field string) string {
	name := strings.ToLower(field)
	switch {
	case strings.Contains(name, "id"):
		return uuid.NewString()
	case strings.Contains(name, "email"):
		return "test@example.com"
	case strings.Contains(name, "date"), strings.Contains(name, "time"):
		return time.Now().UTC().Format(time.RFC3339)
	case strings.Contains(name, "url"), strings.Contains(name, "uri"):
		return "https://example.com"
	default:
		return fmt.Sprintf("test-%s-%d", field, g.rng.Intn(1000))
	}
}

func (g *Generator) generateNumber() float64 {
	return float64(g.rng.Intn(100))
}

func (g *Generator) generateArray() []any {
	count := 1 + g.rng.Intn(3)
	items := make([]any, count)
	for i := range items {
		items[i] = fmt.Sprintf("item-%d", i)
	}
	return items
}

func (g *Generator) generateObject() map[string]any {
	return map[string]any{
		"key":   fmt.Sprintf("value-%d", g.rng.Intn(1000)),
		"count": float64(g.rng.Intn(10)),
	}
}

// generateFile yields a placeholder descriptor; actual multipart encoding
// is up to the HTTP layer
func (g *Generator) generateFile(field string) map[string]any {
	return map[string]any{
		"filename":    fmt.Sprintf("%s.txt", field),
		"contentType": "text/plain",
		"content":     "test file content",
	}
}
