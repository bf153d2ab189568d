package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bookSchema = `[
	{"name": "title", "type": "text", "required": true},
	{"name": "pages", "type": "number"},
	{"name": "published", "type": "date"},
	{"name": "hardcover", "type": "boolean"},
	{"name": "genre", "type": "select", "options": ["fiction", "nonfiction"]}
]`

func TestParseFields(t *testing.T) {
	fields, err := ParseFields(bookSchema)
	require.NoError(t, err)
	require.Len(t, fields, 5)
	assert.Equal(t, "title", fields[0].Name)
	assert.True(t, fields[0].Required)
}

func TestParseFieldsRejectsBadSchemas(t *testing.T) {
	cases := map[string]string{
		"not json":       `{"name":`,
		"empty list":     `[]`,
		"empty name":     `[{"name": "", "type": "text"}]`,
		"duplicate name": `[{"name": "a", "type": "text"}, {"name": "a", "type": "number"}]`,
		"unknown type":   `[{"name": "a", "type": "blob"}]`,
		"bare select":    `[{"name": "a", "type": "select"}]`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseFields(raw)
			assert.Error(t, err)
		})
	}
}

func TestValidateAcceptsWellFormedPayload(t *testing.T) {
	fields, err := ParseFields(bookSchema)
	require.NoError(t, err)

	err = fields.Validate(map[string]interface{}{
		"title":     "The Go Programming Language",
		"pages":     float64(380),
		"published": "2015-11-16",
		"hardcover": true,
		"genre":     "nonfiction",
	})
	assert.NoError(t, err)
}

func TestValidateOptionalFieldsMayBeOmitted(t *testing.T) {
	fields, err := ParseFields(bookSchema)
	require.NoError(t, err)

	assert.NoError(t, fields.Validate(map[string]interface{}{"title": "minimal"}))
}

func TestValidateRejections(t *testing.T) {
	fields, err := ParseFields(bookSchema)
	require.NoError(t, err)

	cases := map[string]map[string]interface{}{
		"missing required": {"pages": float64(1)},
		"nil required":     {"title": nil},
		"unknown key":      {"title": "x", "isbn": "123"},
		"text type":        {"title": 42},
		"number type":      {"title": "x", "pages": "many"},
		"boolean type":     {"title": "x", "hardcover": "yes"},
		"date format":      {"title": "x", "published": "yesterday"},
		"date type":        {"title": "x", "published": float64(2015)},
		"select option":    {"title": "x", "genre": "poetry"},
		"select type":      {"title": "x", "genre": float64(1)},
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, fields.Validate(payload))
		})
	}
}

func TestValidateDateFormats(t *testing.T) {
	fields, err := ParseFields(bookSchema)
	require.NoError(t, err)

	for _, date := range []string{"2015-11-16", "2015-11-16T10:30:00Z", "2015-11-16T10:30:00+02:00"} {
		assert.NoError(t, fields.Validate(map[string]interface{}{
			"title":     "x",
			"published": date,
		}), date)
	}
}
