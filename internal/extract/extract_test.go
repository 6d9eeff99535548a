package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidanlsb/lorecheck/internal/content"
	"github.com/aidanlsb/lorecheck/internal/issue"
	"github.com/aidanlsb/lorecheck/internal/schema"
	"github.com/aidanlsb/lorecheck/internal/testutil"
)

func parseDocs(t *testing.T, docs map[string]string) map[string]*content.Document {
	t.Helper()
	out := make(map[string]*content.Document, len(docs))
	for name, raw := range docs {
		doc, err := content.Parse(name, []byte(raw))
		require.NoError(t, err, name)
		out[name] = doc
	}
	return out
}

func TestExtractScenario(t *testing.T) {
	cols := Extract(parseDocs(t, testutil.ScenarioDocuments()), schema.Default())

	assert.Empty(t, cols.Problems())
	assert.Equal(t, 6, cols.Count())

	poems := cols.Entities("poem")
	require.Len(t, poems, 3)
	assert.Equal(t, "P1", poems[0].ID)
	assert.Equal(t, "Quiet Night Thought", poems[0].Title)
	assert.Equal(t, "poems", poems[0].Document)
	assert.Equal(t, 2, poems[2].Position)

	chars := cols.Entities("character")
	require.Len(t, chars, 2)
	assert.Equal(t, "C1", chars[0].ID)
	assert.Equal(t, "poets", chars[0].Category, "group key becomes the category")
	assert.Equal(t, "Li Bai", chars[0].Title)
	assert.Equal(t, "travellers", chars[1].Category)

	// Types whose document is absent extract as empty collections.
	col, ok := cols.Get("theme")
	require.True(t, ok)
	assert.Empty(t, col.Entities)
	assert.Equal(t, "themes", col.Document)
}

func TestExtractShapes(t *testing.T) {
	s, err := schema.Parse([]byte(`entities:
  place:
    document: atlas
    path: places
    shape: map
    aliases_field: aka
  person:
    document: atlas
    path: people.list
    title_field: label
`))
	require.NoError(t, err)

	docs := parseDocs(t, map[string]string{
		"atlas": `{
  "places": {
    "zz": {"name": "Last"},
    "aa": {"id": "A1", "name": "First", "aka": ["Start", " "]}
  },
  "people": {"list": [
    {"id": 7, "label": "Seven", "name": "ignored"},
    "not an object",
    {"label": "No id"}
  ]}
}`,
	})

	cols := Extract(docs, s)

	places := cols.Entities("place")
	require.Len(t, places, 2)
	assert.Equal(t, "A1", places[0].ID, "explicit id wins over the map key")
	assert.Equal(t, []string{"Start"}, places[0].Aliases)
	assert.Equal(t, "zz", places[1].ID, "map key is the fallback id")

	people := cols.Entities("person")
	require.Len(t, people, 1)
	assert.Equal(t, "7", people[0].ID)
	assert.Equal(t, "Seven", people[0].Title)

	problems := cols.Problems()
	require.Len(t, problems, 2)
	kinds := issue.CountByKind(problems)
	assert.Equal(t, 1, kinds[issue.MalformedEntity])
	assert.Equal(t, 1, kinds[issue.MissingID])
	for _, p := range problems {
		if p.Kind == issue.MissingID {
			assert.True(t, p.IsError())
			assert.Contains(t, p.Message, "person item 2 in atlas has no id")
		} else {
			assert.False(t, p.IsError())
		}
	}
}

func TestExtractShapeMismatch(t *testing.T) {
	docs := parseDocs(t, map[string]string{
		"poems":      `{"poems": {"P1": {"title": "x"}}}`,
		"characters": `{"cast": []}`,
	})

	cols := Extract(docs, schema.Default())

	assert.Empty(t, cols.Entities("poem"))
	assert.Empty(t, cols.Entities("character"))

	msgs := issue.Messages(cols.Problems())
	assert.Contains(t, msgs, `poem collection at "poems" in poems should be an array`)
	assert.Contains(t, msgs, `collection path "characters" for character not found in document characters`)
}

func TestExtractIsIdempotent(t *testing.T) {
	docs := parseDocs(t, testutil.ScenarioDocuments())
	s := schema.Default()

	a := Extract(docs, s)
	b := Extract(docs, s)

	for _, typ := range a.Types() {
		ea, eb := a.Entities(typ), b.Entities(typ)
		require.Len(t, eb, len(ea))
		for i := range ea {
			assert.Equal(t, ea[i].Key(), eb[i].Key())
			assert.Equal(t, ea[i].Position, eb[i].Position)
		}
	}
}

func TestGroupKeyFillsCategoryField(t *testing.T) {
	docs := parseDocs(t, map[string]string{
		"characters": `{"characters": {
  "poets": [{"id": "C1", "name": "Li Bai"}],
  "others": [{"id": "C2", "name": "Du Fu", "category": "sage"}]
}}`,
	})

	cols := Extract(docs, schema.Default())
	chars := cols.Entities("character")
	require.Len(t, chars, 2)

	// Groups are visited in key order: "others" before "poets".
	assert.Equal(t, "C2", chars[0].ID)
	assert.Equal(t, "sage", chars[0].Category)
	assert.Equal(t, "poets", chars[1].Category)
	assert.True(t, chars[1].Has("category"))

	raw := docs["characters"].Root()["characters"].(map[string]any)["poets"].([]any)[0].(map[string]any)
	_, mutated := raw["category"]
	assert.False(t, mutated, "extraction must not modify the document")
}
