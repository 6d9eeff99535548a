package testutil

// ScenarioDocuments is the end-to-end fixture: three poems, two characters
// and one scene. Scene S1 and poem P1 mirror each other; P2 references a
// character that does not exist.
func ScenarioDocuments() map[string]string {
	return map[string]string{
		"poems": `{
  "version": "1.0",
  "poems": [
    {"id": "P1", "title": "Quiet Night Thought", "author": "Li Bai", "dynasty": "Tang",
     "characters": ["C1"], "locations": ["S1"], "importance": 9},
    {"id": "P2", "title": "Spring Dawn", "author": "Meng Haoran", "dynasty": "Tang",
     "characters": ["C_unknown"], "importance": 6},
    {"id": "P3", "title": "Climbing Stork Tower", "author": "Wang Zhihuan", "dynasty": "Tang",
     "characters": [{"id": "C2", "name": "The Traveller"}], "importance": 7}
  ]
}`,
		"characters": `{
  "characters": {
    "poets": [
      {"id": "C1", "name": "Li Bai", "description": "Wandering poet", "poems": ["P1"]}
    ],
    "travellers": [
      {"id": "C2", "name": "Traveller", "description": "Climbs the tower", "poems": ["P3"]}
    ]
  }
}`,
		"scenes": `{
  "scenes": [
    {"id": "S1", "name": "Moonlit courtyard", "poem_id": "P1", "type": "night"}
  ]
}`,
	}
}

// CleanDocuments is ScenarioDocuments with the dangling reference removed.
// It has zero referential issues.
func CleanDocuments() map[string]string {
	docs := ScenarioDocuments()
	docs["poems"] = `{
  "version": "1.0",
  "poems": [
    {"id": "P1", "title": "Quiet Night Thought", "author": "Li Bai", "dynasty": "Tang",
     "characters": ["C1"], "locations": ["S1"], "importance": 9},
    {"id": "P2", "title": "Spring Dawn", "author": "Meng Haoran", "dynasty": "Tang",
     "characters": [], "importance": 6},
    {"id": "P3", "title": "Climbing Stork Tower", "author": "Wang Zhihuan", "dynasty": "Tang",
     "characters": [{"id": "C2", "name": "The Traveller"}], "importance": 7}
  ]
}`
	return docs
}

// FrameworkDocuments is a consistent controlled-redundancy fixture: two
// framework documents sharing one version, each declaring used,
// resolvable cross-references.
func FrameworkDocuments() map[string]string {
	docs := CleanDocuments()
	docs["framework/core"] = `{
  "version": "2.1.0",
  "summary": "Core reading of $xref:poem_titles and $xref:cast",
  "principles": ["restraint", "imagery", "return", "distance", "silence",
                 "seasons", "moonlight", "exile", "friendship", "wine"],
  "notes": {"editor": "A", "status": "draft", "year": 2024, "pages": 12},
  "controlled_redundancy": {
    "referenced_files": ["poems", "characters"],
    "cross_references": {
      "poem_titles": "poems.poems.*.title",
      "cast": "characters.characters.poets"
    }
  }
}`
	docs["framework/layers"] = `{
  "version": "2.1.0",
  "layers": ["literal", "imagistic", "emotional", "philosophical"],
  "intro": "Layers reference $xref:scene_names",
  "controlled_redundancy": {
    "referenced_files": ["scenes"],
    "cross_references": {
      "scene_names": "scenes.scenes.*.name"
    }
  }
}`
	return docs
}

// FrameworkSchema declares the framework group used by FrameworkDocuments.
func FrameworkSchema() string {
	return `frameworks:
  - name: core
    documents: [framework/core, framework/layers]
`
}
