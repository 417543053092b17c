package entity

// FieldSpec describes one content field of an entity type, in the order
// it should appear in seeded documents.
type FieldSpec struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
}

// Template describes an entity type a document can be created as: its
// display metadata and the ordered set of content fields a fresh document
// starts with.
type Template struct {
	// Entity type identifier (set during YAML loading from the file name)
	Type string `yaml:"-" json:"type"`

	DisplayName  string      `yaml:"display_name" json:"display_name"`
	DefaultTitle string      `yaml:"default_title" json:"default_title"`
	Fields       []FieldSpec `yaml:"fields" json:"fields"`
}
