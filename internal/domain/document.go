package domain

// Metadata keys persisted on the stored document. The external layout is a
// flat string map; everything inside the process works with the typed
// DocumentState and serializes at the object-store boundary only.
const (
	MetaConverted         = "converted"
	MetaEmbeddingsAdded   = "embeddings_added"
	MetaConvertedFilename = "converted_filename"
)

// ConvertedPrefix is the object-store key prefix for converted text
// artifacts. Listings of source documents skip keys under it.
const ConvertedPrefix = "converted/"

// DocumentState is the per-document pipeline state record. Identity is the
// logical filename, unique within the bucket namespace.
type DocumentState struct {
	Filename          string `json:"filename"`
	Converted         bool   `json:"converted"`
	EmbeddingsAdded   bool   `json:"embeddings_added"`
	ConvertedFilename string `json:"converted_filename"`
}

// StateUpdate is a partial metadata update with merge semantics: nil fields
// are preserved, not cleared.
type StateUpdate struct {
	Converted         *bool
	EmbeddingsAdded   *bool
	ConvertedFilename *string
}

// Apply merges the update into the state.
func (u StateUpdate) Apply(s *DocumentState) {
	if u.Converted != nil {
		s.Converted = *u.Converted
	}
	if u.EmbeddingsAdded != nil {
		s.EmbeddingsAdded = *u.EmbeddingsAdded
	}
	if u.ConvertedFilename != nil {
		s.ConvertedFilename = *u.ConvertedFilename
	}
}

// ToMetadata serializes only the fields the update sets, for merging into
// the stored string map.
func (u StateUpdate) ToMetadata() map[string]string {
	meta := make(map[string]string)
	if u.Converted != nil {
		meta[MetaConverted] = boolString(*u.Converted)
	}
	if u.EmbeddingsAdded != nil {
		meta[MetaEmbeddingsAdded] = boolString(*u.EmbeddingsAdded)
	}
	if u.ConvertedFilename != nil {
		meta[MetaConvertedFilename] = *u.ConvertedFilename
	}
	return meta
}

// ToMetadata serializes the state to the flat string-map layout used by the
// object store.
func (s DocumentState) ToMetadata() map[string]string {
	return map[string]string{
		MetaConverted:         boolString(s.Converted),
		MetaEmbeddingsAdded:   boolString(s.EmbeddingsAdded),
		MetaConvertedFilename: s.ConvertedFilename,
	}
}

// StateFromMetadata parses a document state from the flat string-map layout.
// Missing or malformed flags default to false, matching the original
// storage convention.
func StateFromMetadata(filename string, meta map[string]string) DocumentState {
	return DocumentState{
		Filename:          filename,
		Converted:         meta[MetaConverted] == "true",
		EmbeddingsAdded:   meta[MetaEmbeddingsAdded] == "true",
		ConvertedFilename: meta[MetaConvertedFilename],
	}
}

// ConvertedKey returns the object-store key of the converted artifact, or
// empty if no artifact exists.
func (s DocumentState) ConvertedKey() string {
	if s.ConvertedFilename == "" {
		return ""
	}
	return ConvertedPrefix + s.ConvertedFilename
}

// DocRef returns the reference stored in vector record filename metadata:
// the converted artifact key for converted documents, the source filename
// for plain-text documents that never produced one.
func (s DocumentState) DocRef() string {
	if key := s.ConvertedKey(); key != "" {
		return key
	}
	return s.Filename
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// BoolPtr returns a pointer to b, for building StateUpdate values.
func BoolPtr(b bool) *bool { return &b }

// StringPtr returns a pointer to s, for building StateUpdate values.
func StringPtr(s string) *string { return &s }
