package gemini

// Image is a decoded image payload. Data holds raw bytes; base64 encoding
// happens only at the wire boundary.
type Image struct {
	Data     []byte
	MimeType string
}

func (img Image) Empty() bool {
	return len(img.Data) == 0
}

// SchemaKind selects the shape of a structured text response.
type SchemaKind string

const (
	SchemaStrings SchemaKind = "array_of_string"
	SchemaObjects SchemaKind = "array_of_object"
)

// Schema declares the structured shape requested from the service: an
// array of strings, or an array of objects whose named properties are all
// strings.
type Schema struct {
	Kind       SchemaKind
	Properties []string
}

// TextConfig configures a text generation request. A nil Schema requests
// free text; a non-nil Schema constrains the response to JSON matching it.
type TextConfig struct {
	Schema *Schema
}

// ImageConfig configures an image generation or edit request. The response
// always requests both IMAGE and TEXT modalities.
type ImageConfig struct {
	AspectRatio string
}
