// Package document defines the polymorphic content/embedding data model
// described by the core: a Document with zero or more modality-specific
// content children, each owning zero or more Embeddings.
package document

import "time"

// Status is the lifecycle state of a Document.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusProcessed  Status = "processed"
	StatusError      Status = "error"
)

// Type identifies the document's media/source kind. It drives parser,
// chunker, and metadata-schema selection.
type Type string

const (
	TypeText     Type = "text"
	TypeImage    Type = "image"
	TypeAudio    Type = "audio"
	TypePDF      Type = "pdf"
	TypeDocx     Type = "docx"
	TypeHTML     Type = "html"
	TypeMarkdown Type = "markdown"
	TypeMixed    Type = "mixed"
)

// Document is one record per ingested source.
type Document struct {
	ID       string
	Location string
	Title    string
	Type     Type
	Status   Status

	// Metadata is AI-derived, schema-tagged (see package metadata).
	Metadata map[string]interface{}
	// FileMetadata is system-derived (size, MIME, dimensions, duration, ...).
	// Disjoint namespace from Metadata: writes to one never touch the other.
	FileMetadata map[string]interface{}

	FileBlob []byte

	CreatedAt time.Time
	UpdatedAt time.Time
}

// EmbeddableType names the kind of content record an Embedding belongs to.
type EmbeddableType string

const (
	EmbeddableText  EmbeddableType = "TextContent"
	EmbeddableImage EmbeddableType = "ImageContent"
	EmbeddableAudio EmbeddableType = "AudioContent"
)

// TextContent is a text-modality child of a Document.
type TextContent struct {
	ID             string
	DocumentID     string
	Content        string
	EmbeddingModel string
	ChunkSize      int
	Overlap        int
	Metadata       map[string]interface{}
}

// ImageContent is an image-modality child of a Document.
type ImageContent struct {
	ID          string
	DocumentID  string
	Description string
	AltText     string
	ImageBlob   []byte
	Metadata    map[string]interface{}
}

// AudioContent is an audio-modality child of a Document.
type AudioContent struct {
	ID         string
	DocumentID string
	Transcript string
	Duration   float64
	SampleRate int
	AudioBlob  []byte
	Metadata   map[string]interface{}
}

// Embedding is a polymorphic child of any content record: a fixed-dimension
// vector derived from one chunk of that record's content.
type Embedding struct {
	ID             string
	EmbeddableType EmbeddableType
	EmbeddableID   string
	ChunkIndex     int // unique per (EmbeddableType, EmbeddableID)
	Content        string
	Vector         []float64
	EmbeddingModel string
	UsageCount     int
	ReturnedAt     *time.Time
	Metadata       map[string]interface{}
	CreatedAt      time.Time
}
