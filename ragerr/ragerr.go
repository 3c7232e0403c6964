// Package ragerr defines the core's error taxonomy (spec §7): typed error
// kinds callers can match on with errors.As, each carrying the wrapped cause.
package ragerr

import "fmt"

// Kind identifies one of the taxonomy's error categories.
type Kind string

const (
	KindParse         Kind = "ParseError"
	KindEmbedding     Kind = "EmbeddingError"
	KindGeneration    Kind = "GenerationError"
	KindStorage       Kind = "StorageError"
	KindConfiguration Kind = "ConfigurationError"
	KindSearch        Kind = "SearchError"
	KindDocument      Kind = "DocumentError"
)

// Error is a taxonomy-tagged error, modeled on rag/reader.ReaderError.
type Error struct {
	Kind    Kind
	Source  string // document id, file path, provider name, etc.
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Source == "" {
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Kind, e.Source, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Source, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func new_(kind Kind, source, message string, err error) *Error {
	return &Error{Kind: kind, Source: source, Message: message, Err: err}
}

func NewParseError(source, message string, err error) *Error {
	return new_(KindParse, source, message, err)
}

func NewEmbeddingError(source, message string, err error) *Error {
	return new_(KindEmbedding, source, message, err)
}

func NewGenerationError(source, message string, err error) *Error {
	return new_(KindGeneration, source, message, err)
}

func NewStorageError(source, message string, err error) *Error {
	return new_(KindStorage, source, message, err)
}

func NewConfigurationError(source, message string, err error) *Error {
	return new_(KindConfiguration, source, message, err)
}

func NewSearchError(source, message string, err error) *Error {
	return new_(KindSearch, source, message, err)
}

func NewDocumentError(source, message string, err error) *Error {
	return new_(KindDocument, source, message, err)
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	return e.Kind == kind
}
