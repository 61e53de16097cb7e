// Package processor finds annotatable fields in structured content.
//
// Each processor turns a document into TextNodes whose IDs identify a place
// in the parsed document, and splices rewritten field values back by ID.
package processor

import "github.com/ZaguanLabs/duotext"

// ContentProcessor is an alias to the main package interface.
type ContentProcessor = duotext.ContentProcessor

// TextNode is an alias to the main package type.
type TextNode = duotext.TextNode

// Register adds the built-in processors to an annotator's options.
func Register() []duotext.AnnotatorOption {
	return []duotext.AnnotatorOption{
		duotext.WithProcessor(NewHTMLProcessor()),
		duotext.WithProcessor(NewGoProcessor()),
	}
}

func invalidParsed(contentType string) error {
	return &duotext.ProcessorError{
		Message:     "invalid parsed content type",
		ContentType: contentType,
	}
}
