package llm

import "context"

// Request carries exactly one input for a structured extraction call: either
// recovered document text or a prepared PNG of the document's first page.
type Request struct {
	Text     string
	ImagePNG []byte
}

// Invoker sends the fixed extraction prompt to a generative model backend
// and returns the raw reply text. It does not validate the reply's shape;
// the sanitizer owns that.
type Invoker interface {
	Invoke(ctx context.Context, req Request) (string, error)
}
