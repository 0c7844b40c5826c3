package graphql

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// Document is a parsed GraphQL operation ready to send
type Document struct {
	Query     string
	Name      string
	Operation ast.Operation
}

// IsMutation reports whether the document is a mutation
func (d Document) IsMutation() bool {
	return d.Operation == ast.Mutation
}

// ParseDocument checks that query is syntactically valid and holds exactly
// one named operation
func ParseDocument(query string) (Document, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: query})
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if len(doc.Operations) != 1 {
		return Document{}, fmt.Errorf("%w: expected one operation, got %d", ErrInvalidDocument, len(doc.Operations))
	}
	op := doc.Operations[0]
	if op.Name == "" {
		return Document{}, fmt.Errorf("%w: operation must be named", ErrInvalidDocument)
	}
	return Document{
		Query:     query,
		Name:      op.Name,
		Operation: op.Operation,
	}, nil
}

// MustParseDocument is ParseDocument for documents compiled into the binary
func MustParseDocument(query string) Document {
	doc, err := ParseDocument(query)
	if err != nil {
		panic(err)
	}
	return doc
}
