package scanner

import (
	"go/ast"
	"strings"
)

// Annotation kinds recognized in type doc comments.
const (
	AnnotIgnore = "ignore" // //autobind:ignore
	AnnotScope  = "scope"  // //autobind:scope singleton
	AnnotName   = "name"   // //autobind:name primary
	AnnotTag    = "tag"    // //autobind:tag handlers
)

// Annotation is a parsed //autobind: directive.
type Annotation struct {
	Kind  string
	Value string
}

// ParseAnnotations extracts //autobind: directives from a doc comment.
func ParseAnnotations(doc *ast.CommentGroup) []Annotation {
	if doc == nil {
		return nil
	}

	var annotations []Annotation
	for _, comment := range doc.List {
		text := strings.TrimSpace(strings.TrimPrefix(comment.Text, "//"))
		if !strings.HasPrefix(text, "autobind:") {
			continue
		}
		text = strings.TrimPrefix(text, "autobind:")

		kind, value, _ := strings.Cut(text, " ")
		kind = strings.TrimSpace(kind)
		switch kind {
		case AnnotIgnore, AnnotScope, AnnotName, AnnotTag:
			annotations = append(annotations, Annotation{Kind: kind, Value: strings.TrimSpace(value)})
		}
	}
	return annotations
}

// HasAnnotation reports whether annotations contain kind.
func HasAnnotation(annotations []Annotation, kind string) bool {
	for _, a := range annotations {
		if a.Kind == kind {
			return true
		}
	}
	return false
}

// GetAnnotationValues returns the non-empty values of every annotation of kind.
func GetAnnotationValues(annotations []Annotation, kind string) []string {
	var values []string
	for _, a := range annotations {
		if a.Kind == kind && a.Value != "" {
			values = append(values, a.Value)
		}
	}
	return values
}

// typeAnnotations indexes the annotations of every type declared in files,
// keyed by type name. A lone spec inherits the doc of its declaration:
//
//	//autobind:scope singleton
//	type Cache struct{}
func typeAnnotations(files []*ast.File) map[string][]Annotation {
	out := make(map[string][]Annotation)
	for _, f := range files {
		for _, decl := range f.Decls {
			gd, ok := decl.(*ast.GenDecl)
			if !ok {
				continue
			}
			for _, spec := range gd.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}
				doc := ts.Doc
				if doc == nil && len(gd.Specs) == 1 {
					doc = gd.Doc
				}
				if a := ParseAnnotations(doc); len(a) > 0 {
					out[ts.Name.Name] = a
				}
			}
		}
	}
	return out
}
