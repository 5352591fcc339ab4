package chunk

import (
	"strings"

	"github.com/Aman-CERP/amanmcp/internal/store"
)

// RelationExtractor walks a parsed tree alongside the symbols already pulled
// out of it by SymbolExtractor and emits graph edges (imports, calls,
// inherits) between qualified names. Cross-file call resolution is deferred:
// a call edge only lands when the callee matches a symbol defined in the
// same file, per the qualified-name join key used elsewhere in this package.
type RelationExtractor struct {
	registry *LanguageRegistry
}

// NewRelationExtractor creates a relation extractor using the default language registry.
func NewRelationExtractor() *RelationExtractor {
	return &RelationExtractor{registry: DefaultRegistry()}
}

// Extract returns the relations found in tree, scoped to filePath and the
// symbols already extracted for it. symbols must be the same slice
// SymbolExtractor.Extract produced for tree so qualified names line up.
func (e *RelationExtractor) Extract(tree *Tree, source []byte, filePath string, symbols []*Symbol) []*store.Relation {
	if tree == nil || tree.Root == nil {
		return nil
	}

	fileQName := func(name string) string { return filePath + "#" + name }

	byName := make(map[string]string, len(symbols)) // symbol name -> qualified name
	for _, s := range symbols {
		byName[s.Name] = fileQName(s.Name)
	}

	var relations []*store.Relation

	relations = append(relations, e.extractImports(tree, source, filePath)...)
	relations = append(relations, e.extractInherits(tree, source, filePath, tree.Language, byName)...)
	relations = append(relations, e.extractCalls(tree, source, filePath, tree.Language, symbols, byName)...)

	return relations
}

// extractImports emits one `imports` relation per import statement, from the
// file entity to a pseudo-entity named after the imported path.
func (e *RelationExtractor) extractImports(tree *Tree, source []byte, filePath string) []*store.Relation {
	var paths []string

	switch tree.Language {
	case "go":
		for _, node := range tree.Root.Children {
			if node.Type != "import_declaration" {
				continue
			}
			node.Walk(func(n *Node) bool {
				if n.Type == "interpreted_string_literal" {
					paths = append(paths, strings.Trim(n.GetContent(source), `"`))
				}
				return true
			})
		}
	case "typescript", "tsx", "javascript", "jsx":
		for _, node := range tree.Root.Children {
			if node.Type != "import_statement" {
				continue
			}
			node.Walk(func(n *Node) bool {
				if n.Type == "string" {
					paths = append(paths, strings.Trim(n.GetContent(source), `"'`))
				}
				return true
			})
		}
	case "python":
		for _, node := range tree.Root.Children {
			if node.Type != "import_statement" && node.Type != "import_from_statement" {
				continue
			}
			node.Walk(func(n *Node) bool {
				if n.Type == "dotted_name" || n.Type == "identifier" {
					paths = append(paths, n.GetContent(source))
				}
				return true
			})
		}
	}

	fileID := filePath + "#<file>"
	relations := make([]*store.Relation, 0, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		relations = append(relations, &store.Relation{
			FromID: fileID,
			ToID:   p,
			Kind:   store.RelationImports,
			Weight: 1.0,
		})
	}
	return relations
}

// extractInherits emits `inherits` relations for class extends clauses and
// Go struct embedding.
func (e *RelationExtractor) extractInherits(tree *Tree, source []byte, filePath, language string, byName map[string]string) []*store.Relation {
	var relations []*store.Relation

	switch language {
	case "typescript", "tsx", "javascript", "jsx":
		tree.Root.Walk(func(n *Node) bool {
			if n.Type != "class_declaration" && n.Type != "class" {
				return true
			}
			var className, parentName string
			for _, c := range n.Children {
				if c.Type == "identifier" || c.Type == "type_identifier" {
					if className == "" {
						className = c.GetContent(source)
					}
				}
				if c.Type == "class_heritage" {
					c.Walk(func(h *Node) bool {
						if h.Type == "identifier" {
							parentName = h.GetContent(source)
						}
						return true
					})
				}
			}
			if className != "" && parentName != "" {
				relations = append(relations, &store.Relation{
					FromID: filePath + "#" + className,
					ToID:   filePath + "#" + parentName,
					Kind:   store.RelationInherits,
					Weight: 1.0,
				})
			}
			return true
		})
	case "python":
		tree.Root.Walk(func(n *Node) bool {
			if n.Type != "class_definition" {
				return true
			}
			var className string
			var parents []string
			for _, c := range n.Children {
				if c.Type == "identifier" && className == "" {
					className = c.GetContent(source)
				}
				if c.Type == "argument_list" {
					c.Walk(func(a *Node) bool {
						if a.Type == "identifier" {
							parents = append(parents, a.GetContent(source))
						}
						return true
					})
				}
			}
			for _, p := range parents {
				relations = append(relations, &store.Relation{
					FromID: filePath + "#" + className,
					ToID:   filePath + "#" + p,
					Kind:   store.RelationInherits,
					Weight: 1.0,
				})
			}
			return true
		})
	case "go":
		// Struct embedding: a field with a type and no explicit name.
		tree.Root.Walk(func(n *Node) bool {
			if n.Type != "type_spec" {
				return true
			}
			var structName string
			for _, c := range n.Children {
				if c.Type == "type_identifier" {
					structName = c.GetContent(source)
				}
				if c.Type == "struct_type" {
					c.Walk(func(f *Node) bool {
						if f.Type == "field_declaration_list" {
							return true
						}
						if f.Type == "field_declaration" && len(f.Children) == 1 {
							embedded := f.Children[0].GetContent(source)
							if structName != "" {
								relations = append(relations, &store.Relation{
									FromID: filePath + "#" + structName,
									ToID:   filePath + "#" + embedded,
									Kind:   store.RelationInherits,
									Weight: 1.0,
								})
							}
						}
						return true
					})
				}
			}
			return true
		})
	}

	return relations
}

// extractCalls emits `calls` relations for call-expressions whose callee
// resolves to a symbol already extracted from the same file.
func (e *RelationExtractor) extractCalls(tree *Tree, source []byte, filePath, language string, symbols []*Symbol, byName map[string]string) []*store.Relation {
	var callNodeType, identifierType string
	switch language {
	case "go":
		callNodeType, identifierType = "call_expression", "identifier"
	case "typescript", "tsx", "javascript", "jsx":
		callNodeType, identifierType = "call_expression", "identifier"
	case "python":
		callNodeType, identifierType = "call", "identifier"
	default:
		return nil
	}

	seen := make(map[string]bool)
	var relations []*store.Relation

	for _, sym := range symbols {
		caller := filePath + "#" + sym.Name

		tree.Root.Walk(func(n *Node) bool {
			if n.Type != callNodeType {
				return true
			}
			if int(n.StartPoint.Row)+1 < sym.StartLine || int(n.StartPoint.Row)+1 > sym.EndLine {
				return true
			}
			if len(n.Children) == 0 {
				return true
			}
			callee := n.Children[0]
			var name string
			if callee.Type == identifierType {
				name = callee.GetContent(source)
			} else {
				// member/selector expression: take the last identifier segment.
				for _, c := range callee.Children {
					if c.Type == identifierType || c.Type == "field_identifier" || c.Type == "property_identifier" {
						name = c.GetContent(source)
					}
				}
			}
			target, ok := byName[name]
			if !ok || name == sym.Name {
				return true
			}
			key := caller + "->" + target
			if seen[key] {
				return true
			}
			seen[key] = true
			relations = append(relations, &store.Relation{
				FromID: caller,
				ToID:   target,
				Kind:   store.RelationCalls,
				Weight: 1.0,
			})
			return true
		})
	}

	return relations
}
