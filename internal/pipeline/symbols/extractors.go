package symbols

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

func extractGo(root *sitter.Node, path, content string) ([]Symbol, []Dependency) {
	var syms []Symbol
	var deps []Dependency
	getText := func(n *sitter.Node) string { return n.Content([]byte(content)) }

	walk(root, func(n *sitter.Node) {
		switch n.Type() {
		case "function_declaration":
			nameNode := n.ChildByFieldName("name")
			if nameNode == nil {
				return
			}
			name := getText(nameNode)
			sig := "func " + name
			if params := n.ChildByFieldName("parameters"); params != nil {
				sig = "func " + name + getText(params)
			}
			if result := n.ChildByFieldName("result"); result != nil {
				sig += " " + getText(result)
			}
			start, end := lineRange(n)
			syms = append(syms, Symbol{ID: "func:" + name, Kind: KindFunction, Visibility: visibilityFromExported(name), Path: path, Signature: sig, StartLine: start, EndLine: end})

		case "method_declaration":
			nameNode := n.ChildByFieldName("name")
			receiver := n.ChildByFieldName("receiver")
			if nameNode == nil || receiver == nil {
				return
			}
			name := getText(nameNode)
			recvText := getText(receiver)
			sig := "func " + recvText + " " + name
			if params := n.ChildByFieldName("parameters"); params != nil {
				sig += getText(params)
			}
			if result := n.ChildByFieldName("result"); result != nil {
				sig += " " + getText(result)
			}
			start, end := lineRange(n)
			syms = append(syms, Symbol{ID: "method:" + recvText + "." + name, Kind: KindMethod, Visibility: visibilityFromExported(name), Path: path, Signature: sig, StartLine: start, EndLine: end})

		case "type_declaration":
			for i := 0; i < int(n.NamedChildCount()); i++ {
				spec := n.NamedChild(i)
				if spec.Type() != "type_spec" {
					continue
				}
				nameNode := spec.ChildByFieldName("name")
				if nameNode == nil {
					continue
				}
				name := getText(nameNode)
				typeNode := spec.ChildByFieldName("type")
				kind, sig := KindType, "type "+name

				if typeNode != nil && typeNode.Type() == "struct_type" {
					kind, sig = KindStruct, sig+" struct"
					if fields := typeNode.ChildByFieldName("fields"); fields != nil {
						for j := 0; j < int(fields.NamedChildCount()); j++ {
							fieldDecl := fields.NamedChild(j)
							if fieldDecl.Type() != "field_declaration" {
								continue
							}
							fNameNode := fieldDecl.ChildByFieldName("name")
							fTypeNode := fieldDecl.ChildByFieldName("type")
							if fNameNode == nil {
								continue
							}
							fName := getText(fNameNode)
							fType := ""
							if fTypeNode != nil {
								fType = getText(fTypeNode)
							}
							fStart, fEnd := lineRange(fieldDecl)
							syms = append(syms, Symbol{ID: "field:" + name + "." + fName, Kind: KindField, Visibility: visibilityFromExported(fName), Path: path, Signature: fName + " " + fType, StartLine: fStart, EndLine: fEnd})
						}
					}
				} else if typeNode != nil && typeNode.Type() == "interface_type" {
					kind, sig = KindInterface, sig+" interface"
					for j := 0; j < int(typeNode.NamedChildCount()); j++ {
						methodSpec := typeNode.NamedChild(j)
						if methodSpec.Type() != "method_spec" {
							continue
						}
						mNameNode := methodSpec.ChildByFieldName("name")
						if mNameNode == nil {
							continue
						}
						mName := getText(mNameNode)
						mSig := mName
						if params := methodSpec.ChildByFieldName("parameters"); params != nil {
							mSig += getText(params)
						}
						if result := methodSpec.ChildByFieldName("result"); result != nil {
							mSig += " " + getText(result)
						}
						mStart, mEnd := lineRange(methodSpec)
						syms = append(syms, Symbol{ID: "iface_method:" + name + "." + mName, Kind: KindMethod, Visibility: visibilityFromExported(mName), Path: path, Signature: mSig, StartLine: mStart, EndLine: mEnd})
					}
				}

				start, end := lineRange(spec)
				syms = append(syms, Symbol{ID: fmt.Sprintf("%s:%s", kind, name), Kind: kind, Visibility: visibilityFromExported(name), Path: path, Signature: sig, StartLine: start, EndLine: end})
			}

		case "import_declaration":
			for i := 0; i < int(n.NamedChildCount()); i++ {
				spec := n.NamedChild(i)
				if spec.Type() != "import_spec" {
					continue
				}
				pathNode := spec.ChildByFieldName("path")
				if pathNode == nil {
					continue
				}
				importPath := strings.Trim(getText(pathNode), "\"")
				deps = append(deps, Dependency{FromPath: path, Target: "pkg:" + importPath, RawPath: importPath})
			}
		}
	})
	return syms, deps
}

func extractPython(root *sitter.Node, path, content string) ([]Symbol, []Dependency) {
	var syms []Symbol
	var deps []Dependency
	getText := func(n *sitter.Node) string { return n.Content([]byte(content)) }
	pyVisibility := func(name string) Visibility {
		switch {
		case strings.HasPrefix(name, "__"):
			return VisibilityPrivate
		case strings.HasPrefix(name, "_"):
			return VisibilityProtected
		default:
			return VisibilityPublic
		}
	}

	walk(root, func(n *sitter.Node) {
		switch n.Type() {
		case "class_definition":
			nameNode := n.ChildByFieldName("name")
			if nameNode == nil {
				return
			}
			name := getText(nameNode)
			start, end := lineRange(n)
			syms = append(syms, Symbol{ID: "class:" + name, Kind: KindClass, Visibility: pyVisibility(name), Path: path, Signature: "class " + name, StartLine: start, EndLine: end})

		case "function_definition":
			nameNode := n.ChildByFieldName("name")
			if nameNode == nil {
				return
			}
			name := getText(nameNode)
			sig := "def " + name
			if params := n.ChildByFieldName("parameters"); params != nil {
				sig += getText(params)
			}
			start, end := lineRange(n)
			syms = append(syms, Symbol{ID: "func:" + name, Kind: KindFunction, Visibility: pyVisibility(name), Path: path, Signature: sig, StartLine: start, EndLine: end})

		case "import_statement", "import_from_statement":
			for i := 0; i < int(n.NamedChildCount()); i++ {
				child := n.NamedChild(i)
				if child.Type() == "dotted_name" {
					moduleName := getText(child)
					deps = append(deps, Dependency{FromPath: path, Target: "mod:" + moduleName, RawPath: moduleName})
				}
			}
		}
	})
	return syms, deps
}

func extractRust(root *sitter.Node, path, content string) ([]Symbol, []Dependency) {
	var syms []Symbol
	var deps []Dependency
	getText := func(n *sitter.Node) string { return n.Content([]byte(content)) }
	hasPub := func(n *sitter.Node) bool {
		for i := 0; i < int(n.ChildCount()); i++ {
			if n.Child(i).Type() == "visibility_modifier" && getText(n.Child(i)) == "pub" {
				return true
			}
		}
		return false
	}
	rustVis := func(n *sitter.Node) Visibility {
		if hasPub(n) {
			return VisibilityPublic
		}
		return VisibilityPrivate
	}

	walk(root, func(n *sitter.Node) {
		switch n.Type() {
		case "function_item":
			nameNode := n.ChildByFieldName("name")
			if nameNode == nil {
				return
			}
			name := getText(nameNode)
			sig := "fn " + name
			if params := n.ChildByFieldName("parameters"); params != nil {
				sig += getText(params)
			}
			start, end := lineRange(n)
			syms = append(syms, Symbol{ID: "fn:" + name, Kind: KindFunction, Visibility: rustVis(n), Path: path, Signature: sig, StartLine: start, EndLine: end})

		case "struct_item":
			nameNode := n.ChildByFieldName("name")
			if nameNode == nil {
				return
			}
			name := getText(nameNode)
			start, end := lineRange(n)
			syms = append(syms, Symbol{ID: "struct:" + name, Kind: KindStruct, Visibility: rustVis(n), Path: path, Signature: "struct " + name, StartLine: start, EndLine: end})

		case "enum_item":
			nameNode := n.ChildByFieldName("name")
			if nameNode == nil {
				return
			}
			name := getText(nameNode)
			start, end := lineRange(n)
			syms = append(syms, Symbol{ID: "enum:" + name, Kind: KindEnum, Visibility: rustVis(n), Path: path, Signature: "enum " + name, StartLine: start, EndLine: end})

		case "mod_item":
			nameNode := n.ChildByFieldName("name")
			if nameNode == nil {
				return
			}
			name := getText(nameNode)
			start, end := lineRange(n)
			syms = append(syms, Symbol{ID: "mod:" + name, Kind: KindModule, Visibility: rustVis(n), Path: path, Signature: "mod " + name, StartLine: start, EndLine: end})

		case "use_declaration":
			useTree := n.ChildByFieldName("argument")
			if useTree == nil {
				return
			}
			usePath := getText(useTree)
			parts := strings.Split(usePath, "::")
			if len(parts) > 0 {
				deps = append(deps, Dependency{FromPath: path, Target: "crate:" + parts[0], RawPath: usePath})
			}
		}
	})
	return syms, deps
}

// extractJS handles both JavaScript and TypeScript grammars (TypeScript
// is a structural superset for the node types this extractor visits) and
// also covers TypeScript's extra interface_declaration node.
func extractJS(root *sitter.Node, path, content string) ([]Symbol, []Dependency) {
	var syms []Symbol
	var deps []Dependency
	getText := func(n *sitter.Node) string { return n.Content([]byte(content)) }
	hasExport := func(n *sitter.Node) bool {
		parent := n.Parent()
		return parent != nil && parent.Type() == "export_statement"
	}
	jsVis := func(n *sitter.Node) Visibility {
		if hasExport(n) {
			return VisibilityPublic
		}
		return VisibilityPrivate
	}

	walk(root, func(n *sitter.Node) {
		switch n.Type() {
		case "class_declaration":
			nameNode := n.ChildByFieldName("name")
			if nameNode == nil {
				return
			}
			name := getText(nameNode)
			start, end := lineRange(n)
			syms = append(syms, Symbol{ID: "class:" + name, Kind: KindClass, Visibility: jsVis(n), Path: path, Signature: "class " + name, StartLine: start, EndLine: end})

		case "function_declaration":
			nameNode := n.ChildByFieldName("name")
			if nameNode == nil {
				return
			}
			name := getText(nameNode)
			sig := "function " + name
			if params := n.ChildByFieldName("parameters"); params != nil {
				sig += getText(params)
			}
			start, end := lineRange(n)
			syms = append(syms, Symbol{ID: "func:" + name, Kind: KindFunction, Visibility: jsVis(n), Path: path, Signature: sig, StartLine: start, EndLine: end})

		case "interface_declaration":
			nameNode := n.ChildByFieldName("name")
			if nameNode == nil {
				return
			}
			name := getText(nameNode)
			start, end := lineRange(n)
			syms = append(syms, Symbol{ID: "interface:" + name, Kind: KindInterface, Visibility: jsVis(n), Path: path, Signature: "interface " + name, StartLine: start, EndLine: end})

		case "lexical_declaration":
			for i := 0; i < int(n.NamedChildCount()); i++ {
				child := n.NamedChild(i)
				if child.Type() != "variable_declarator" {
					continue
				}
				nameNode := child.ChildByFieldName("name")
				valueNode := child.ChildByFieldName("value")
				if nameNode == nil || valueNode == nil {
					continue
				}
				if valueNode.Type() != "arrow_function" && valueNode.Type() != "function" {
					continue
				}
				name := getText(nameNode)
				start, end := lineRange(n)
				syms = append(syms, Symbol{ID: "func:" + name, Kind: KindFunction, Visibility: jsVis(n), Path: path, Signature: "const " + name + " = ...", StartLine: start, EndLine: end})
			}

		case "import_statement":
			sourceNode := n.ChildByFieldName("source")
			if sourceNode == nil {
				return
			}
			source := strings.Trim(getText(sourceNode), "\"'")
			deps = append(deps, Dependency{FromPath: path, Target: "mod:" + source, RawPath: source})
		}
	})
	return syms, deps
}
