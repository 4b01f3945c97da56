package loader

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/LucasPickering/slumber/collection"
)

var folderFields = map[string]bool{
	"name":     true,
	"requests": true,
}

var recipeFields = map[string]bool{
	"name":           true,
	"method":         true,
	"url":            true,
	"headers":        true,
	"query":          true,
	"body":           true,
	"authentication": true,
	"persist":        true,
}

var validMethods = map[string]bool{
	"CONNECT": true, "DELETE": true, "GET": true, "HEAD": true,
	"OPTIONS": true, "PATCH": true, "POST": true, "PUT": true, "TRACE": true,
}

// parseRecipeNodes decodes a `recipes` (or nested folder `requests`)
// mapping: ID -> folder-or-recipe. Discrimination is structural (a
// `requests` key means folder, anything else means recipe), matching
// original_source's untagged RecipeNode enum.
func parseRecipeNodes(node *yaml.Node) ([]collection.RecipeNode, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("expected a mapping, line %d", node.Line)
	}
	var nodes []collection.RecipeNode
	for i := 0; i+1 < len(node.Content); i += 2 {
		idNode, bodyNode := node.Content[i], node.Content[i+1]
		id := collection.NodeID(idNode.Value)
		n, err := parseRecipeNode(id, bodyNode)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", id, err)
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func parseRecipeNode(id collection.NodeID, node *yaml.Node) (collection.RecipeNode, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("must be a mapping, line %d", node.Line)
	}
	if hasKey(node, "requests") {
		return parseFolder(id, node)
	}
	return parseRecipe(id, node)
}

func hasKey(node *yaml.Node, name string) bool {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == name {
			return true
		}
	}
	return false
}

func parseFolder(id collection.NodeID, node *yaml.Node) (collection.RecipeNode, error) {
	fields, err := mappingFields(node, folderFields)
	if err != nil {
		return nil, err
	}
	folder := &collection.Folder{ID: id, Name: string(id)}
	if nameNode, ok := fields["name"]; ok {
		folder.Name = nameNode.Value
	}
	childrenNode, ok := fields["requests"]
	if !ok {
		return nil, fmt.Errorf("folder has no requests field, line %d", node.Line)
	}
	children, err := parseRecipeNodes(childrenNode)
	if err != nil {
		return nil, fmt.Errorf("requests: %w", err)
	}
	folder.Children = children
	return folder, nil
}

func parseRecipe(id collection.NodeID, node *yaml.Node) (collection.RecipeNode, error) {
	fields, err := mappingFields(node, recipeFields)
	if err != nil {
		return nil, err
	}

	r := &collection.Recipe{ID: id, Name: string(id)}

	if nameNode, ok := fields["name"]; ok {
		r.Name = nameNode.Value
	}

	methodNode, ok := fields["method"]
	if !ok {
		return nil, fmt.Errorf("recipe has no method field, line %d", node.Line)
	}
	method := methodNode.Value
	upper := toUpperASCII(method)
	if !validMethods[upper] {
		return nil, fmt.Errorf("invalid HTTP method %q, line %d", method, methodNode.Line)
	}
	r.Method = upper

	urlNode, ok := fields["url"]
	if !ok {
		return nil, fmt.Errorf("recipe has no url field, line %d", node.Line)
	}
	url, err := parseTemplateNode(urlNode)
	if err != nil {
		return nil, fmt.Errorf("url: %w", err)
	}
	r.URL = url

	if headersNode, ok := fields["headers"]; ok {
		headers, err := parseHeaders(headersNode)
		if err != nil {
			return nil, fmt.Errorf("headers: %w", err)
		}
		r.Headers = headers
	}

	if queryNode, ok := fields["query"]; ok {
		query, err := parseQuery(queryNode)
		if err != nil {
			return nil, fmt.Errorf("query: %w", err)
		}
		r.Query = query
	}

	if bodyNode, ok := fields["body"]; ok {
		body, err := parseBody(bodyNode)
		if err != nil {
			return nil, fmt.Errorf("body: %w", err)
		}
		r.Body = body
	}

	if authNode, ok := fields["authentication"]; ok {
		auth, err := parseAuth(authNode)
		if err != nil {
			return nil, fmt.Errorf("authentication: %w", err)
		}
		r.Auth = auth
	}

	if persistNode, ok := fields["persist"]; ok {
		var persist bool
		if err := persistNode.Decode(&persist); err != nil {
			return nil, fmt.Errorf("persist must be a boolean, line %d", persistNode.Line)
		}
		r.Persist = persist
	} else {
		r.Persist = true
	}

	return collection.RecipeLeaf{Recipe: r}, nil
}

func toUpperASCII(s string) string {
	out := []byte(s)
	for i, c := range out {
		if c >= 'a' && c <= 'z' {
			out[i] = c - ('a' - 'A')
		}
	}
	return string(out)
}

// parseHeaders decodes an ordered name->template mapping, preserving
// source order: headers are emitted in insertion order.
func parseHeaders(node *yaml.Node) ([]collection.HeaderField, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("must be a mapping, line %d", node.Line)
	}
	fields := make([]collection.HeaderField, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		nameNode, valNode := node.Content[i], node.Content[i+1]
		tpl, err := parseTemplateNode(valNode)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", nameNode.Value, err)
		}
		fields = append(fields, collection.HeaderField{Name: nameNode.Value, Value: tpl})
	}
	return fields, nil
}

// parseQuery decodes an ordered name->template mapping into query fields;
// query params are serialized in recipe order into the URL.
func parseQuery(node *yaml.Node) ([]collection.QueryField, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("must be a mapping, line %d", node.Line)
	}
	fields := make([]collection.QueryField, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		nameNode, valNode := node.Content[i], node.Content[i+1]
		tpl, err := parseTemplateNode(valNode)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", nameNode.Value, err)
		}
		fields = append(fields, collection.QueryField{Name: nameNode.Value, Value: tpl})
	}
	return fields, nil
}

var authFields = map[string]bool{"basic": true, "bearer": true}

func parseAuth(node *yaml.Node) (*collection.Auth, error) {
	fields, err := mappingFields(node, authFields)
	if err != nil {
		return nil, err
	}
	basicNode, hasBasic := fields["basic"]
	bearerNode, hasBearer := fields["bearer"]
	switch {
	case hasBasic && hasBearer:
		return nil, fmt.Errorf("authentication must be exactly one of basic or bearer, line %d", node.Line)
	case hasBasic:
		return parseBasicAuth(basicNode)
	case hasBearer:
		tpl, err := parseTemplateNode(bearerNode)
		if err != nil {
			return nil, fmt.Errorf("bearer: %w", err)
		}
		return &collection.Auth{Kind: collection.AuthBearer, Token: tpl}, nil
	default:
		return nil, fmt.Errorf("authentication must declare basic or bearer, line %d", node.Line)
	}
}

var basicAuthFields = map[string]bool{"username": true, "password": true}

func parseBasicAuth(node *yaml.Node) (*collection.Auth, error) {
	fields, err := mappingFields(node, basicAuthFields)
	if err != nil {
		return nil, err
	}
	usernameNode, ok := fields["username"]
	if !ok {
		return nil, fmt.Errorf("basic auth has no username field, line %d", node.Line)
	}
	username, err := parseTemplateNode(usernameNode)
	if err != nil {
		return nil, fmt.Errorf("username: %w", err)
	}
	auth := &collection.Auth{Kind: collection.AuthBasic, Username: username}
	if passwordNode, ok := fields["password"]; ok {
		password, err := parseTemplateNode(passwordNode)
		if err != nil {
			return nil, fmt.Errorf("password: %w", err)
		}
		auth.Password = password
	}
	return auth, nil
}
