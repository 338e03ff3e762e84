package phpdoc

import (
	"strings"
)

// PhpDocNode is a doc comment split into its tags. Types are kept as written.
type PhpDocNode struct {
	ParamTags    []ParamTagValue
	ReturnTag    string
	ThrowsTags   []string
	VarTags      []VarTagValue
	PropertyTags []PropertyTagValue
	MethodTags   []MethodTagValue
	TemplateTags []TemplateTagValue

	Deprecated        bool
	DeprecatedMessage string
	Internal          bool
	Final             bool
}

type ParamTagValue struct {
	Type       string
	Name       string
	IsVariadic bool
	ByRef      bool
}

type VarTagValue struct {
	Type string
	// Name is empty for a plain `@var Type`
	Name string
}

type PropertyTagValue struct {
	Type     string
	Name     string
	Readable bool
	Writable bool
}

type MethodTagValue struct {
	Name       string
	ReturnType string
	IsStatic   bool
	Parameters []MethodTagParameterValue
}

type MethodTagParameterValue struct {
	Type     string
	Name     string
	ByRef    bool
	Variadic bool
	Optional bool
}

type TemplateTagValue struct {
	Name  string
	Bound string
}

// PhpDocStringResolver parses doc comment text into tags
type PhpDocStringResolver struct{}

func NewPhpDocStringResolver() *PhpDocStringResolver {
	return &PhpDocStringResolver{}
}

// tag priorities, vendor prefixed tags win over the plain ones
const (
	priorityPlain = iota
	priorityPsalm
	priorityPHPStan
)

type rawTag struct {
	name     string
	value    string
	priority int
}

// Resolve parses a doc comment including its /** */ delimiters
func (r *PhpDocStringResolver) Resolve(docComment string) *PhpDocNode {
	node := &PhpDocNode{}

	params := map[string]prioritized[ParamTagValue]{}
	var paramOrder []string
	returnTag := prioritized[string]{priority: -1}

	for _, tag := range splitTags(docComment) {
		switch tag.name {
		case "param":
			value, ok := parseParamTag(tag.value)
			if !ok {
				continue
			}
			existing, seen := params[value.Name]
			if !seen {
				paramOrder = append(paramOrder, value.Name)
			}
			if !seen || tag.priority >= existing.priority {
				params[value.Name] = prioritized[ParamTagValue]{value: value, priority: tag.priority}
			}

		case "return":
			typeText, _ := splitType(tag.value)
			if typeText != "" && tag.priority >= returnTag.priority {
				returnTag = prioritized[string]{value: typeText, priority: tag.priority}
			}

		case "throws":
			if typeText, _ := splitType(tag.value); typeText != "" {
				node.ThrowsTags = append(node.ThrowsTags, typeText)
			}

		case "var":
			typeText, rest := splitType(tag.value)
			if typeText == "" || strings.HasPrefix(typeText, "$") {
				continue
			}
			node.VarTags = append(node.VarTags, VarTagValue{Type: typeText, Name: variableName(rest)})

		case "property", "property-read", "property-write":
			if value, ok := parsePropertyTag(tag.name, tag.value); ok {
				node.PropertyTags = append(node.PropertyTags, value)
			}

		case "method":
			if value, ok := parseMethodTag(tag.value); ok {
				node.MethodTags = append(node.MethodTags, value)
			}

		case "template", "template-covariant", "template-contravariant":
			if value, ok := parseTemplateTag(tag.value); ok {
				node.TemplateTags = append(node.TemplateTags, value)
			}

		case "deprecated":
			node.Deprecated = true
			node.DeprecatedMessage = strings.TrimSpace(tag.value)

		case "internal":
			node.Internal = true

		case "final":
			node.Final = true
		}
	}

	for _, name := range paramOrder {
		node.ParamTags = append(node.ParamTags, params[name].value)
	}
	if returnTag.priority >= 0 {
		node.ReturnTag = returnTag.value
	}

	return node
}

type prioritized[T any] struct {
	value    T
	priority int
}

// splitTags strips the comment delimiters and returns the tags in order. Lines that
// do not start a tag continue the previous one.
func splitTags(docComment string) []rawTag {
	text := strings.TrimSpace(docComment)
	text = strings.TrimPrefix(text, "/**")
	text = strings.TrimSuffix(text, "*/")

	var tags []rawTag
	current := -1
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimPrefix(line, "*"))

		if !strings.HasPrefix(line, "@") {
			if current >= 0 && line != "" {
				tags[current].value += " " + line
			}
			continue
		}

		name, value, _ := strings.Cut(line[1:], " ")
		if idx := strings.IndexAny(name, "\t("); idx >= 0 {
			value = name[idx:] + " " + value
			name = name[:idx]
		}
		name = strings.ToLower(name)

		priority := priorityPlain
		switch {
		case strings.HasPrefix(name, "phpstan-"):
			priority = priorityPHPStan
			name = strings.TrimPrefix(name, "phpstan-")
		case strings.HasPrefix(name, "psalm-"):
			priority = priorityPsalm
			name = strings.TrimPrefix(name, "psalm-")
		}

		tags = append(tags, rawTag{name: name, value: strings.TrimSpace(value), priority: priority})
		current = len(tags) - 1
	}
	return tags
}

// splitType returns the leading type expression of a tag value and the rest. Spaces
// inside brackets and around | and & belong to the type.
func splitType(value string) (string, string) {
	value = strings.TrimSpace(value)
	depth := 0

	for i := 0; i < len(value); i++ {
		switch c := value[i]; c {
		case '<', '(', '{', '[':
			depth++
		case '>', ')', '}', ']':
			if depth > 0 {
				depth--
			}
		case ' ', '\t':
			if depth > 0 {
				continue
			}
			before := strings.TrimRight(value[:i], " \t")
			after := strings.TrimLeft(value[i:], " \t")
			if strings.HasSuffix(before, "|") || strings.HasSuffix(before, "&") || strings.HasSuffix(before, ":") ||
				strings.HasPrefix(after, "|") || (strings.HasPrefix(after, "&") && !strings.HasPrefix(after, "&$") && !strings.HasPrefix(after, "&...")) {
				continue
			}
			return before, after
		}
	}
	if depth > 0 {
		return splitUnbalanced(value)
	}
	return value, ""
}

// splitUnbalanced splits a value whose brackets never close in front of the last
// variable name, so the tag keeps its name and only the type is malformed
func splitUnbalanced(value string) (string, string) {
	at := -1
	for _, marker := range []string{" $", " &$", " ...$", " &...$", "\t$"} {
		if i := strings.LastIndex(value, marker); i > at {
			at = i
		}
	}
	if at <= 0 {
		return value, ""
	}
	return strings.TrimRight(value[:at], " \t"), strings.TrimLeft(value[at:], " \t")
}

func variableName(text string) string {
	field, _, _ := strings.Cut(strings.TrimSpace(text), " ")
	field = strings.TrimPrefix(field, "&")
	field = strings.TrimPrefix(field, "...")
	if !strings.HasPrefix(field, "$") || len(field) < 2 {
		return ""
	}
	return strings.TrimRight(field[1:], ",;")
}

func parseParamTag(value string) (ParamTagValue, bool) {
	typeText, rest := splitType(value)
	// `@param $name` without a type
	if strings.HasPrefix(typeText, "$") || strings.HasPrefix(typeText, "&$") || strings.HasPrefix(typeText, "...$") {
		rest = typeText + " " + rest
		typeText = "mixed"
	}

	field, _, _ := strings.Cut(strings.TrimSpace(rest), " ")
	tag := ParamTagValue{Type: typeText}
	if strings.HasPrefix(field, "&") {
		tag.ByRef = true
		field = field[1:]
	}
	if strings.HasPrefix(field, "...") {
		tag.IsVariadic = true
	}

	tag.Name = variableName(field)
	return tag, tag.Name != "" && tag.Type != ""
}

func parsePropertyTag(tagName, value string) (PropertyTagValue, bool) {
	typeText, rest := splitType(value)
	if strings.HasPrefix(typeText, "$") {
		rest = typeText
		typeText = "mixed"
	}

	tag := PropertyTagValue{
		Type:     typeText,
		Name:     variableName(rest),
		Readable: tagName != "property-write",
		Writable: tagName != "property-read",
	}
	return tag, tag.Name != ""
}

func parseMethodTag(value string) (MethodTagValue, bool) {
	value = strings.TrimSpace(value)
	open := strings.Index(value, "(")
	if open < 0 {
		return MethodTagValue{}, false
	}
	closing := matchingParen(value, open)
	if closing < 0 {
		return MethodTagValue{}, false
	}

	fields := strings.Fields(value[:open])
	if len(fields) == 0 {
		return MethodTagValue{}, false
	}

	tag := MethodTagValue{Name: fields[len(fields)-1]}
	fields = fields[:len(fields)-1]
	if len(fields) > 0 && strings.EqualFold(fields[0], "static") {
		tag.IsStatic = true
		fields = fields[1:]
	}
	tag.ReturnType = strings.Join(fields, " ")

	// `@method static foo()` declares an instance method returning static
	if tag.IsStatic && tag.ReturnType == "" {
		tag.ReturnType = "static"
		tag.IsStatic = false
	}

	for _, param := range splitTopLevel(value[open+1:closing], ',') {
		if parsed, ok := parseMethodTagParameter(param); ok {
			tag.Parameters = append(tag.Parameters, parsed)
		}
	}
	return tag, true
}

func parseMethodTagParameter(text string) (MethodTagParameterValue, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return MethodTagParameterValue{}, false
	}

	declaration, _, hasDefault := strings.Cut(text, "=")
	declaration = strings.TrimSpace(declaration)

	idx := strings.LastIndex(declaration, "$")
	if idx < 0 {
		return MethodTagParameterValue{}, false
	}

	param := MethodTagParameterValue{
		Name:     declaration[idx+1:],
		Optional: hasDefault,
	}

	prefix := strings.TrimSpace(declaration[:idx])
	if strings.HasSuffix(prefix, "...") {
		param.Variadic = true
		param.Optional = true
		prefix = strings.TrimSpace(strings.TrimSuffix(prefix, "..."))
	}
	if strings.HasSuffix(prefix, "&") {
		param.ByRef = true
		prefix = strings.TrimSpace(strings.TrimSuffix(prefix, "&"))
	}
	param.Type = prefix
	return param, param.Name != ""
}

func parseTemplateTag(value string) (TemplateTagValue, bool) {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return TemplateTagValue{}, false
	}

	tag := TemplateTagValue{Name: fields[0]}
	if len(fields) >= 3 && (fields[1] == "of" || fields[1] == "as") {
		tag.Bound, _ = splitType(strings.Join(fields[2:], " "))
	}
	return tag, true
}

func matchingParen(text string, open int) int {
	depth := 0
	for i := open; i < len(text); i++ {
		switch text[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitTopLevel splits text at sep characters that are not nested in brackets
func splitTopLevel(text string, sep byte) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '<', '(', '{', '[':
			depth++
		case '>', ')', '}', ']':
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, text[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, text[start:])
}
