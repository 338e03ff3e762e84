package analyser

import (
	"fmt"
	"strings"

	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

var pathEscaper = strings.NewReplacer(
	`\`, `\\`,
	`.`, `\.`,
	`*`, `\*`,
	`?`, `\?`,
	`|`, `\|`,
	`#`, `\#`,
	`@`, `\@`,
	`!`, `\!`,
	`:`, `\:`,
)

// DumpJSON renders what the scope knows as indented JSON, for debugging
func (s *Scope) DumpJSON() ([]byte, error) {
	doc := []byte(`{}`)
	var err error

	set := func(path string, value any) {
		if err != nil {
			return
		}
		doc, err = sjson.SetBytes(doc, path, value)
	}

	set("namespace", s.namespace)
	set("file", s.context.File)
	if s.context.ClassReflection != nil {
		set("class", s.context.ClassReflection.DisplayName())
	}
	if s.function != nil {
		set("function", s.function.Name())
	}
	set("strictTypes", s.declareStrictTypes)

	set("variables", map[string]any{})
	for _, name := range s.VariableNames() {
		holder := s.variables[name]
		set("variables."+pathEscaper.Replace(name)+".type", holder.typ.Name())
		set("variables."+pathEscaper.Replace(name)+".certainty", holder.certainty.String())
	}

	set("expressions", map[string]any{})
	for key, t := range s.moreSpecificTypes {
		set("expressions."+pathEscaper.Replace(key), t.Name())
	}

	if err != nil {
		return nil, fmt.Errorf("failed to dump scope: %w", err)
	}
	return pretty.PrettyOptions(doc, &pretty.Options{Width: 80, Indent: "  ", SortKeys: true}), nil
}
