package ctxcomp

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// EntryInfo is a read-only description of a registration, used for diagnostics.
type EntryInfo struct {
	ID      string `yaml:"id" json:"id"`
	Type    string `yaml:"type" json:"type"`
	Kind    string `yaml:"kind" json:"kind"`
	Default bool   `yaml:"default" json:"default"`
}

// Entries returns a description of every registration, sorted by id and then type.
func (r *Registry) Entries() []EntryInfo {
	var infos []EntryInfo
	r.entries.Range(func(_, value any) bool {
		e := value.(*entry)
		infos = append(infos, EntryInfo{
			ID:      e.key.ID(),
			Type:    e.key.Type().String(),
			Kind:    e.kind.String(),
			Default: e.isDefault,
		})
		return true
	})
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].ID != infos[j].ID {
			return infos[i].ID < infos[j].ID
		}
		return infos[i].Type < infos[j].Type
	})
	return infos
}

// Status is a diagnostic tool that returns a string describing the state of the registry. Each
// line names a component, whether it holds a value or a resolver, and whether it was installed
// as a default.
func (r *Registry) Status() string {
	var lines []string
	r.entries.Range(func(_, value any) bool {
		e := value.(*entry)
		var line string
		switch e.kind {
		case kindValue:
			line = fmt.Sprintf("%s (%v) - direct value set", e.key.ID(), e.key.Type())
		case kindResolver:
			line = fmt.Sprintf("%s (%v) - resolver: %s", e.key.ID(), e.key.Type(), formatResolverDebug(e.source))
		case kindParametrized:
			line = fmt.Sprintf("%s (%v) - parametrized resolver: %s", e.key.ID(), e.key.Type(), formatResolverDebug(e.source))
		}
		if e.isDefault {
			line += " [default]"
		}
		lines = append(lines, line)
		return true
	})
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}

// formatResolverDebug returns the signature of a resolver. This is used instead of the native
// `%#v` formatter to not return the raw address of the function as that's not important for this
// and simplifies testing.
func formatResolverDebug(fn any) string {
	if fn == nil {
		return "-"
	}
	fnType := reflect.TypeOf(fn)
	if fnType.Kind() != reflect.Func {
		// We should never get here
		return "non-function!"
	}
	builder := strings.Builder{}
	builder.WriteString("(")
	for i := 0; i < fnType.NumIn(); i++ {
		if i > 0 {
			builder.WriteString(", ")
		}
		builder.WriteString(fnType.In(i).String())
	}
	builder.WriteString(") ")
	for i := 0; i < fnType.NumOut(); i++ {
		if i > 0 {
			builder.WriteString(", ")
		}
		builder.WriteString(fnType.Out(i).String())
	}
	return builder.String()
}
