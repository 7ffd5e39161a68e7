// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package licensefile

import (
	_ "embed"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"text/template"
	"unicode"
	"unicode/utf8"

	sprig "github.com/go-task/slim-sprig/v3"
)

//go:embed default.tpl
var defaultTemplateText string

// defaultTemplate is parsed once and never modified afterwards.
var defaultTemplate = MustParseTemplate(defaultTemplateText)

// DefaultTemplate returns the built-in four line license template.
func DefaultTemplate() *Template {
	return defaultTemplate
}

// placeholderRegexp matches {{{name}}}, {{&name}} and {{name}}.
// A name is any run of characters other than '}'.
var placeholderRegexp = regexp.MustCompile(
	`\{\{\{([^}]*)\}\}\}` +
		`|\{\{&([^}]*)\}\}` +
		`|\{\{([^}]*)\}\}`)

// fieldFunc is the template function returning the value of a field.
const fieldFunc = "field"

// templateKeywords are never treated as field placeholders in the {{name}} form.
var templateKeywords = map[string]bool{
	"if":       true,
	"else":     true,
	"end":      true,
	"range":    true,
	"with":     true,
	"define":   true,
	"template": true,
	"block":    true,
	"break":    true,
	"continue": true,
	"nil":      true,
}

// actionChars mark a {{ ... }} tag as a template action.
const actionChars = "\"'`$(){}|:="

// Template renders license data and its serial into a license file.
//
// Placeholders in the forms {{name}}, {{&name}} and {{{name}}} are replaced
// with the raw value of the named field, without any escaping.
// Any other {{ ... }} action is a Go text/template action evaluated with the
// slim-sprig function map. Fields are available in actions through the
// field function, e.g. {{ field "email" | lower }}, or {{ $.Field "email" }}.
//
// Names may contain spaces and any character but '}'. A bare {{name}} tag is
// read as an action when it starts with a keyword or holds template syntax
// such as quotes, variables, numbers or pipes between words. {{&name}} and
// {{{name}}} are always placeholders.
type Template struct {
	source       string
	tmpl         *template.Template
	placeholders []string
}

// ParseTemplate parses the license template text.
func ParseTemplate(text string) (*Template, error) {
	var placeholders []string
	seen := map[string]bool{}

	translated := placeholderRegexp.ReplaceAllStringFunc(text, func(match string) string {
		name, ok := placeholderName(match)
		if !ok {
			return match
		}
		if !seen[name] {
			seen[name] = true
			placeholders = append(placeholders, name)
		}
		return fmt.Sprintf("{{%s %s}}", fieldFunc, strconv.Quote(name))
	})

	tmpl, err := template.New("license").
		Funcs(sprig.HermeticTxtFuncMap()).
		Funcs(template.FuncMap{fieldFunc: renderContext{}.Field}).
		Parse(translated)
	if err != nil {
		return nil, TemplateError(fmt.Errorf("failed to parse template: %w", err))
	}

	return &Template{
		source:       text,
		tmpl:         tmpl,
		placeholders: placeholders,
	}, nil
}

// MustParseTemplate is like ParseTemplate but panics if the text cannot be parsed.
func MustParseTemplate(text string) *Template {
	t, err := ParseTemplate(text)
	if err != nil {
		panic(err)
	}
	return t
}

// Source returns the template text.
func (t *Template) Source() string {
	return t.source
}

// Placeholders returns the field names referenced by placeholders,
// in order of first appearance.
func (t *Template) Placeholders() []string {
	return append([]string{}, t.placeholders...)
}

// Render executes the template for the data and its serial.
// String data is available as both "string" and "data".
// Fields that are not defined render as an empty string,
// unless strict is set in which case ErrTemplate is returned.
func (t *Template) Render(d Data, serial string, strict bool) (string, error) {
	ctx := renderContext{
		fields: d.templateFields(serial),
		strict: strict,
	}

	// The field function is bound to this render's fields on a private copy.
	tmpl, err := t.tmpl.Clone()
	if err != nil {
		return "", TemplateError(err)
	}
	tmpl.Funcs(template.FuncMap{fieldFunc: ctx.Field})

	var b strings.Builder
	if err := tmpl.Execute(&b, ctx); err != nil {
		return "", TemplateError(fmt.Errorf("failed to render template: %w", err))
	}
	return b.String(), nil
}

// renderContext is the dot value of the template.
type renderContext struct {
	fields Fields
	strict bool
}

// Field returns the value of the named field.
func (c renderContext) Field(name string) (string, error) {
	if v, ok := c.fields.Get(name); ok {
		return v, nil
	}
	if c.strict {
		return "", fmt.Errorf("field %q is not defined", name)
	}
	return "", nil
}

// placeholderName returns the field name of a placeholder match.
func placeholderName(match string) (string, bool) {
	groups := placeholderRegexp.FindStringSubmatch(match)
	if groups == nil {
		return "", false
	}
	switch {
	case strings.HasPrefix(match, "{{{"):
		name := strings.TrimSpace(groups[1])
		return name, name != ""
	case strings.HasPrefix(match, "{{&"):
		name := strings.TrimSpace(groups[2])
		return name, name != ""
	default:
		return bareName(groups[3])
	}
}

// bareName tells a {{name}} placeholder apart from a template action.
func bareName(tag string) (string, bool) {
	name := strings.TrimSpace(tag)
	words := strings.Fields(name)
	switch len(words) {
	case 0:
		return "", false
	case 1:
		if templateKeywords[name] || strings.HasPrefix(name, "/*") ||
			strings.ContainsAny(name[:1], actionChars+".") {
			return "", false
		}
		return name, true
	default:
		if templateKeywords[words[0]] {
			return "", false
		}
		for _, w := range words {
			if !isPlainWord(w) {
				return "", false
			}
		}
		return name, true
	}
}

// isPlainWord reports whether w can be part of a multi-word field name.
func isPlainWord(w string) bool {
	first, _ := utf8.DecodeRuneInString(w)
	if !unicode.IsLetter(first) && first != '_' {
		return false
	}
	return !strings.ContainsAny(w, actionChars)
}
