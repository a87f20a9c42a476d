package ingest

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aidanlsb/corvid/internal/dates"
	"github.com/aidanlsb/corvid/internal/model"
	"github.com/aidanlsb/corvid/internal/wikilink"
)

// Reserved frontmatter keys map onto node fields instead of properties.
const (
	keyID   = "id"
	keyName = "name"
	keyType = "type"
)

type frontmatter struct {
	id, name, typ string
	props         []model.Property
}

// splitFrontmatter separates a leading '---' delimited block from the
// body. An unclosed block is treated as body text.
func splitFrontmatter(content string) (raw string, body string, ok bool) {
	lines := strings.Split(content, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return "", content, false
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return strings.Join(lines[1:i], "\n"), strings.Join(lines[i+1:], "\n"), true
		}
	}
	return "", content, false
}

func parseFrontmatter(raw string) (*frontmatter, error) {
	var data map[string]any
	if err := yaml.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("parse frontmatter: %w", err)
	}

	fm := &frontmatter{}
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := data[key]
		switch key {
		case keyID:
			fm.id = scalarString(value)
			continue
		case keyName:
			fm.name = scalarString(value)
			continue
		case keyType:
			fm.typ = scalarString(value)
			continue
		}
		if p, ok := propertyFromYAML(key, value); ok {
			fm.props = append(fm.props, p)
		}
	}
	return fm, nil
}

// propertyFromYAML converts a frontmatter value. Lists become multi-valued
// properties typed after their elements; a list mixing types is stored as
// the literal strings. Nulls and mappings are dropped.
func propertyFromYAML(name string, value any) (model.Property, bool) {
	items, isList := value.([]any)
	if !isList {
		items = []any{value}
	}

	p := model.Property{Name: name}
	var literal []string
	mixed := false
	for _, item := range items {
		typ, text, ok := scalarValue(item)
		if !ok {
			continue
		}
		if len(p.Values) > 0 && p.Type != typ {
			mixed = true
		}
		p.Type = typ
		p.Values = append(p.Values, text)
		if s, isString := item.(string); isString {
			literal = append(literal, s)
		} else {
			literal = append(literal, text)
		}
	}
	if len(p.Values) == 0 {
		return model.Property{}, false
	}
	if mixed {
		p.Type = model.PropertyString
		p.Values = literal
	}
	return p, true
}

func scalarValue(v any) (model.PropertyType, string, bool) {
	switch v := v.(type) {
	case string:
		if target, _, ok := wikilink.ParseExact(v); ok {
			return model.PropertyReference, target, true
		}
		if c, ok := dates.Canonical(v); ok {
			return model.PropertyDate, c, true
		}
		return model.PropertyString, v, true
	case int:
		return model.PropertyNumber, strconv.Itoa(v), true
	case int64:
		return model.PropertyNumber, strconv.FormatInt(v, 10), true
	case uint64:
		return model.PropertyNumber, strconv.FormatUint(v, 10), true
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return model.PropertyString, strconv.FormatFloat(v, 'g', -1, 64), true
		}
		return model.PropertyNumber, strconv.FormatFloat(v, 'g', -1, 64), true
	case bool:
		return model.PropertyBoolean, strconv.FormatBool(v), true
	case time.Time:
		return model.PropertyDate, dates.Format(v), true
	default:
		return model.PropertyString, "", false
	}
}

func scalarString(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	}
	if _, text, ok := scalarValue(v); ok {
		return text
	}
	return fmt.Sprint(v)
}
