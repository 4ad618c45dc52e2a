package guard

import (
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"skillgap-ai/internal/domain/entity"
	"skillgap-ai/internal/utils/text"
)

// Kind is the expected type of a schema field.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
	// KindID is a string that must belong to an allow-set. Unknown IDs become nil.
	KindID
	// KindStringList is an array of strings.
	KindStringList
)

// Field is one declarative coercion rule.
type Field struct {
	Name string
	Kind Kind

	// Min and Max clamp numeric kinds when Max > Min.
	Min, Max float64

	// MaxLen caps strings in runes, or lists in items.
	MaxLen int
	// ItemMaxLen caps each list item in runes.
	ItemMaxLen int

	// Allow reports allow-set membership for KindID and filters KindStringList when set.
	Allow func(string) bool

	// Default replaces a missing or mistyped value.
	Default any
}

// Schema is an ordered set of field rules applied to one JSON object.
type Schema []Field

// Values holds coerced field values keyed by field name.
type Values map[string]any

// String returns a string field.
func (v Values) String(name string) string {
	s, _ := v[name].(string)
	return s
}

// Int returns an int field.
func (v Values) Int(name string) int {
	n, _ := v[name].(int)
	return n
}

// Float returns a float field.
func (v Values) Float(name string) float64 {
	f, _ := v[name].(float64)
	return f
}

// Bool returns a bool field.
func (v Values) Bool(name string) bool {
	b, _ := v[name].(bool)
	return b
}

// ID returns an ID field, nil when absent or rejected.
func (v Values) ID(name string) *string {
	id, _ := v[name].(*string)
	return id
}

// Strings returns a string list field.
func (v Values) Strings(name string) []string {
	l, _ := v[name].([]string)
	return l
}

// Apply coerces obj into Values. path prefixes correction paths, e.g. "skills[2]".
func (s Schema) Apply(obj gjson.Result, path string) (Values, []entity.Correction) {
	vals := make(Values, len(s))
	var corr []entity.Correction

	for _, f := range s {
		r := obj.Get(f.Name)
		c := &collector{path: joinPath(path, f.Name)}

		switch f.Kind {
		case KindString:
			vals[f.Name] = f.coerceString(r, c)
		case KindInt:
			vals[f.Name] = f.coerceInt(r, c)
		case KindFloat:
			vals[f.Name] = f.coerceFloat(r, c)
		case KindBool:
			vals[f.Name] = f.coerceBool(r, c)
		case KindID:
			vals[f.Name] = f.coerceID(r, c)
		case KindStringList:
			vals[f.Name] = f.coerceStringList(r, c)
		}
		corr = append(corr, c.out...)
	}
	return vals, corr
}

type collector struct {
	path string
	out  []entity.Correction
}

func (c *collector) add(reason string, from, to any) {
	c.out = append(c.out, entity.Correction{Path: c.path, Reason: reason, From: from, To: to})
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

func (f Field) coerceString(r gjson.Result, c *collector) string {
	def, _ := f.Default.(string)
	switch {
	case !r.Exists() || r.Type == gjson.Null:
		if def != "" {
			c.add("missing", nil, def)
		}
		return def
	case r.Type != gjson.String:
		c.add("wrong type", r.Raw, def)
		return def
	}
	return f.capString(strings.TrimSpace(r.Str), c)
}

func (f Field) capString(s string, c *collector) string {
	if f.MaxLen <= 0 {
		return s
	}
	out, cut := text.TruncateWithEllipsis(s, f.MaxLen)
	if cut {
		c.add("truncated", text.CountRunes(s), f.MaxLen)
	}
	return out
}

// number reads a JSON number, accepting numeric strings.
func number(r gjson.Result, c *collector) (float64, bool) {
	switch r.Type {
	case gjson.Number:
		return r.Num, true
	case gjson.String:
		n, err := strconv.ParseFloat(strings.TrimSpace(r.Str), 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		c.add("coerced from string", r.Str, n)
		return n, true
	}
	return 0, false
}

func (f Field) clamp(n float64, c *collector) float64 {
	if f.Max <= f.Min {
		return n
	}
	switch {
	case n < f.Min:
		c.add("clamped", n, f.Min)
		return f.Min
	case n > f.Max:
		c.add("clamped", n, f.Max)
		return f.Max
	}
	return n
}

func (f Field) coerceInt(r gjson.Result, c *collector) int {
	def := toInt(f.Default)
	if !r.Exists() || r.Type == gjson.Null {
		c.add("missing", nil, def)
		return def
	}
	n, ok := number(r, c)
	if !ok {
		c.add("wrong type", r.Raw, def)
		return def
	}
	if rounded := math.Round(n); rounded != n {
		c.add("rounded", n, rounded)
		n = rounded
	}
	return int(f.clamp(n, c))
}

func (f Field) coerceFloat(r gjson.Result, c *collector) float64 {
	def := toFloat(f.Default)
	if !r.Exists() || r.Type == gjson.Null {
		c.add("missing", nil, def)
		return def
	}
	n, ok := number(r, c)
	if !ok {
		c.add("wrong type", r.Raw, def)
		return def
	}
	return f.clamp(n, c)
}

func (f Field) coerceBool(r gjson.Result, c *collector) bool {
	def, _ := f.Default.(bool)
	if r.IsBool() {
		return r.Bool()
	}
	if r.Exists() && r.Type != gjson.Null {
		c.add("wrong type", r.Raw, def)
	}
	return def
}

func (f Field) coerceID(r gjson.Result, c *collector) *string {
	if !r.Exists() || r.Type == gjson.Null {
		return nil
	}
	if r.Type != gjson.String {
		c.add("wrong type", r.Raw, nil)
		return nil
	}
	id := strings.TrimSpace(r.Str)
	if id == "" {
		return nil
	}
	if f.Allow == nil || !f.Allow(id) {
		c.add("not in allow-set", id, nil)
		return nil
	}
	return &id
}

func (f Field) coerceStringList(r gjson.Result, c *collector) []string {
	out := []string{}
	if !r.Exists() || r.Type == gjson.Null {
		return out
	}
	if !r.IsArray() {
		c.add("wrong type", r.Raw, []string{})
		return out
	}

	seen := make(map[string]bool)
	for i, item := range r.Array() {
		ic := &collector{path: c.path + "[" + strconv.Itoa(i) + "]"}
		if item.Type != gjson.String {
			ic.add("dropped non-string", item.Raw, nil)
			c.out = append(c.out, ic.out...)
			continue
		}
		s := strings.TrimSpace(item.Str)
		switch {
		case s == "":
			continue
		case f.Allow != nil && !f.Allow(s):
			ic.add("not in allow-set", s, nil)
			c.out = append(c.out, ic.out...)
			continue
		case seen[s]:
			continue
		}
		seen[s] = true
		if f.ItemMaxLen > 0 {
			if cut, ok := text.TruncateWithEllipsis(s, f.ItemMaxLen); ok {
				ic.add("truncated", text.CountRunes(s), f.ItemMaxLen)
				s = cut
			}
		}
		c.out = append(c.out, ic.out...)
		out = append(out, s)
	}

	if f.MaxLen > 0 && len(out) > f.MaxLen {
		c.add("truncated list", len(out), f.MaxLen)
		out = out[:f.MaxLen]
	}
	return out
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	}
	return 0
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	}
	return 0
}
