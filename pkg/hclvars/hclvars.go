// Package hclvars reads script variables from HCL attribute files:
//
//	prop1 = 1
//	prop2 = "two"
//	tags  = ["four", "forty"]
//	owner = { name = "ops", oncall = true }
//
// Top-level attributes keep their order in the file. Object attributes are
// ordered by name, since that is how cty stores them.
package hclvars

import (
	"fmt"
	"math/big"
	"slices"

	"github.com/casualjim/scriptbridge/entity"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// Load parses the HCL file at path into a record of variables.
func Load(path string) (entity.Entity, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return entity.Entity{}, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}
	return decode(path, file)
}

// Parse parses HCL source into a record of variables. filename is only used
// in diagnostics.
func Parse(src []byte, filename string) (entity.Entity, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return entity.Entity{}, fmt.Errorf("failed to parse HCL %s: %w", filename, diags)
	}
	return decode(filename, file)
}

func decode(filename string, file *hcl.File) (entity.Entity, error) {
	attrs, diags := file.Body.JustAttributes()
	if diags.HasErrors() {
		return entity.Entity{}, fmt.Errorf("variables file %s: %w", filename, diags)
	}

	ordered := make([]*hcl.Attribute, 0, len(attrs))
	for _, attr := range attrs {
		ordered = append(ordered, attr)
	}
	slices.SortFunc(ordered, func(a, b *hcl.Attribute) int {
		return a.Range.Start.Byte - b.Range.Start.Byte
	})

	fields := make([]entity.Field, 0, len(ordered))
	for _, attr := range ordered {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return entity.Entity{}, fmt.Errorf("variable %q: %w", attr.Name, diags)
		}
		v, err := FromCty(val)
		if err != nil {
			return entity.Entity{}, fmt.Errorf("variable %q: %w", attr.Name, err)
		}
		fields = append(fields, entity.F(attr.Name, v))
	}
	return entity.New(fields...), nil
}

// FromCty converts a cty value into an entity value. Whole numbers become
// Int, other numbers Double; lists, sets and tuples become List; maps and
// objects become Record.
func FromCty(v cty.Value) (entity.Value, error) {
	if v.IsNull() {
		return entity.Null(), nil
	}
	if !v.IsKnown() {
		return entity.Value{}, fmt.Errorf("value of type %s is not known", v.Type().FriendlyName())
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return entity.String(v.AsString()), nil

	case ty == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				return entity.Int(i), nil
			}
		}
		f, _ := bf.Float64()
		return entity.Double(f), nil

	case ty == cty.Bool:
		return entity.Bool(v.True()), nil

	case ty.IsListType() || ty.IsSetType() || ty.IsTupleType():
		items := make([]entity.Value, 0, v.LengthInt())
		it := v.ElementIterator()
		for i := 0; it.Next(); i++ {
			_, elem := it.Element()
			item, err := FromCty(elem)
			if err != nil {
				return entity.Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			items = append(items, item)
		}
		return entity.List(items...), nil

	case ty.IsMapType() || ty.IsObjectType():
		fields := make([]entity.Field, 0, v.LengthInt())
		it := v.ElementIterator()
		for it.Next() {
			key, elem := it.Element()
			name := key.AsString()
			item, err := FromCty(elem)
			if err != nil {
				return entity.Value{}, fmt.Errorf("in attribute '%s': %w", name, err)
			}
			fields = append(fields, entity.F(name, item))
		}
		return entity.Record(entity.New(fields...)), nil
	}
	return entity.Value{}, fmt.Errorf("unsupported cty type %s", ty.FriendlyName())
}
