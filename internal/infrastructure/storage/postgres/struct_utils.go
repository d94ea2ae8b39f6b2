package postgres

import (
	"reflect"
	"slices"
	"sync"
)

// rowShape is the cached db-tag layout of one struct type.
type rowShape struct {
	// index path and column for every tagged field, embedded structs flattened
	fields []shapeField
}

type shapeField struct {
	index  []int
	column string
}

var shapes sync.Map // reflect.Type -> *rowShape

func shapeOf(t reflect.Type) *rowShape {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := shapes.Load(t); ok {
		return cached.(*rowShape)
	}

	shape := &rowShape{}
	if t.Kind() == reflect.Struct {
		collectFields(t, nil, shape)
	}
	actual, _ := shapes.LoadOrStore(t, shape)
	return actual.(*rowShape)
}

func collectFields(t reflect.Type, prefix []int, shape *rowShape) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		path := append(slices.Clone(prefix), i)

		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			collectFields(field.Type, path, shape)
			continue
		}

		tag := field.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		shape.fields = append(shape.fields, shapeField{index: path, column: tag})
	}
}

// ExtractDBColumns returns the column names from the "db" tags of T, embedded
// structs (entity.Document, entity.BaseEntity) flattened in declaration order.
//
//	cols := ExtractDBColumns[documents.Document]()
//	// ["id", "deletion_mark", "version", "created_at", ..., "kind", "client_id", ...]
func ExtractDBColumns[T any]() []string {
	shape := shapeOf(reflect.TypeFor[T]())
	cols := make([]string, len(shape.fields))
	for i, f := range shape.fields {
		cols[i] = f.column
	}
	return cols
}

// StructToMap converts a struct (or pointer to one) into column -> value using
// its "db" tags. Fields tagged "-" are skipped.
func StructToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	shape := shapeOf(rv.Type())
	res := make(map[string]any, len(shape.fields))
	for _, f := range shape.fields {
		res[f.column] = rv.FieldByIndex(f.index).Interface()
	}
	return res
}

// PickColumns keeps the entries of data whose key is in cols and not in skip.
func PickColumns(data map[string]any, cols []string, skip ...string) map[string]any {
	picked := make(map[string]any, len(cols))
	for _, col := range cols {
		if slices.Contains(skip, col) {
			continue
		}
		if val, ok := data[col]; ok {
			picked[col] = val
		}
	}
	return picked
}
