package sqlite

import (
	"reflect"
	"slices"
	"strings"
	"sync"
	"time"
)

// column is one persisted field of an entity, located by bun tag.
type column struct {
	name  string
	index []int
}

var columnCache sync.Map // reflect.Type -> []column

// columnsOf lists the bun columns of the struct behind entity, embedded
// structs included, in declaration order.
func columnsOf(t reflect.Type) []column {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if cached, ok := columnCache.Load(t); ok {
		return cached.([]column)
	}
	cols := collectColumns(t, nil)
	columnCache.Store(t, cols)
	return cols
}

func collectColumns(t reflect.Type, prefix []int) []column {
	var cols []column
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		idx := append(append([]int(nil), prefix...), i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			cols = append(cols, collectColumns(f.Type, idx)...)
			continue
		}
		tag := f.Tag.Get("bun")
		if tag == "" || tag == "-" || !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if name == "" || name == "table" {
			continue
		}
		cols = append(cols, column{name: name, index: idx})
	}
	return cols
}

// snapshot copies the current column values of entity. Pointer values are
// dereferenced so later mutation of the entity does not leak into the copy.
func snapshot(entity any) map[string]any {
	v := reflect.Indirect(reflect.ValueOf(entity))
	cols := columnsOf(v.Type())
	snap := make(map[string]any, len(cols))
	for _, c := range cols {
		snap[c.name] = plain(v.FieldByIndex(c.index))
	}
	return snap
}

// changedColumns returns the columns of entity whose value differs from
// snap, skipping the names in exclude.
func changedColumns(snap map[string]any, entity any, exclude ...string) []string {
	v := reflect.Indirect(reflect.ValueOf(entity))
	var changed []string
	for _, c := range columnsOf(v.Type()) {
		if slices.Contains(exclude, c.name) {
			continue
		}
		if !sameValue(snap[c.name], plain(v.FieldByIndex(c.index))) {
			changed = append(changed, c.name)
		}
	}
	return changed
}

// allColumns returns every column name of entity except exclude.
func allColumns(entity any, exclude ...string) []string {
	var names []string
	for _, c := range columnsOf(reflect.TypeOf(entity)) {
		if !slices.Contains(exclude, c.name) {
			names = append(names, c.name)
		}
	}
	return names
}

func plain(v reflect.Value) any {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		return v.Elem().Interface()
	}
	return v.Interface()
}

func sameValue(a, b any) bool {
	ta, aok := a.(time.Time)
	tb, bok := b.(time.Time)
	if aok && bok {
		return ta.Equal(tb)
	}
	return reflect.DeepEqual(a, b)
}
