package table

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/a-h/templ"
)

// DefaultEmptyText is shown when there are no rows.
const DefaultEmptyText = "No data"

// Column describes one table column.
type Column[T any] struct {
	// Key identifies the column. Without Render or Value it also names the
	// struct field (or json tag, or map key) the cell is read from.
	Key string

	// Title is the header text.
	Title string

	// Width is an optional fixed CSS width such as "120px".
	Width string

	// Value returns the cell text. It is escaped on output.
	Value func(row T) string

	// Render returns the cell content and takes precedence over Value.
	Render func(row T) templ.Component
}

// Options tune Render.
type Options[T any] struct {
	// EmptyText replaces the table when there are no rows.
	// Default: DefaultEmptyText.
	EmptyText string

	// Class is added to the table element.
	Class string

	// RowID identifies a row. Required for selection.
	RowID func(row T) string

	// SelectName enables a leading checkbox column whose inputs carry this
	// name and the row id as value.
	SelectName string

	// Selected reports whether a row id is checked.
	Selected func(id string) bool
}

// grid is the row-type-free form of a table handed to gridView.
type grid struct {
	class      string
	selectName string
	headers    []header
	rows       []gridRow
}

type header struct {
	key, title, width string
}

type gridRow struct {
	id      string
	hasID   bool
	checked bool
	cells   []cell
}

type cell struct {
	width   string
	content templ.Component
}

// Render produces the table for rows. An empty row set renders the empty
// state message instead of an empty table.
func Render[T any](cols []Column[T], rows []T, opts Options[T]) templ.Component {
	if len(rows) == 0 {
		text := opts.EmptyText
		if text == "" {
			text = DefaultEmptyText
		}
		return emptyState(text)
	}

	g := grid{class: opts.Class, headers: make([]header, len(cols)), rows: make([]gridRow, len(rows))}
	if opts.SelectName != "" && opts.RowID != nil {
		g.selectName = opts.SelectName
	}
	for i, col := range cols {
		g.headers[i] = header{key: col.Key, title: col.Title, width: col.Width}
	}
	for i, row := range rows {
		r := gridRow{cells: make([]cell, len(cols))}
		if opts.RowID != nil {
			r.id, r.hasID = opts.RowID(row), true
			r.checked = g.selectName != "" && opts.Selected != nil && opts.Selected(r.id)
		}
		for j, col := range cols {
			r.cells[j] = cell{width: col.Width, content: cellContent(col, row)}
		}
		g.rows[i] = r
	}
	return gridView(g)
}

func cellContent[T any](col Column[T], row T) templ.Component {
	switch {
	case col.Render != nil:
		return col.Render(row)
	case col.Value != nil:
		return Text(col.Value(row))
	default:
		return Text(Field(row, col.Key))
	}
}

// Field reads key from row, which may be a struct (matched by field name,
// case-insensitively, or by json tag), a pointer to one, or a map with
// string keys. Missing values and nil pointers give "".
func Field(row any, key string) string {
	v := reflect.ValueOf(row)
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return ""
		}
		mv := v.MapIndex(reflect.ValueOf(key).Convert(v.Type().Key()))
		if !mv.IsValid() {
			return ""
		}
		return format(mv)
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			tag, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if tag == key || strings.EqualFold(f.Name, key) {
				return format(v.Field(i))
			}
		}
	}
	return ""
}

func format(v reflect.Value) string {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64)
	default:
		return fmt.Sprint(v.Interface())
	}
}
