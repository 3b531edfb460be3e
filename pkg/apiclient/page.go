package apiclient

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/tidwall/gjson"
)

// Page is one page of a list endpoint. Current is 1-based.
type Page[T any] struct {
	Records []T `json:"records"`
	Total   int `json:"total"`
	Current int `json:"current"`
	Size    int `json:"size"`
}

var (
	recordKeys  = []string{"records", "list", "items", "rows"}
	totalKeys   = []string{"total", "totalCount", "count"}
	currentKeys = []string{"current", "pageNum", "page"}
	sizeKeys    = []string{"size", "pageSize", "limit"}
)

// DecodePage adapts a list payload into a Page. It accepts an object with
// the rows under "records", "list", "items" or "rows", or a bare array.
// Missing totals default to the number of rows.
func DecodePage[T any](data json.RawMessage) (Page[T], error) {
	var p Page[T]
	if len(data) == 0 {
		p.Records = []T{}
		return p, nil
	}

	root := gjson.ParseBytes(data)
	rows := root
	if root.IsObject() {
		rows = firstOf(root, recordKeys)
		p.Total = int(firstOf(root, totalKeys).Int())
		p.Current = int(firstOf(root, currentKeys).Int())
		p.Size = int(firstOf(root, sizeKeys).Int())
	}

	switch {
	case rows.IsArray():
		if err := json.Unmarshal([]byte(rows.Raw), &p.Records); err != nil {
			return p, fmt.Errorf("%w: records: %v", ErrBadEnvelope, err)
		}
	case !rows.Exists() || rows.Type == gjson.Null:
		p.Records = []T{}
	default:
		return p, fmt.Errorf("%w: no record list in page payload", ErrBadEnvelope)
	}

	if p.Records == nil {
		p.Records = []T{}
	}
	if p.Total == 0 {
		p.Total = len(p.Records)
	}
	if p.Current == 0 {
		p.Current = 1
	}
	if p.Size == 0 {
		p.Size = len(p.Records)
	}
	return p, nil
}

func firstOf(root gjson.Result, keys []string) gjson.Result {
	for _, k := range keys {
		if r := root.Get(k); r.Exists() {
			return r
		}
	}
	return gjson.Result{}
}

// PageParams names the query parameters of a list request. The backend
// pages from 1 unless ZeroBased is set.
type PageParams struct {
	Current   string
	Size      string
	Keyword   string
	ZeroBased bool
}

// DefaultPageParams is the 1-based current/size convention.
var DefaultPageParams = PageParams{Current: "current", Size: "size", Keyword: "keyword"}

// ListParams selects one page of a list.
type ListParams struct {
	Page    int
	Size    int
	Keyword string
	Filters map[string]string
}

// Query encodes l with the parameter names in pp.
func (pp PageParams) Query(l ListParams) url.Values {
	q := url.Values{}
	page := max(l.Page, 1)
	if pp.ZeroBased {
		page--
	}
	q.Set(pp.Current, strconv.Itoa(page))
	if l.Size > 0 {
		q.Set(pp.Size, strconv.Itoa(l.Size))
	}
	if l.Keyword != "" && pp.Keyword != "" {
		q.Set(pp.Keyword, l.Keyword)
	}
	for k, v := range l.Filters {
		if v != "" {
			q.Set(k, v)
		}
	}
	return q
}
