package apiclient

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnvelope(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		ok      bool
		code    int
		message string
		data    string
	}{
		{name: "code zero", body: `{"code":0,"message":"ok","data":{"id":1}}`, ok: true, message: "ok", data: `{"id":1}`},
		{name: "code 200", body: `{"code":200,"msg":"fine","data":[1,2]}`, ok: true, code: 200, message: "fine", data: `[1,2]`},
		{name: "application failure", body: `{"code":1001,"message":"name taken"}`, ok: false, code: 1001, message: "name taken"},
		{name: "success true", body: `{"success":true,"data":"tok"}`, ok: true, data: `"tok"`},
		{name: "success false", body: `{"success":false,"message":"denied"}`, ok: false, message: "denied"},
		{name: "null data", body: `{"code":0,"data":null}`, ok: true},
		{name: "bare object", body: `{"id":3,"name":"x"}`, ok: true, data: `{"id":3,"name":"x"}`},
		{name: "bare array", body: `[{"id":1}]`, ok: true, data: `[{"id":1}]`},
		{name: "string code is not an envelope", body: `{"code":"A1","name":"x"}`, ok: true, data: `{"code":"A1","name":"x"}`},
		{name: "empty", body: ``, ok: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env, err := ParseEnvelope([]byte(tc.body))
			require.NoError(t, err)
			assert.Equal(t, tc.ok, env.OK)
			assert.Equal(t, tc.code, env.Code)
			assert.Equal(t, tc.message, env.Message)
			if tc.data == "" {
				assert.Empty(t, env.Data)
			} else {
				assert.JSONEq(t, tc.data, string(env.Data))
			}
		})
	}
}

func TestParseEnvelopeRejectsInvalidJSON(t *testing.T) {
	_, err := ParseEnvelope([]byte(`{"code":`))
	assert.ErrorIs(t, err, ErrBadEnvelope)
}

type product struct {
	ID    int     `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

func TestDecodePageShapesAgree(t *testing.T) {
	want := []product{{ID: 1, Name: "a", Price: 1.5}, {ID: 2, Name: "b", Price: 2}}

	shapes := map[string]string{
		"records": `{"records":[{"id":1,"name":"a","price":1.5},{"id":2,"name":"b","price":2}],"total":12,"current":2,"size":2}`,
		"list":    `{"list":[{"id":1,"name":"a","price":1.5},{"id":2,"name":"b","price":2}],"total":12,"pageNum":2,"pageSize":2}`,
		"items":   `{"items":[{"id":1,"name":"a","price":1.5},{"id":2,"name":"b","price":2}],"totalCount":12,"page":2,"limit":2}`,
		"rows":    `{"rows":[{"id":1,"name":"a","price":1.5},{"id":2,"name":"b","price":2}],"count":12,"current":2,"size":2}`,
	}
	for name, body := range shapes {
		t.Run(name, func(t *testing.T) {
			p, err := DecodePage[product](json.RawMessage(body))
			require.NoError(t, err)
			assert.Equal(t, Page[product]{Records: want, Total: 12, Current: 2, Size: 2}, p)
		})
	}

	p, err := DecodePage[product](json.RawMessage(`[{"id":1,"name":"a","price":1.5},{"id":2,"name":"b","price":2}]`))
	require.NoError(t, err)
	assert.Equal(t, Page[product]{Records: want, Total: 2, Current: 1, Size: 2}, p)
}

func TestDecodePageEmpty(t *testing.T) {
	p, err := DecodePage[product](nil)
	require.NoError(t, err)
	assert.NotNil(t, p.Records)
	assert.Equal(t, 0, p.Total)

	p, err = DecodePage[product](json.RawMessage(`{"records":null,"total":0}`))
	require.NoError(t, err)
	assert.Empty(t, p.Records)
	assert.Equal(t, 1, p.Current)

	_, err = DecodePage[product](json.RawMessage(`{"records":"nope"}`))
	assert.ErrorIs(t, err, ErrBadEnvelope)
}

func TestPageParamsQuery(t *testing.T) {
	q := DefaultPageParams.Query(ListParams{Page: 3, Size: 20, Keyword: "bob", Filters: map[string]string{"status": "1", "empty": ""}})
	assert.Equal(t, "current=3&keyword=bob&size=20&status=1", q.Encode())

	legacy := PageParams{Current: "pageNum", Size: "pageSize", ZeroBased: true}
	q = legacy.Query(ListParams{Page: 1, Size: 10, Keyword: "ignored"})
	assert.Equal(t, "pageNum=0&pageSize=10", q.Encode())

	q = DefaultPageParams.Query(ListParams{Page: -4})
	assert.Equal(t, "1", q.Get("current"))
}
