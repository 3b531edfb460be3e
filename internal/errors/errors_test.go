package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/vango-dev/vango-admin/pkg/apiclient"
	"github.com/vango-dev/vango-admin/pkg/router"
	"github.com/vango-dev/vango-admin/pkg/upload"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "config error",
			code:    "E103",
			wantMsg: "Invalid backend base URL",
			wantCat: CategoryConfig,
		},
		{
			name:    "backend error",
			code:    "E200",
			wantMsg: "Backend unreachable",
			wantCat: CategoryNetwork,
		},
		{
			name:    "unknown error code",
			code:    "E999",
			wantMsg: "Unknown error",
			wantCat: CategoryInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestErrorChaining(t *testing.T) {
	cause := fmt.Errorf("dial tcp: connection refused")
	err := New("E200").
		WithDetail("while loading /users").
		WithSuggestion("start the backend").
		Wrap(cause)

	if err.Error() != "E200: Backend unreachable" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to see the wrapped cause")
	}
	if err.Detail != "while loading /users" || err.Suggestion != "start the backend" {
		t.Errorf("detail/suggestion not set: %+v", err)
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "E100") != nil {
		t.Error("FromError(nil) should be nil")
	}
	orig := New("E101")
	if FromError(orig, "E100") != orig {
		t.Error("FromError should return an *Error unchanged")
	}
	wrapped := FromError(fmt.Errorf("boom"), "E100")
	if wrapped.Code != "E100" || wrapped.Wrapped == nil {
		t.Errorf("FromError = %+v", wrapped)
	}
}

func TestRegistry(t *testing.T) {
	codes := GetAllCodes()
	if len(codes) == 0 {
		t.Fatal("registry is empty")
	}
	for i := 1; i < len(codes); i++ {
		if codes[i-1] >= codes[i] {
			t.Fatalf("codes not sorted: %v", codes)
		}
	}
	for _, code := range codes {
		tmpl, _ := GetTemplate(code)
		if tmpl.Category == "" || tmpl.Message == "" {
			t.Errorf("%s: incomplete template %+v", code, tmpl)
		}
		if !strings.HasSuffix(tmpl.DocURL, code) {
			t.Errorf("%s: DocURL %q does not point at the code", code, tmpl.DocURL)
		}
	}

	Register("E900", ErrorTemplate{Category: CategoryInternal, Message: "custom"})
	if got := New("E900").Message; got != "custom" {
		t.Errorf("registered template Message = %q", got)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Category
	}{
		{"nil", nil, ""},
		{"coded", New("E104"), CategoryConfig},
		{"network", &apiclient.Error{Err: apiclient.ErrNetwork}, CategoryNetwork},
		{"timeout", &apiclient.Error{Err: apiclient.ErrTimeout}, CategoryTimeout},
		{"unauthorized", &apiclient.Error{Status: 401, Err: apiclient.ErrUnauthorized}, CategoryAuth},
		{"forbidden", &apiclient.Error{Status: 403}, CategoryPermission},
		{"validation", &apiclient.Error{Status: 422}, CategoryValidation},
		{"server", &apiclient.Error{Status: 502}, CategoryBackend},
		{"application", &apiclient.Error{Status: 200, Code: 5001}, CategoryBackend},
		{"wrapped api error", fmt.Errorf("load users: %w", &apiclient.Error{Status: 403}), CategoryPermission},
		{"canceled", context.Canceled, CategoryCanceled},
		{"superseded", router.ErrSuperseded, CategoryCanceled},
		{"deadline", context.DeadlineExceeded, CategoryTimeout},
		{"redirect loop", router.ErrTooManyRedirects, CategoryNavigation},
		{"upload", upload.ErrBadType, CategoryUpload},
		{"other", fmt.Errorf("boom"), CategoryInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestDescribe(t *testing.T) {
	if Describe(nil) != nil {
		t.Fatal("Describe(nil) should be nil")
	}

	apiErr := &apiclient.Error{Status: 409, Message: "Username already exists"}
	d := Describe(apiErr)
	if d.Code != "E204" || d.Detail != "Username already exists" {
		t.Errorf("Describe(conflict) = %+v", d)
	}
	if !stderrors.Is(d, apiErr) {
		t.Error("Describe must keep the cause")
	}

	if got := Describe(&apiclient.Error{Status: 200, Err: apiclient.ErrBadEnvelope}).Code; got != "E205" {
		t.Errorf("decode error code = %q, want E205", got)
	}
	if got := Describe(router.ErrTooManyRedirects).Code; got != "E300" {
		t.Errorf("redirect loop code = %q, want E300", got)
	}
	if got := Describe(upload.ErrTooLarge).Code; got != "E400" {
		t.Errorf("too large code = %q, want E400", got)
	}

	plain := Describe(fmt.Errorf("boom"))
	if plain.Code != "" || plain.Message != "boom" || plain.Category != CategoryInternal {
		t.Errorf("Describe(plain) = %+v", plain)
	}
}

func TestFormat(t *testing.T) {
	colors = false
	defer func() { colors = true }()

	out := New("E103").WithSuggestion("fix it").Format()
	for _, want := range []string{
		"CONFIG ERROR E103: Invalid backend base URL",
		"api.baseURL must be an absolute http or https URL.",
		"Hint: fix it",
		"Docs: https://vango.dev/admin/errors/E103",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q:\n%s", want, out)
		}
	}

	out = New("E104").Format()
	if !strings.Contains(out, "Hint: Check admin.json") {
		t.Errorf("config error without a suggestion should point at admin.json:\n%s", out)
	}

	out = FromError(fmt.Errorf("dial tcp: connection refused"), "E200").WithDetail("").Format()
	if !strings.Contains(out, "NETWORK ERROR E200: Backend unreachable") || !strings.Contains(out, "dial tcp: connection refused") {
		t.Errorf("network error should show its cause:\n%s", out)
	}

	out = Describe(fmt.Errorf("boom")).Format()
	if !strings.Contains(out, "ERROR: boom") || strings.Count(out, "boom") != 1 {
		t.Errorf("plain error = %q", out)
	}
	if got := New("E202").label(); got != "SIGN-IN ERROR E202" {
		t.Errorf("auth label = %q", got)
	}
	if got := OK("ready"); got != "✓ ready" {
		t.Errorf("OK() = %q", got)
	}
	if got := Warn("careful"); got != "! careful" {
		t.Errorf("Warn() = %q", got)
	}
}
