package console

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/vango-dev/vango-admin/internal/errors"
	"github.com/vango-dev/vango-admin/pkg/apiclient"
	"github.com/vango-dev/vango-admin/pkg/live"
	"github.com/vango-dev/vango-admin/pkg/toast"
	"github.com/vango-dev/vango-admin/pkg/upload"
)

// Permission needed to upload files.
const permFileUpload = "file:upload"

// errorText picks the most useful line of err for a toast.
func errorText(err error) string {
	e := apperrors.Describe(err)
	if e.Detail != "" {
		return e.Detail
	}
	return e.Message
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tab := tabFrom(ctx)

	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	req := apiclient.LoginRequest{
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Password: r.PostFormValue("password"),
		Captcha:  strings.TrimSpace(r.PostFormValue("captcha")),
	}
	redirect := safeRedirect(r.PostFormValue("redirect"))

	if req.Username == "" || req.Password == "" {
		s.loginFailed(w, r, tab, req.Username, redirect, "Enter your username and password.")
		return
	}

	id, err := s.auth.Login(ctx, req)
	if err != nil {
		s.logger.Info("sign-in rejected", "session", tab.ID, "user", req.Username, "error", err)
		s.loginFailed(w, r, tab, req.Username, redirect, errorText(err))
		return
	}
	if err := id.Save(ctx, tab.creds); err != nil {
		s.logger.Error("save credentials", "session", tab.ID, "error", err)
		s.loginFailed(w, r, tab, req.Username, redirect, "Could not start your session. Try again.")
		return
	}

	s.logger.Info("signed in", "session", tab.ID, "user", req.Username)
	s.redirect(w, r, redirect)
}

func (s *Server) loginFailed(w http.ResponseWriter, r *http.Request, tab *Tab, username, redirect, message string) {
	form := renderBody(r.Context(), loginView(s.cfg.Name, username, redirect, message))
	if isHTMX(r) {
		s.writeFragment(w, r, tab, form)
		return
	}
	s.writeShell(w, r, tab, http.StatusUnauthorized, form)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tab := tabFrom(ctx)

	if tab.creds.SignedIn(ctx) {
		if err := tab.auth.Logout(ctx); err != nil {
			s.logger.Warn("backend logout failed", "session", tab.ID, "error", err)
		}
	}
	if err := tab.creds.Clear(ctx); err != nil {
		s.logger.Error("clear credentials", "session", tab.ID, "error", err)
	}
	s.hub.Publish(tab.ID, live.Event{Name: live.EventLogout})
	s.tabs.Remove(tab.ID)

	s.logger.Info("signed out", "session", tab.ID)
	s.redirect(w, r, loginPath)
}

// handleBatchDelete removes the checked rows of a list and reloads the list
// as it was last shown.
func (s *Server) handleBatchDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tab := tabFrom(ctx)

	res, ok := deletable[chi.URLParam(r, "resource")]
	if !ok {
		http.NotFound(w, r)
		return
	}
	back := tab.listURL(res.base)

	if !tab.creds.SignedIn(ctx) {
		s.redirect(w, r, loginURL(back))
		return
	}
	if !tab.creds.HasPermission(ctx, res.permission) {
		toast.Error(toast.From(ctx), "You do not have permission to delete "+res.noun+"s.")
		s.actionRejected(w, r, back)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	var ids []string
	for _, id := range r.PostForm[querySelect] {
		if id = strings.TrimSpace(id); id != "" && !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		toast.Warning(toast.From(ctx), "Select at least one "+res.noun+".")
		s.actionRejected(w, r, back)
		return
	}

	err := apiclient.NewResource[json.RawMessage](tab.api, res.base).DeleteBatch(ctx, ids)
	if err != nil {
		if apperrors.Classify(err) == apperrors.CategoryAuth {
			s.redirect(w, r, loginURL(back))
			return
		}
		s.logger.Warn("batch delete failed", "session", tab.ID, "resource", res.base, "count", len(ids), "error", err)
		toast.Error(s.sessionToasts(ctx, tab.ID), errorText(err))
		s.actionRejected(w, r, back)
		return
	}

	s.logger.Info("batch delete", "session", tab.ID, "resource", res.base, "count", len(ids))
	toast.Success(s.sessionToasts(ctx, tab.ID), "Deleted "+plural(len(ids), res.noun)+".")
	s.refresh(w, r, tab, back)
}

// handleUpload stages a multipart upload, forwards it to the backend's
// file collection and reloads the file list.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tab := tabFrom(ctx)
	back := tab.listURL("/files")

	if !tab.creds.SignedIn(ctx) {
		s.redirect(w, r, loginURL(back))
		return
	}
	if !tab.creds.HasPermission(ctx, permFileUpload) {
		toast.Error(toast.From(ctx), "You do not have permission to upload files.")
		s.actionRejected(w, r, back)
		return
	}

	staged, err := upload.Receive(w, r, s.uploads, s.uploadCfg)
	if err != nil {
		s.logger.Info("upload rejected", "session", tab.ID, "status", upload.StatusFor(err), "error", err)
		toast.Error(toast.From(ctx), errorText(err))
		s.actionRejected(w, r, back)
		return
	}

	file, err := s.uploads.Claim(ctx, staged.TempID)
	if err != nil {
		s.logger.Error("claim upload", "session", tab.ID, "temp_id", staged.TempID, "error", err)
		toast.Error(toast.From(ctx), errorText(err))
		s.actionRejected(w, r, back)
		return
	}
	defer file.Close()

	body, contentType, err := multipartFile("file", file)
	if err == nil {
		_, err = tab.api.Upload(ctx, "/files", contentType, body)
	}
	if err != nil {
		if apperrors.Classify(err) == apperrors.CategoryAuth {
			s.redirect(w, r, loginURL(back))
			return
		}
		s.logger.Warn("forward upload", "session", tab.ID, "file", file.Filename, "error", err)
		toast.Error(toast.From(ctx), errorText(err))
		s.actionRejected(w, r, back)
		return
	}

	s.logger.Info("file uploaded", "session", tab.ID, "file", file.Filename, "size", file.Size)
	toast.Success(s.sessionToasts(ctx, tab.ID), "Uploaded "+file.Filename+".")
	s.refresh(w, r, tab, back)
}

// multipartFile encodes f as a single-file multipart form, keeping its
// content type.
func multipartFile(field string, f *upload.File) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, f.Filename))
	h.Set("Content-Type", f.ContentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f.Reader); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

// refresh re-renders target in place of the current entry after an action.
func (s *Server) refresh(w http.ResponseWriter, r *http.Request, tab *Tab, target string) {
	if !isHTMX(r) {
		s.redirect(w, r, target)
		return
	}
	res, err := tab.ctrl.Redirect(r.Context(), target)
	s.writeNavigation(w, r, tab, res, err, true)
}

// actionRejected keeps the page as it is after a refused action.
func (s *Server) actionRejected(w http.ResponseWriter, r *http.Request, back string) {
	if isHTMX(r) {
		s.noSwap(w, r)
		return
	}
	s.redirect(w, r, back)
}
