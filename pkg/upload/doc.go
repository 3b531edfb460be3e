// Package upload stages files posted by the console before they are
// forwarded to the backend's /files endpoint.
//
// The browser posts a multipart form to Handler, which streams the file
// into a Store and answers with a temp id. The console later claims the
// staged file by id and forwards it:
//
//	f, err := store.Claim(ctx, tempID)
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
//
// Two stores are provided: DiskStore for a single instance and S3Store for
// replicas sharing a bucket.
//
// Config.AllowedTypes is checked against the type sniffed from the file's
// first bytes (http.DetectContentType); the client's part header is not
// trusted. Config.AllowedExtensions and Config.RequireExtensionMatch add
// filename checks on top.
package upload
