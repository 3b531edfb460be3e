package errors

import (
	"slices"
	"sync"
)

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
	DocURL     string
}

const docBase = "https://vango.dev/admin/errors/"

var (
	registryMu sync.RWMutex

	// registry maps error codes to their templates.
	registry = map[string]ErrorTemplate{
		// ============================================
		// Configuration (E100-E119)
		// ============================================

		"E100": {
			Category:   CategoryConfig,
			Message:    "Configuration file not found",
			Detail:     "vango-admin looks for admin.json in the working directory unless --config is given.",
			Suggestion: "Create admin.json or run with environment variables only (VANGO_ADMIN_API_BASE_URL and friends)",
			DocURL:     docBase + "E100",
		},
		"E101": {
			Category:   CategoryConfig,
			Message:    "Invalid configuration file",
			Detail:     "admin.json could not be parsed as JSON.",
			Suggestion: "Check admin.json for trailing commas and unquoted keys",
			DocURL:     docBase + "E101",
		},
		"E102": {
			Category: CategoryConfig,
			Message:  "Invalid listen port",
			Detail:   "The server port must be between 1 and 65535.",
			DocURL:   docBase + "E102",
		},
		"E103": {
			Category:   CategoryConfig,
			Message:    "Invalid backend base URL",
			Detail:     "api.baseURL must be an absolute http or https URL.",
			Suggestion: `Set "api": {"baseURL": "http://localhost:8080/api"}`,
			DocURL:     docBase + "E103",
		},
		"E104": {
			Category: CategoryConfig,
			Message:  "Invalid session store",
			Detail:   `session.store must be "memory" or "redis"; redis requires session.redisURL.`,
			DocURL:   docBase + "E104",
		},
		"E105": {
			Category: CategoryConfig,
			Message:  "Invalid upload store",
			Detail:   `upload.store must be "disk" or "s3"; s3 requires upload.s3.bucket.`,
			DocURL:   docBase + "E105",
		},
		"E106": {
			Category: CategoryConfig,
			Message:  "Invalid duration",
			Detail:   `Durations use Go syntax such as "30s" or "15m".`,
			DocURL:   docBase + "E106",
		},
		"E107": {
			Category: CategoryConfig,
			Message:  "Invalid environment override",
			Detail:   "A VANGO_ADMIN_* environment variable could not be parsed.",
			DocURL:   docBase + "E107",
		},

		// ============================================
		// Backend calls (E200-E219)
		// ============================================

		"E200": {
			Category:   CategoryNetwork,
			Message:    "Backend unreachable",
			Detail:     "The request could not reach the backend after all retries.",
			Suggestion: "Check that the backend is running and api.baseURL is correct",
			DocURL:     docBase + "E200",
		},
		"E201": {
			Category: CategoryTimeout,
			Message:  "Backend request timed out",
			DocURL:   docBase + "E201",
		},
		"E202": {
			Category: CategoryAuth,
			Message:  "Login expired",
			Detail:   "The backend rejected the stored token; the session was signed out.",
			DocURL:   docBase + "E202",
		},
		"E203": {
			Category: CategoryPermission,
			Message:  "Permission denied",
			DocURL:   docBase + "E203",
		},
		"E204": {
			Category: CategoryBackend,
			Message:  "Backend rejected the request",
			DocURL:   docBase + "E204",
		},
		"E205": {
			Category: CategoryBackend,
			Message:  "Unexpected backend response",
			Detail:   "The response body did not match any known envelope.",
			DocURL:   docBase + "E205",
		},

		// ============================================
		// Navigation (E300-E319)
		// ============================================

		"E300": {
			Category: CategoryNavigation,
			Message:  "Too many redirects",
			Detail:   "Navigation guards kept redirecting; the navigation was aborted.",
			DocURL:   docBase + "E300",
		},
		"E301": {
			Category: CategoryNavigation,
			Message:  "Invalid navigation target",
			DocURL:   docBase + "E301",
		},
		"E302": {
			Category: CategoryNavigation,
			Message:  "Page failed to load",
			DocURL:   docBase + "E302",
		},

		// ============================================
		// Uploads (E400-E419)
		// ============================================

		"E400": {
			Category: CategoryUpload,
			Message:  "File too large",
			DocURL:   docBase + "E400",
		},
		"E401": {
			Category: CategoryUpload,
			Message:  "File type not allowed",
			DocURL:   docBase + "E401",
		},
		"E402": {
			Category: CategoryUpload,
			Message:  "Upload expired",
			Detail:   "The staged file was not found; staged uploads are removed after a while.",
			DocURL:   docBase + "E402",
		},
	}
)

// GetAllCodes returns all registered error codes, sorted.
func GetAllCodes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[code] = template
}
