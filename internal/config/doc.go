// Package config loads vango-admin configuration.
//
// Settings come from three layers, later ones winning: built-in defaults
// (New), admin.json in the working directory, and VANGO_ADMIN_*
// environment variables. A .env file next to admin.json is loaded into
// the environment first; variables already set in the process win.
//
// # Configuration File Structure
//
//	{
//	  "name": "Acme Admin",
//	  "server": {"host": "0.0.0.0", "port": 3000, "shutdownTimeout": "10s"},
//	  "api": {
//	    "baseURL": "http://localhost:8080/api",
//	    "timeout": "10s",
//	    "retries": 2,
//	    "paging": {"current": "pageNum", "size": "pageSize"}
//	  },
//	  "session": {"store": "redis", "redisURL": "redis://localhost:6379/0"},
//	  "upload": {"store": "s3", "s3": {"bucket": "admin-staging"}}
//	}
//
// Nested fields map to environment variables by path, for example
// VANGO_ADMIN_API_BASE_URL, VANGO_ADMIN_SESSION_REDIS_URL and
// VANGO_ADMIN_UPLOAD_S3_SECRET_ACCESS_KEY. Secrets are only read from the
// environment.
//
// # Usage
//
//	cfg, err := config.LoadOrEnv(".")
//	if err != nil {
//	    errors.PrintError(err)
//	    os.Exit(1)
//	}
//	if err := cfg.Validate(); err != nil {
//	    ...
//	}
package config
