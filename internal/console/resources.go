package console

import (
	"encoding/json"
	"net/url"
	"strconv"
	"time"

	"github.com/a-h/templ"

	"github.com/vango-dev/vango-admin/pkg/apiclient"
	"github.com/vango-dev/vango-admin/pkg/router"
	"github.com/vango-dev/vango-admin/pkg/table"
)

// User is a backend account.
type User struct {
	ID        int64               `json:"id"`
	Username  string              `json:"username"`
	Nickname  string              `json:"nickname"`
	Email     string              `json:"email"`
	Phone     string              `json:"phone"`
	Status    int                 `json:"status"`
	Roles     []string            `json:"roles"`
	CreatedAt apiclient.Timestamp `json:"createTime"`
}

// Product is a catalog item.
type Product struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	TypeName    string  `json:"typeName"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	Status      int     `json:"status"`
	Description string  `json:"description"`
}

// ProductType is a catalog category.
type ProductType struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Sort int    `json:"sort"`
}

// Role groups permissions.
type Role struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Permission is a grantable action.
type Permission struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
	Type string `json:"type"`
}

// Report is a generated report. Content is markdown.
type Report struct {
	ID        int64               `json:"id"`
	Title     string              `json:"title"`
	Summary   string              `json:"summary"`
	Content   string              `json:"content"`
	CreatedAt apiclient.Timestamp `json:"createTime"`
}

// FileInfo is a stored file.
type FileInfo struct {
	ID          int64               `json:"id"`
	Name        string              `json:"name"`
	Size        int64               `json:"size"`
	ContentType string              `json:"contentType"`
	URL         string              `json:"url"`
	UploadedAt  apiclient.Timestamp `json:"uploadTime"`
}

// RedisKey is one key of the cache browser.
type RedisKey struct {
	Key  string `json:"key"`
	Type string `json:"type"`
	TTL  int64  `json:"ttl"`
}

// RedisValue is a key with its decoded value.
type RedisValue struct {
	RedisKey
	Value json.RawMessage `json:"value"`
}

// SecurityConfig is the backend's login policy.
type SecurityConfig struct {
	PasswordMinLength  int  `json:"passwordMinLength"`
	PasswordExpiryDays int  `json:"passwordExpiryDays"`
	MaxLoginAttempts   int  `json:"maxLoginAttempts"`
	LockoutMinutes     int  `json:"lockoutMinutes"`
	CaptchaEnabled     bool `json:"captchaEnabled"`
	SessionTimeout     int  `json:"sessionTimeoutMinutes"`
}

// resource describes an entity that supports batch deletion.
type resource struct {
	// base is the console list path and the backend collection path.
	base       string
	permission string
	noun       string
}

// deletable maps the {resource} URL segment of batch-delete actions.
var deletable = map[string]resource{
	"users":         {base: "/users", permission: "system:user:delete", noun: "user"},
	"products":      {base: "/products", permission: "product:delete", noun: "product"},
	"product-types": {base: "/product-types", permission: "product:type:delete", noun: "product type"},
	"roles":         {base: "/roles", permission: "system:role:delete", noun: "role"},
	"permissions":   {base: "/permissions", permission: "system:permission:delete", noun: "permission"},
	"reports":       {base: "/reports", permission: "report:delete", noun: "report"},
	"files":         {base: "/files", permission: "file:delete", noun: "file"},
}

func id64(id int64) string { return strconv.FormatInt(id, 10) }

func linkCell(base string, id int64, label string) templ.Component {
	return router.Link(base+"/"+id64(id), label)
}

func dateCell(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}

func statusBadge(status int) templ.Component {
	if status == 1 {
		return table.Badge("Enabled", "success")
	}
	return table.Badge("Disabled", "muted")
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return strconv.FormatInt(n, 10) + " B"
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(n)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "B"
}

func formatTTL(ttl int64) string {
	if ttl < 0 {
		return "no expiry"
	}
	return (time.Duration(ttl) * time.Second).String()
}

var userColumns = []table.Column[User]{
	{Key: "id", Title: "ID", Width: "80px"},
	{Key: "username", Title: "Username", Render: func(u User) templ.Component { return linkCell("/users", u.ID, u.Username) }},
	{Key: "nickname", Title: "Nickname"},
	{Key: "email", Title: "Email"},
	{Key: "status", Title: "Status", Render: func(u User) templ.Component { return statusBadge(u.Status) }},
	{Key: "createTime", Title: "Created", Value: func(u User) string { return dateCell(u.CreatedAt.Time) }},
}

var productColumns = []table.Column[Product]{
	{Key: "id", Title: "ID", Width: "80px"},
	{Key: "name", Title: "Name", Render: func(p Product) templ.Component { return linkCell("/products", p.ID, p.Name) }},
	{Key: "typeName", Title: "Type"},
	{Key: "price", Title: "Price", Value: func(p Product) string { return strconv.FormatFloat(p.Price, 'f', 2, 64) }},
	{Key: "stock", Title: "Stock"},
	{Key: "status", Title: "Status", Render: func(p Product) templ.Component { return statusBadge(p.Status) }},
}

var productTypeColumns = []table.Column[ProductType]{
	{Key: "id", Title: "ID", Width: "80px"},
	{Key: "name", Title: "Name"},
	{Key: "sort", Title: "Sort"},
}

var roleColumns = []table.Column[Role]{
	{Key: "id", Title: "ID", Width: "80px"},
	{Key: "name", Title: "Name"},
	{Key: "code", Title: "Code"},
	{Key: "description", Title: "Description"},
}

var permissionColumns = []table.Column[Permission]{
	{Key: "id", Title: "ID", Width: "80px"},
	{Key: "name", Title: "Name"},
	{Key: "code", Title: "Code"},
	{Key: "type", Title: "Type", Render: func(p Permission) templ.Component { return table.Badge(p.Type, "info") }},
}

var reportColumns = []table.Column[Report]{
	{Key: "id", Title: "ID", Width: "80px"},
	{Key: "title", Title: "Title", Render: func(r Report) templ.Component { return linkCell("/reports", r.ID, r.Title) }},
	{Key: "summary", Title: "Summary", Render: func(r Report) templ.Component { return table.Markdown(r.Summary) }},
	{Key: "createTime", Title: "Created", Value: func(r Report) string { return dateCell(r.CreatedAt.Time) }},
}

var fileColumns = []table.Column[FileInfo]{
	{Key: "id", Title: "ID", Width: "80px"},
	{Key: "name", Title: "Name", Render: func(f FileInfo) templ.Component {
		return table.Link(f.URL, f.Name)
	}},
	{Key: "contentType", Title: "Type"},
	{Key: "size", Title: "Size", Value: func(f FileInfo) string { return formatSize(f.Size) }},
	{Key: "uploadTime", Title: "Uploaded", Value: func(f FileInfo) string { return dateCell(f.UploadedAt.Time) }},
}

var redisColumns = []table.Column[RedisKey]{
	{Key: "key", Title: "Key", Render: func(k RedisKey) templ.Component {
		return router.Link("/redis/"+url.PathEscape(k.Key), k.Key)
	}},
	{Key: "type", Title: "Type", Render: func(k RedisKey) templ.Component { return table.Badge(k.Type, "info") }},
	{Key: "ttl", Title: "TTL", Value: func(k RedisKey) string { return formatTTL(k.TTL) }},
}
