package console

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/vango-dev/vango-admin/pkg/apiclient"
	"github.com/vango-dev/vango-admin/pkg/router"
	"github.com/vango-dev/vango-admin/pkg/session"
	"github.com/vango-dev/vango-admin/pkg/table"
)

//go:embed docs/*.md
var docsFS embed.FS

var errNoTab = errors.New("console: handler called outside a session")

var docName = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// routeMeta builds the options shared by console routes.
func routeMeta(title, permission string, extra ...router.RouteOption) []router.RouteOption {
	opts := []router.RouteOption{router.WithMeta(metaTitle, title)}
	if permission != "" {
		opts = append(opts, router.WithMeta(metaPermission, permission))
	}
	return append(opts, extra...)
}

// menuEntry marks a route for the fallback sidebar.
func menuEntry(label string) router.RouteOption { return router.WithMeta(metaMenu, label) }

func section(path string) router.RouteOption { return router.WithMeta(metaSection, path) }

// buildTable registers every console page.
func (s *Server) buildTable() *router.Table {
	t := router.NewTable()

	t.MustAdd("/", s.dashboard, append(routeMeta("Dashboard", ""), router.WithName("dashboard"), menuEntry("Dashboard"))...)
	t.MustAdd(loginPath, s.login, append(routeMeta("Sign in", ""),
		router.WithName("login"), router.WithMeta(metaPublic, true), router.WithMeta(metaGuestOnly, true))...)

	users := listPage[User]{title: "Users", base: "/users", columns: userColumns,
		rowID: func(u User) string { return id64(u.ID) }, deletable: true, search: "Search users"}
	t.MustAdd("/users", users.handle, append(routeMeta("Users", "system:user:list"), router.WithName("users"), menuEntry("Users"))...)
	t.MustAdd("/users/:id", userDetail, append(routeMeta("User", "system:user:query"), router.WithName("user"), section("/users"))...)

	products := listPage[Product]{title: "Products", base: "/products", columns: productColumns,
		rowID: func(p Product) string { return id64(p.ID) }, deletable: true, search: "Search products"}
	t.MustAdd("/products", products.handle, append(routeMeta("Products", "product:list"), router.WithName("products"), menuEntry("Products"))...)
	t.MustAdd("/products/:id", productDetail, append(routeMeta("Product", "product:query"), router.WithName("product"), section("/products"))...)

	types := listPage[ProductType]{title: "Product types", base: "/product-types", columns: productTypeColumns,
		rowID: func(p ProductType) string { return id64(p.ID) }, deletable: true}
	t.MustAdd("/product-types", types.handle, append(routeMeta("Product types", "product:type:list"), router.WithName("product-types"), menuEntry("Product types"))...)

	roles := listPage[Role]{title: "Roles", base: "/roles", columns: roleColumns,
		rowID: func(r Role) string { return id64(r.ID) }, deletable: true, search: "Search roles"}
	t.MustAdd("/roles", roles.handle, append(routeMeta("Roles", "system:role:list"), router.WithName("roles"), menuEntry("Roles"))...)

	t.MustAdd("/menus", menusPage, append(routeMeta("Menus", "system:menu:list"), router.WithName("menus"), menuEntry("Menus"))...)

	perms := listPage[Permission]{title: "Permissions", base: "/permissions", columns: permissionColumns,
		rowID: func(p Permission) string { return id64(p.ID) }, deletable: true, search: "Search permissions"}
	t.MustAdd("/permissions", perms.handle, append(routeMeta("Permissions", "system:permission:list"), router.WithName("permissions"), menuEntry("Permissions"))...)

	reports := listPage[Report]{title: "Reports", base: "/reports", columns: reportColumns,
		rowID: func(r Report) string { return id64(r.ID) }, deletable: true, search: "Search reports"}
	t.MustAdd("/reports", reports.handle, append(routeMeta("Reports", "report:list"), router.WithName("reports"), menuEntry("Reports"))...)
	t.MustAdd("/reports/:id", reportDetail, append(routeMeta("Report", "report:query"), router.WithName("report"), section("/reports"))...)

	files := listPage[FileInfo]{title: "Files", base: "/files", columns: fileColumns,
		rowID: func(f FileInfo) string { return id64(f.ID) }, deletable: true, search: "Search files", before: uploadForm()}
	t.MustAdd("/files", files.handle, append(routeMeta("Files", "file:list"), router.WithName("files"), menuEntry("Files"))...)

	keys := listPage[RedisKey]{title: "Cache keys", base: "/redis", api: "/redis/keys", columns: redisColumns, search: "Key pattern"}
	t.MustAdd("/redis", keys.handle, append(routeMeta("Cache", "monitor:redis:list"), router.WithName("redis"), menuEntry("Cache"))...)
	t.MustAdd("/redis/:key", redisDetail, append(routeMeta("Cache key", "monitor:redis:query"), router.WithName("redis-key"), section("/redis"))...)

	t.MustAdd("/security/config", securityPage, append(routeMeta("Security", "system:security:config"), router.WithName("security"), menuEntry("Security"))...)

	t.MustAdd("/docs", docsPage, append(routeMeta("Guide", ""), router.WithName("docs"), router.WithMeta(metaPublic, true), menuEntry("Guide"))...)
	t.MustAdd("/docs/*", docsPage, append(routeMeta("Guide", ""), router.WithMeta(metaPublic, true), section("/docs"))...)

	return t
}

// menuFallback derives the sidebar from the route table, for backends that
// do not send menus.
func menuFallback(ctx context.Context, t *router.Table, creds *session.Credentials) []session.Menu {
	var out []session.Menu
	for _, r := range t.Routes() {
		label := r.Meta.String(metaMenu)
		if label == "" {
			continue
		}
		if r.Meta.Bool(metaPublic) || creds.HasPermission(ctx, r.Meta.String(metaPermission)) {
			out = append(out, session.Menu{Name: label, Path: r.Pattern, Permission: r.Meta.String(metaPermission)})
		}
	}
	return out
}

// visibleMenus returns the menus stored for the session, filtered by
// permission, or the fallback menu when none are stored.
func visibleMenus(ctx context.Context, t *router.Table, creds *session.Credentials) []session.Menu {
	if !creds.SignedIn(ctx) {
		return nil
	}
	menus, err := creds.Menus(ctx)
	if err != nil || len(menus) == 0 {
		return menuFallback(ctx, t, creds)
	}
	return filterMenus(ctx, menus, creds)
}

func filterMenus(ctx context.Context, menus []session.Menu, creds *session.Credentials) []session.Menu {
	out := make([]session.Menu, 0, len(menus))
	for _, m := range menus {
		if m.Permission != "" && !creds.HasPermission(ctx, m.Permission) {
			continue
		}
		m.Children = filterMenus(ctx, m.Children, creds)
		out = append(out, m)
	}
	return out
}

func (s *Server) dashboard(ctx context.Context, req *router.Request) (templ.Component, error) {
	tab := tabFrom(ctx)
	if tab == nil {
		return nil, errNoTab
	}
	profile, err := tab.creds.Profile(ctx)
	if err != nil {
		return nil, err
	}
	return dashboardView(profile.DisplayName(), menuFallback(ctx, s.table, tab.creds)), nil
}

func (s *Server) login(ctx context.Context, req *router.Request) (templ.Component, error) {
	return loginView(s.cfg.Name, "", req.Query.Get("redirect"), ""), nil
}

// listPage renders a searchable, paginated backend collection.
type listPage[T any] struct {
	title string
	// base is the console path. The backend collection lives at api, or at
	// base when api is empty.
	base      string
	api       string
	columns   []table.Column[T]
	rowID     func(T) string
	deletable bool
	// search is the search box placeholder; empty hides the box.
	search string
	before templ.Component
}

func (p listPage[T]) handle(ctx context.Context, req *router.Request) (templ.Component, error) {
	tab := tabFrom(ctx)
	if tab == nil {
		return nil, errNoTab
	}
	st := ParseListState(req.Query, tab.pageSize)
	path := p.api
	if path == "" {
		path = p.base
	}
	res := apiclient.NewResource[T](tab.api, path)
	page, err := res.List(ctx, st.Params())
	if err != nil {
		return nil, err
	}
	pager := table.NewPager(st.Page, page.Total, st.Size)
	if st.Page > pager.Current && pager.Pages > 0 {
		// Past the last page: show the last page's rows, not an empty grid.
		st = st.WithPage(pager.Current)
		if page, err = res.List(ctx, st.Params()); err != nil {
			return nil, err
		}
		pager = table.NewPager(st.Page, page.Total, st.Size)
	}
	tab.rememberList(p.base, st)

	opts := table.Options[T]{RowID: p.rowID}
	if st.Keyword != "" {
		opts.EmptyText = "Nothing matches " + strconv.Quote(st.Keyword)
	}
	if p.deletable {
		opts.SelectName = querySelect
		opts.Selected = st.IsSelected
	}
	v := listSection{
		base:      p.base,
		title:     p.title,
		search:    p.search,
		keyword:   st.Keyword,
		before:    p.before,
		deletable: p.deletable,
		grid:      table.Render(p.columns, page.Records, opts),
		pager:     table.RenderPager(pager, func(n int) string { return st.WithPage(n).URL(p.base) }),
	}
	if st.Size != tab.pageSize {
		v.size = strconv.Itoa(st.Size)
	}
	if st.Keyword != "" {
		v.clearURL = st.WithKeyword("").URL(p.base)
	}
	return listView(v), nil
}

// listSection is what listView renders for one page of a collection.
type listSection struct {
	base    string
	title   string
	search  string
	keyword string
	// size is the non-default page size carried through searches.
	size      string
	clearURL  string
	before    templ.Component
	deletable bool
	grid      templ.Component
	pager     templ.Component
}

// recordID is the numeric :id of a detail route.
type recordID struct {
	ID int64 `param:"id"`
}

func userDetail(ctx context.Context, req *router.Request) (templ.Component, error) {
	tab := tabFrom(ctx)
	if tab == nil {
		return nil, errNoTab
	}
	var id recordID
	if err := router.Bind(req.Params, &id); err != nil {
		return notFoundView(ctx, req)
	}
	u, err := apiclient.NewResource[User](tab.api, "/users").Get(ctx, id64(id.ID))
	if err != nil {
		return nil, err
	}
	return detailView(u.Username, tab.listURL("/users"), []field{
		textField("ID", id64(u.ID)),
		textField("Nickname", u.Nickname),
		textField("Email", u.Email),
		textField("Phone", u.Phone),
		{label: "Status", value: statusBadge(u.Status)},
		textField("Roles", strings.Join(u.Roles, ", ")),
		textField("Created", dateCell(u.CreatedAt.Time)),
	}), nil
}

func productDetail(ctx context.Context, req *router.Request) (templ.Component, error) {
	tab := tabFrom(ctx)
	if tab == nil {
		return nil, errNoTab
	}
	var id recordID
	if err := router.Bind(req.Params, &id); err != nil {
		return notFoundView(ctx, req)
	}
	p, err := apiclient.NewResource[Product](tab.api, "/products").Get(ctx, id64(id.ID))
	if err != nil {
		return nil, err
	}
	return detailView(p.Name, tab.listURL("/products"), []field{
		textField("ID", id64(p.ID)),
		textField("Type", p.TypeName),
		textField("Price", strconv.FormatFloat(p.Price, 'f', 2, 64)),
		textField("Stock", strconv.Itoa(p.Stock)),
		{label: "Status", value: statusBadge(p.Status)},
		{label: "Description", value: table.Markdown(p.Description)},
	}), nil
}

func reportDetail(ctx context.Context, req *router.Request) (templ.Component, error) {
	tab := tabFrom(ctx)
	if tab == nil {
		return nil, errNoTab
	}
	var id recordID
	if err := router.Bind(req.Params, &id); err != nil {
		return notFoundView(ctx, req)
	}
	r, err := apiclient.NewResource[Report](tab.api, "/reports").Get(ctx, id64(id.ID))
	if err != nil {
		return nil, err
	}
	return detailView(r.Title, tab.listURL("/reports"), []field{
		textField("Created", dateCell(r.CreatedAt.Time)),
		{label: "Summary", value: table.Markdown(r.Summary)},
		{label: "Content", value: table.Markdown(r.Content)},
	}), nil
}

var menuColumns = []table.Column[session.Menu]{
	{Key: "id", Title: "ID", Width: "80px"},
	{Key: "name", Title: "Name"},
	{Key: "path", Title: "Path"},
	{Key: "permission", Title: "Permission"},
	{Key: "hidden", Title: "Visible", Render: func(m session.Menu) templ.Component {
		if m.Hidden {
			return table.Badge("Hidden", "muted")
		}
		return table.Badge("Shown", "success")
	}},
}

func menusPage(ctx context.Context, req *router.Request) (templ.Component, error) {
	tab := tabFrom(ctx)
	if tab == nil {
		return nil, errNoTab
	}
	var tree []session.Menu
	if err := tab.api.Get(ctx, "/menus", nil, &tree); err != nil {
		return nil, err
	}
	grid := table.Render(menuColumns, session.Flatten(tree), table.Options[session.Menu]{
		RowID:     func(m session.Menu) string { return id64(m.ID) },
		EmptyText: "No menus configured",
	})
	return tableSection("Menus", grid), nil
}

func redisDetail(ctx context.Context, req *router.Request) (templ.Component, error) {
	tab := tabFrom(ctx)
	if tab == nil {
		return nil, errNoTab
	}
	key := req.Param("key")
	var v RedisValue
	if err := tab.api.Get(ctx, "/redis/keys/"+url.PathEscape(key), nil, &v); err != nil {
		return nil, err
	}
	value := string(v.Value)
	var pretty bytes.Buffer
	if json.Indent(&pretty, v.Value, "", "  ") == nil {
		value = pretty.String()
	}
	return detailView(key, tab.listURL("/redis"), []field{
		{label: "Type", value: table.Badge(v.Type, "info")},
		textField("TTL", formatTTL(v.TTL)),
		{label: "Value", value: preformatted(value)},
	}), nil
}

func securityPage(ctx context.Context, req *router.Request) (templ.Component, error) {
	tab := tabFrom(ctx)
	if tab == nil {
		return nil, errNoTab
	}
	var c SecurityConfig
	if err := tab.api.Get(ctx, "/security/config", nil, &c); err != nil {
		return nil, err
	}
	captcha := table.Badge("Off", "muted")
	if c.CaptchaEnabled {
		captcha = table.Badge("On", "success")
	}
	return detailView("Security", "", []field{
		textField("Minimum password length", strconv.Itoa(c.PasswordMinLength)),
		textField("Password expiry (days)", strconv.Itoa(c.PasswordExpiryDays)),
		textField("Failed sign-ins before lockout", strconv.Itoa(c.MaxLoginAttempts)),
		textField("Lockout (minutes)", strconv.Itoa(c.LockoutMinutes)),
		textField("Session timeout (minutes)", strconv.Itoa(c.SessionTimeout)),
		{label: "Captcha", value: captcha},
	}), nil
}

// docsPage renders an embedded markdown guide page. /docs shows the index.
func docsPage(ctx context.Context, req *router.Request) (templ.Component, error) {
	name := strings.TrimPrefix(strings.TrimPrefix(req.Path, "/docs"), "/")
	if name == "" {
		name = "index"
	}
	if !docName.MatchString(name) {
		return notFoundView(ctx, req)
	}
	src, err := fs.ReadFile(docsFS, "docs/"+name+".md")
	if errors.Is(err, fs.ErrNotExist) {
		return notFoundView(ctx, req)
	}
	if err != nil {
		return nil, err
	}
	return docsView(table.Markdown(string(src))), nil
}
