package middleware

import (
	"context"

	"github.com/vango-dev/vango-admin/pkg/apiclient"
	"github.com/vango-dev/vango-admin/pkg/router"
)

// NavigationObservers fans navigation events out to several observers.
// Nil entries are skipped. Contexts are threaded through in order, so a
// tracing observer listed first makes its span visible to the rest.
func NavigationObservers(obs ...router.Observer) router.Observer {
	var list navList
	for _, o := range obs {
		if o != nil {
			list = append(list, o)
		}
	}
	return list
}

type navList []router.Observer

func (l navList) NavigationStarted(ctx context.Context, target string) context.Context {
	for _, o := range l {
		ctx = o.NavigationStarted(ctx, target)
	}
	return ctx
}

func (l navList) NavigationFinished(ctx context.Context, res *router.Result, err error) {
	for i := len(l) - 1; i >= 0; i-- {
		l[i].NavigationFinished(ctx, res, err)
	}
}

// APIObservers fans backend call events out to several observers.
func APIObservers(obs ...apiclient.Observer) apiclient.Observer {
	var list apiList
	for _, o := range obs {
		if o != nil {
			list = append(list, o)
		}
	}
	return list
}

type apiList []apiclient.Observer

func (l apiList) CallStarted(ctx context.Context, method, path string) context.Context {
	for _, o := range l {
		ctx = o.CallStarted(ctx, method, path)
	}
	return ctx
}

func (l apiList) CallFinished(ctx context.Context, method, path string, status, attempts int, err error) {
	for i := len(l) - 1; i >= 0; i-- {
		l[i].CallFinished(ctx, method, path, status, attempts, err)
	}
}
