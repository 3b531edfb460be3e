// Package toast sends transient notifications to the browser.
//
// Toasts are dispatched as a custom "vango:toast" event through an Emitter.
// For page requests the console collects them in a Queue and hands them to
// htmx in the HX-Trigger response header; toasts raised outside a request
// travel over the live websocket instead. The browser side is a small
// listener:
//
//	document.body.addEventListener("vango:toast", (e) => {
//	    for (const t of e.detail) showToast(t.level, t.title, t.message);
//	});
//
// Handlers and guards reach the request's emitter through the context:
//
//	if err := users.Delete(ctx, id); err != nil {
//	    toast.Error(toast.From(ctx), "Failed to delete user")
//	    return err
//	}
//	toast.Success(toast.From(ctx), "User deleted")
package toast
