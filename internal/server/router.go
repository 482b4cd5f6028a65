package server

import (
	"context"
	"net/http"

	"saponaria/internal/handlers"
	applog "saponaria/internal/log"
)

type route struct {
	pattern   string
	handler   http.HandlerFunc
	protected bool
}

func routes() []route {
	return []route{
		{pattern: "/healthz", handler: handlers.Health},
		{pattern: "/login", handler: handlers.Login},
		{pattern: "/signup", handler: handlers.Signup},
		{pattern: "/logout", handler: handlers.Logout},
		{pattern: "/api/reconcile", handler: handlers.Reconcile},
		{pattern: "/app", handler: handlers.Dashboard, protected: true},
		{pattern: "/app/", handler: handlers.Dashboard, protected: true},
		{pattern: "/app/preferences/update", handler: handlers.UpdatePreferences, protected: true},
		{pattern: "/app/api/workspace", handler: handlers.WorkspaceResource, protected: true},
		{pattern: "/app/api/workspace/", handler: handlers.WorkspaceResource, protected: true},
		{pattern: "/app/api/ingredients", handler: handlers.IngredientResource, protected: true},
		{pattern: "/app/api/ingredients/", handler: handlers.IngredientResource, protected: true},
		{pattern: "/app/api/recipes", handler: handlers.RecipeResource, protected: true},
		{pattern: "/app/api/recipes/", handler: handlers.RecipeResource, protected: true},
		{pattern: "/app/tools/import", handler: handlers.ToolsImportRecipe, protected: true},
		{pattern: "/", handler: handlers.Home},
	}
}

func newRouter() http.Handler {
	ctx := context.Background()
	mux := http.NewServeMux()
	for _, rt := range routes() {
		var h http.Handler = rt.handler
		if rt.protected {
			h = handlers.RequireAuthentication(h)
		}
		mux.Handle(rt.pattern, h)
		applog.Debug(ctx, "route registered", "path", rt.pattern, "protected", rt.protected)
	}
	mux.Handle("/assets/", http.StripPrefix("/assets/", http.FileServer(http.Dir("web/static"))))
	applog.Debug(ctx, "route registered", "path", "/assets/", "static", true)
	return withRequestID(mux)
}
