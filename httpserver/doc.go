// Package httpserver runs conduit chains and routers on net/http.
//
// The Adapter converts each incoming request into a BaseContext, executes
// the chain, and writes the resulting response value back to the
// ResponseWriter. Pass-through results can be delegated to any plain
// http.Handler, which lets a chain front an existing mux:
//
//	router := conduit.NewRouter()
//	router.Get("/users/{id}", userHandler)
//
//	adapter := httpserver.NewAdapter(router,
//		httpserver.WithFallback(legacyMux),
//	)
//
// The Server wraps http.Server with graceful shutdown, functional options,
// and environment-based configuration:
//
//	var cfg httpserver.Config
//	if err := config.Load(&cfg); err != nil {
//		log.Fatal(err)
//	}
//
//	srv, err := httpserver.NewFromConfig(cfg, httpserver.WithLogger(logger))
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := srv.Start(ctx, adapter); err != nil {
//		log.Fatal(err)
//	}
//
// For the common case there is a one-liner:
//
//	err := httpserver.Run(ctx, ":8080", router)
//
// Background work registered through Context.WaitUntil is tracked by the
// adapter; call Adapter.Wait during shutdown to let it drain.
package httpserver
