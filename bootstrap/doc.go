// Package bootstrap runs a fluxkit program with a uniform lifecycle.
//
// NewApp applies config defaults, validates the config and initializes the
// global logger. Components registered on the App are started before the
// work and stopped after it, in reverse order:
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.RegisterComponent(srv)
//	err = app.Run(ctx)          // long-running: blocks until SIGINT/SIGTERM
//	err = app.RunTask(ctx, fn)  // finite: runs fn, then shuts down
package bootstrap
