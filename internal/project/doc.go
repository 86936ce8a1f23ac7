// Package project loads kiln project configuration and classifies source
// files against it.
//
// # Configuration
//
// ReadConfig reads kiln.yaml, kiln.yml or kiln.toml from the project root,
// fills in defaults, validates the result and discovers entry files and
// routes from the app directory:
//
//	appDirectory: app
//	assetsBuildDirectory: public/build
//	publicPath: /build/
//	serverBuildPath: build/index.js
//	buildCommand: npx esbuild app/entry.client.tsx --bundle --outdir=public/build
//	watchPaths:
//	  - ../shared
//	ignoredRouteFiles:
//	  - "*.css"
//
// Every call returns a fresh, immutable *Config. Loader wraps ReadConfig so
// that concurrent reloads of the same root share one read, as long as that
// read starts after every caller sharing it arrived.
//
// # Entry points
//
// IsEntryPoint reports whether a path is the client entry, the server entry
// or a route module of a given snapshot. Editing an entry point requires the
// compiler to be recreated rather than incrementally rebuilt.
package project
