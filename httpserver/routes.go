// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package httpserver

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes groups the handlers served together.  Nil handlers are skipped.
type Routes struct {
	// API is mounted under /devices.
	API http.Handler

	// Pages is mounted at the root.
	Pages http.Handler

	// Gatherer is exposed at MetricsPath, /metrics by default.
	Gatherer    prometheus.Gatherer
	MetricsPath string
}

// Mux combines the routes into one handler.
func (r Routes) Mux() http.Handler {
	mux := http.NewServeMux()

	if r.API != nil {
		mux.Handle("/devices", r.API)
		mux.Handle("/devices/", r.API)
	}
	if r.Pages != nil {
		mux.Handle("/", r.Pages)
	}
	if r.Gatherer != nil {
		path := "/metrics"
		if r.MetricsPath != "" {
			path = r.MetricsPath
		}
		mux.Handle(path, promhttp.HandlerFor(r.Gatherer, promhttp.HandlerOpts{}))
	}

	return mux
}
