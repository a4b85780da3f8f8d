// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package views

import (
	_ "embed"
	"html/template"
	"net/http"

	"github.com/schmidtw/ad840x/controller"
	"go.uber.org/zap"
)

// Statuser lists the devices and their state.
type Statuser interface {
	Names() []string
	Status(name string) (controller.Status, error)
}

//go:embed index.gohtml
var index string

var page = template.Must(template.New("index").Parse(index))

// Handler serves a read only page showing every potentiometer.
func Handler(s Statuser, log *zap.Logger) (http.Handler, error) {
	if log == nil {
		log = zap.NewNop()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		names := s.Names()
		list := make([]controller.Status, 0, len(names))
		for _, name := range names {
			st, err := s.Status(name)
			if err != nil {
				log.Warn("Status unavailable", zap.String("device", name), zap.Error(err))
				continue
			}
			list = append(list, st)
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if err := page.Execute(w, list); err != nil {
			log.Warn("Unable to render page", zap.Error(err))
		}
	})

	return mux, nil
}
