// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

// Package api exposes the controller over HTTP as JSON.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/schmidtw/ad840x/ad840x"
	"github.com/schmidtw/ad840x/controller"
	"go.uber.org/zap"
)

var errBadChannel = errors.New("channel must be 0-3 or A-D")

// Controller is the part of *controller.Controller the API needs.
type Controller interface {
	Names() []string
	Status(name string) (controller.Status, error)
	Apply(ctx context.Context, name string, ch int, sp controller.Setpoint) (controller.ChannelStatus, error)
	Reset(ctx context.Context, name string) error
	Shutdown(name string, enter bool) (controller.Status, error)
}

// ShutdownRequest is the body of PUT /devices/{name}/shutdown.
type ShutdownRequest struct {
	Enter bool `json:"enter"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type handler struct {
	ctl Controller
	log *zap.Logger
}

// Handler returns the routes:
//
//	GET  /devices
//	GET  /devices/{name}
//	PUT  /devices/{name}/channels/{ch}
//	POST /devices/{name}/reset
//	PUT  /devices/{name}/shutdown
func Handler(ctl Controller, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	h := handler{
		ctl: ctl,
		log: log,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /devices", h.list)
	mux.HandleFunc("GET /devices/{name}", h.status)
	mux.HandleFunc("PUT /devices/{name}/channels/{ch}", h.apply)
	mux.HandleFunc("POST /devices/{name}/reset", h.reset)
	mux.HandleFunc("PUT /devices/{name}/shutdown", h.shutdown)

	return mux
}

func (h *handler) list(w http.ResponseWriter, r *http.Request) {
	names := h.ctl.Names()
	list := make([]controller.Status, 0, len(names))
	for _, name := range names {
		s, err := h.ctl.Status(name)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		list = append(list, s)
	}
	h.reply(w, http.StatusOK, list)
}

func (h *handler) status(w http.ResponseWriter, r *http.Request) {
	s, err := h.ctl.Status(r.PathValue("name"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.reply(w, http.StatusOK, s)
}

func (h *handler) apply(w http.ResponseWriter, r *http.Request) {
	ch, err := parseChannel(r.PathValue("ch"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var sp controller.Setpoint
	if err := json.NewDecoder(r.Body).Decode(&sp); err != nil {
		h.fail(w, r, fmt.Errorf("%w: %v", controller.ErrInvalidSetpoint, err))
		return
	}

	cs, err := h.ctl.Apply(r.Context(), r.PathValue("name"), ch, sp)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.reply(w, http.StatusOK, cs)
}

func (h *handler) reset(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := h.ctl.Reset(r.Context(), name); err != nil {
		h.fail(w, r, err)
		return
	}
	h.status(w, r)
}

func (h *handler) shutdown(w http.ResponseWriter, r *http.Request) {
	var req ShutdownRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.reply(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	s, err := h.ctl.Shutdown(r.PathValue("name"), req.Enter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.reply(w, http.StatusOK, s)
}

// parseChannel accepts either the index or the letter of a channel.
func parseChannel(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n > int(ad840x.ChannelD) {
			return 0, fmt.Errorf("%w: %w", controller.ErrInvalidChannel, errBadChannel)
		}
		return n, nil
	}

	if len(s) == 1 {
		c := strings.ToUpper(s)[0]
		if 'A' <= c && c <= 'D' {
			return int(c - 'A'), nil
		}
	}
	return 0, fmt.Errorf("%w: %w", controller.ErrInvalidChannel, errBadChannel)
}

func statusCode(err error) int {
	switch {
	case errors.Is(err, controller.ErrUnknownDevice):
		return http.StatusNotFound
	case errors.Is(err, controller.ErrInvalidChannel),
		errors.Is(err, controller.ErrInvalidSetpoint):
		return http.StatusBadRequest
	case errors.Is(err, ad840x.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusCode(err)
	if code >= http.StatusInternalServerError {
		h.log.Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	h.reply(w, code, errorResponse{Error: err.Error()})
}

func (h *handler) reply(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Warn("Unable to write response", zap.Error(err))
	}
}
