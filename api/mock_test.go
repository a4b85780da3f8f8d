// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"

	"github.com/schmidtw/ad840x/controller"
	"github.com/stretchr/testify/mock"
)

type mockController struct {
	mock.Mock
}

func (m *mockController) Names() []string {
	a := m.Called()
	n, _ := a.Get(0).([]string)
	return n
}

func (m *mockController) Status(name string) (controller.Status, error) {
	a := m.Called(name)
	s, _ := a.Get(0).(controller.Status)
	return s, a.Error(1)
}

func (m *mockController) Apply(ctx context.Context, name string, ch int, sp controller.Setpoint) (controller.ChannelStatus, error) {
	a := m.Called(name, ch, sp)
	cs, _ := a.Get(0).(controller.ChannelStatus)
	return cs, a.Error(1)
}

func (m *mockController) Reset(ctx context.Context, name string) error {
	a := m.Called(name)
	return a.Error(0)
}

func (m *mockController) Shutdown(name string, enter bool) (controller.Status, error) {
	a := m.Called(name, enter)
	s, _ := a.Get(0).(controller.Status)
	return s, a.Error(1)
}
