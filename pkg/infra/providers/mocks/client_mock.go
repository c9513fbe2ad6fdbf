package mocks

import (
	"context"

	"github.com/NeuralTrust/IPGuard/pkg/infra/providers"
	"github.com/stretchr/testify/mock"
)

type Client struct {
	mock.Mock
}

type Client_Expecter struct {
	mock *mock.Mock
}

func (_m *Client) EXPECT() *Client_Expecter {
	return &Client_Expecter{mock: &_m.Mock}
}

func (_m *Client) Ask(ctx context.Context, config *providers.Config, prompt string) (*providers.CompletionResponse, error) {
	ret := _m.Called(ctx, config, prompt)

	var r0 *providers.CompletionResponse
	if rf, ok := ret.Get(0).(func(context.Context, *providers.Config, string) *providers.CompletionResponse); ok {
		r0 = rf(ctx, config, prompt)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*providers.CompletionResponse)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, *providers.Config, string) error); ok {
		r1 = rf(ctx, config, prompt)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

type Client_Ask_Call struct {
	*mock.Call
}

func (_e *Client_Expecter) Ask(ctx interface{}, config interface{}, prompt interface{}) *Client_Ask_Call {
	return &Client_Ask_Call{Call: _e.mock.On("Ask", ctx, config, prompt)}
}

func (_c *Client_Ask_Call) Return(_a0 *providers.CompletionResponse, _a1 error) *Client_Ask_Call {
	_c.Call.Return(_a0, _a1)
	return _c
}

func NewClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *Client {
	m := &Client{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
