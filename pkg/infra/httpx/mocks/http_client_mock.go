package mocks

import (
	"context"

	"github.com/NeuralTrust/IPGuard/pkg/infra/httpx"
	"github.com/stretchr/testify/mock"
)

type Client struct {
	mock.Mock
}

func (m *Client) Do(ctx context.Context, req *httpx.Request) (*httpx.Response, error) {
	args := m.Called(ctx, req)
	var resp *httpx.Response
	if rf, ok := args.Get(0).(func(context.Context, *httpx.Request) *httpx.Response); ok {
		resp = rf(ctx, req)
	} else if args.Get(0) != nil {
		resp = args.Get(0).(*httpx.Response)
	}
	return resp, args.Error(1)
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
