package mocks

import (
	"context"

	"github.com/NeuralTrust/IPGuard/pkg/domain/signals"
	"github.com/stretchr/testify/mock"
)

type GeoProvider struct {
	mock.Mock
}

type GeoProvider_Expecter struct {
	mock *mock.Mock
}

func (_m *GeoProvider) EXPECT() *GeoProvider_Expecter {
	return &GeoProvider_Expecter{mock: &_m.Mock}
}

func (_m *GeoProvider) Lookup(ctx context.Context, ip string) (*signals.Location, error) {
	ret := _m.Called(ctx, ip)

	if rf, ok := ret.Get(0).(func(context.Context, string) (*signals.Location, error)); ok {
		return rf(ctx, ip)
	}

	var r0 *signals.Location
	if rf, ok := ret.Get(0).(func(context.Context, string) *signals.Location); ok {
		r0 = rf(ctx, ip)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*signals.Location)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, ip)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

type GeoProvider_Lookup_Call struct {
	*mock.Call
}

func (_e *GeoProvider_Expecter) Lookup(ctx interface{}, ip interface{}) *GeoProvider_Lookup_Call {
	return &GeoProvider_Lookup_Call{Call: _e.mock.On("Lookup", ctx, ip)}
}

func (_c *GeoProvider_Lookup_Call) Return(_a0 *signals.Location, _a1 error) *GeoProvider_Lookup_Call {
	_c.Call.Return(_a0, _a1)
	return _c
}

func (_c *GeoProvider_Lookup_Call) RunAndReturn(run func(context.Context, string) (*signals.Location, error)) *GeoProvider_Lookup_Call {
	_c.Call.Return(run)
	return _c
}

func NewGeoProvider(t interface {
	mock.TestingT
	Cleanup(func())
}) *GeoProvider {
	m := &GeoProvider{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
