package mocks

import (
	"context"

	"github.com/NeuralTrust/IPGuard/pkg/domain/signals"
	"github.com/stretchr/testify/mock"
)

type ReputationProvider struct {
	mock.Mock
}

type ReputationProvider_Expecter struct {
	mock *mock.Mock
}

func (_m *ReputationProvider) EXPECT() *ReputationProvider_Expecter {
	return &ReputationProvider_Expecter{mock: &_m.Mock}
}

func (_m *ReputationProvider) Lookup(ctx context.Context, ip string) (*signals.Reputation, error) {
	ret := _m.Called(ctx, ip)

	if rf, ok := ret.Get(0).(func(context.Context, string) (*signals.Reputation, error)); ok {
		return rf(ctx, ip)
	}

	var r0 *signals.Reputation
	if rf, ok := ret.Get(0).(func(context.Context, string) *signals.Reputation); ok {
		r0 = rf(ctx, ip)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*signals.Reputation)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, ip)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

type ReputationProvider_Lookup_Call struct {
	*mock.Call
}

func (_e *ReputationProvider_Expecter) Lookup(ctx interface{}, ip interface{}) *ReputationProvider_Lookup_Call {
	return &ReputationProvider_Lookup_Call{Call: _e.mock.On("Lookup", ctx, ip)}
}

func (_c *ReputationProvider_Lookup_Call) Return(_a0 *signals.Reputation, _a1 error) *ReputationProvider_Lookup_Call {
	_c.Call.Return(_a0, _a1)
	return _c
}

func (_c *ReputationProvider_Lookup_Call) RunAndReturn(run func(context.Context, string) (*signals.Reputation, error)) *ReputationProvider_Lookup_Call {
	_c.Call.Return(run)
	return _c
}

func NewReputationProvider(t interface {
	mock.TestingT
	Cleanup(func())
}) *ReputationProvider {
	m := &ReputationProvider{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
