package mocks

import (
	"context"

	"github.com/NeuralTrust/IPGuard/pkg/app/scoring"
	"github.com/NeuralTrust/IPGuard/pkg/domain/signals"
	"github.com/stretchr/testify/mock"
)

type Scorer struct {
	mock.Mock
}

type Scorer_Expecter struct {
	mock *mock.Mock
}

func (_m *Scorer) EXPECT() *Scorer_Expecter {
	return &Scorer_Expecter{mock: &_m.Mock}
}

func (_m *Scorer) Name() string {
	ret := _m.Called()

	var r0 string
	if rf, ok := ret.Get(0).(func() string); ok {
		r0 = rf()
	} else {
		r0 = ret.Get(0).(string)
	}

	return r0
}

type Scorer_Name_Call struct {
	*mock.Call
}

func (_e *Scorer_Expecter) Name() *Scorer_Name_Call {
	return &Scorer_Name_Call{Call: _e.mock.On("Name")}
}

func (_c *Scorer_Name_Call) Return(_a0 string) *Scorer_Name_Call {
	_c.Call.Return(_a0)
	return _c
}

func (_m *Scorer) Score(ctx context.Context, s *signals.ThreatSignals) (scoring.Assessment, error) {
	ret := _m.Called(ctx, s)

	if rf, ok := ret.Get(0).(func(context.Context, *signals.ThreatSignals) (scoring.Assessment, error)); ok {
		return rf(ctx, s)
	}

	var r0 scoring.Assessment
	if rf, ok := ret.Get(0).(func(context.Context, *signals.ThreatSignals) scoring.Assessment); ok {
		r0 = rf(ctx, s)
	} else {
		r0 = ret.Get(0).(scoring.Assessment)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, *signals.ThreatSignals) error); ok {
		r1 = rf(ctx, s)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

type Scorer_Score_Call struct {
	*mock.Call
}

func (_e *Scorer_Expecter) Score(ctx interface{}, s interface{}) *Scorer_Score_Call {
	return &Scorer_Score_Call{Call: _e.mock.On("Score", ctx, s)}
}

func (_c *Scorer_Score_Call) Return(_a0 scoring.Assessment, _a1 error) *Scorer_Score_Call {
	_c.Call.Return(_a0, _a1)
	return _c
}

func (_c *Scorer_Score_Call) RunAndReturn(run func(context.Context, *signals.ThreatSignals) (scoring.Assessment, error)) *Scorer_Score_Call {
	_c.Call.Return(run)
	return _c
}

func NewScorer(t interface {
	mock.TestingT
	Cleanup(func())
}) *Scorer {
	m := &Scorer{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
