package mocks

import (
	"context"

	"github.com/NeuralTrust/IPGuard/pkg/domain/report"
	"github.com/stretchr/testify/mock"
)

type ReportSink struct {
	mock.Mock
}

type ReportSink_Expecter struct {
	mock *mock.Mock
}

func (_m *ReportSink) EXPECT() *ReportSink_Expecter {
	return &ReportSink_Expecter{mock: &_m.Mock}
}

func (_m *ReportSink) Write(ctx context.Context, summary report.Summary) error {
	ret := _m.Called(ctx, summary)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, report.Summary) error); ok {
		r0 = rf(ctx, summary)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

type ReportSink_Write_Call struct {
	*mock.Call
}

func (_e *ReportSink_Expecter) Write(ctx interface{}, summary interface{}) *ReportSink_Write_Call {
	return &ReportSink_Write_Call{Call: _e.mock.On("Write", ctx, summary)}
}

func (_c *ReportSink_Write_Call) Return(_a0 error) *ReportSink_Write_Call {
	_c.Call.Return(_a0)
	return _c
}

func (_c *ReportSink_Write_Call) RunAndReturn(run func(context.Context, report.Summary) error) *ReportSink_Write_Call {
	_c.Call.Return(run)
	return _c
}

func NewReportSink(t interface {
	mock.TestingT
	Cleanup(func())
}) *ReportSink {
	m := &ReportSink{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
