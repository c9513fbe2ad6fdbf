package mocks

import (
	"context"

	"github.com/NeuralTrust/IPGuard/pkg/app/activity"
	"github.com/NeuralTrust/IPGuard/pkg/app/blocking"
	"github.com/NeuralTrust/IPGuard/pkg/app/engine"
	"github.com/NeuralTrust/IPGuard/pkg/domain/block"
	"github.com/NeuralTrust/IPGuard/pkg/domain/risk"
	"github.com/stretchr/testify/mock"
)

type Engine struct {
	mock.Mock
}

type Engine_Expecter struct {
	mock *mock.Mock
}

func (_m *Engine) EXPECT() *Engine_Expecter {
	return &Engine_Expecter{mock: &_m.Mock}
}

func (_m *Engine) AnalyzeIP(ctx context.Context, ip string, rc risk.Context) (risk.Decision, error) {
	ret := _m.Called(ctx, ip, rc)

	if rf, ok := ret.Get(0).(func(context.Context, string, risk.Context) (risk.Decision, error)); ok {
		return rf(ctx, ip, rc)
	}

	var r0 risk.Decision
	if rf, ok := ret.Get(0).(func(context.Context, string, risk.Context) risk.Decision); ok {
		r0 = rf(ctx, ip, rc)
	} else {
		r0 = ret.Get(0).(risk.Decision)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, string, risk.Context) error); ok {
		r1 = rf(ctx, ip, rc)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

type Engine_AnalyzeIP_Call struct {
	*mock.Call
}

func (_e *Engine_Expecter) AnalyzeIP(ctx interface{}, ip interface{}, rc interface{}) *Engine_AnalyzeIP_Call {
	return &Engine_AnalyzeIP_Call{Call: _e.mock.On("AnalyzeIP", ctx, ip, rc)}
}

func (_c *Engine_AnalyzeIP_Call) Return(_a0 risk.Decision, _a1 error) *Engine_AnalyzeIP_Call {
	_c.Call.Return(_a0, _a1)
	return _c
}

func (_c *Engine_AnalyzeIP_Call) RunAndReturn(run func(context.Context, string, risk.Context) (risk.Decision, error)) *Engine_AnalyzeIP_Call {
	_c.Call.Return(run)
	return _c
}

func (_m *Engine) RecordActivity(ip string, evt activity.Event) {
	_m.Called(ip, evt)
}

type Engine_RecordActivity_Call struct {
	*mock.Call
}

func (_e *Engine_Expecter) RecordActivity(ip interface{}, evt interface{}) *Engine_RecordActivity_Call {
	return &Engine_RecordActivity_Call{Call: _e.mock.On("RecordActivity", ip, evt)}
}

func (_c *Engine_RecordActivity_Call) Return() *Engine_RecordActivity_Call {
	_c.Call.Return()
	return _c
}

func (_m *Engine) IsBlocked(ctx context.Context, ip string) bool {
	ret := _m.Called(ctx, ip)

	var r0 bool
	if rf, ok := ret.Get(0).(func(context.Context, string) bool); ok {
		r0 = rf(ctx, ip)
	} else {
		r0 = ret.Get(0).(bool)
	}

	return r0
}

type Engine_IsBlocked_Call struct {
	*mock.Call
}

func (_e *Engine_Expecter) IsBlocked(ctx interface{}, ip interface{}) *Engine_IsBlocked_Call {
	return &Engine_IsBlocked_Call{Call: _e.mock.On("IsBlocked", ctx, ip)}
}

func (_c *Engine_IsBlocked_Call) Return(_a0 bool) *Engine_IsBlocked_Call {
	_c.Call.Return(_a0)
	return _c
}

func (_c *Engine_IsBlocked_Call) RunAndReturn(run func(context.Context, string) bool) *Engine_IsBlocked_Call {
	_c.Call.Return(run)
	return _c
}

func (_m *Engine) UnblockIP(ctx context.Context, ip string, reason string, actor string) (bool, error) {
	ret := _m.Called(ctx, ip, reason, actor)

	if rf, ok := ret.Get(0).(func(context.Context, string, string, string) (bool, error)); ok {
		return rf(ctx, ip, reason, actor)
	}

	var r0 bool
	if rf, ok := ret.Get(0).(func(context.Context, string, string, string) bool); ok {
		r0 = rf(ctx, ip, reason, actor)
	} else {
		r0 = ret.Get(0).(bool)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, string, string, string) error); ok {
		r1 = rf(ctx, ip, reason, actor)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

type Engine_UnblockIP_Call struct {
	*mock.Call
}

func (_e *Engine_Expecter) UnblockIP(ctx interface{}, ip interface{}, reason interface{}, actor interface{}) *Engine_UnblockIP_Call {
	return &Engine_UnblockIP_Call{Call: _e.mock.On("UnblockIP", ctx, ip, reason, actor)}
}

func (_c *Engine_UnblockIP_Call) Return(_a0 bool, _a1 error) *Engine_UnblockIP_Call {
	_c.Call.Return(_a0, _a1)
	return _c
}

func (_c *Engine_UnblockIP_Call) RunAndReturn(run func(context.Context, string, string, string) (bool, error)) *Engine_UnblockIP_Call {
	_c.Call.Return(run)
	return _c
}

func (_m *Engine) GetStatus(ctx context.Context) engine.Status {
	ret := _m.Called(ctx)

	var r0 engine.Status
	if rf, ok := ret.Get(0).(func(context.Context) engine.Status); ok {
		r0 = rf(ctx)
	} else {
		r0 = ret.Get(0).(engine.Status)
	}

	return r0
}

type Engine_GetStatus_Call struct {
	*mock.Call
}

func (_e *Engine_Expecter) GetStatus(ctx interface{}) *Engine_GetStatus_Call {
	return &Engine_GetStatus_Call{Call: _e.mock.On("GetStatus", ctx)}
}

func (_c *Engine_GetStatus_Call) Return(_a0 engine.Status) *Engine_GetStatus_Call {
	_c.Call.Return(_a0)
	return _c
}

func (_c *Engine_GetStatus_Call) RunAndReturn(run func(context.Context) engine.Status) *Engine_GetStatus_Call {
	_c.Call.Return(run)
	return _c
}

func (_m *Engine) IPStatus(ctx context.Context, ip string) (engine.IPStatus, error) {
	ret := _m.Called(ctx, ip)

	if rf, ok := ret.Get(0).(func(context.Context, string) (engine.IPStatus, error)); ok {
		return rf(ctx, ip)
	}

	var r0 engine.IPStatus
	if rf, ok := ret.Get(0).(func(context.Context, string) engine.IPStatus); ok {
		r0 = rf(ctx, ip)
	} else {
		r0 = ret.Get(0).(engine.IPStatus)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, ip)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

type Engine_IPStatus_Call struct {
	*mock.Call
}

func (_e *Engine_Expecter) IPStatus(ctx interface{}, ip interface{}) *Engine_IPStatus_Call {
	return &Engine_IPStatus_Call{Call: _e.mock.On("IPStatus", ctx, ip)}
}

func (_c *Engine_IPStatus_Call) Return(_a0 engine.IPStatus, _a1 error) *Engine_IPStatus_Call {
	_c.Call.Return(_a0, _a1)
	return _c
}

func (_c *Engine_IPStatus_Call) RunAndReturn(run func(context.Context, string) (engine.IPStatus, error)) *Engine_IPStatus_Call {
	_c.Call.Return(run)
	return _c
}

func (_m *Engine) BlockIP(ctx context.Context, ip string, req engine.ManualBlock) (*block.Record, error) {
	ret := _m.Called(ctx, ip, req)

	if rf, ok := ret.Get(0).(func(context.Context, string, engine.ManualBlock) (*block.Record, error)); ok {
		return rf(ctx, ip, req)
	}

	var r0 *block.Record
	if rf, ok := ret.Get(0).(func(context.Context, string, engine.ManualBlock) *block.Record); ok {
		r0 = rf(ctx, ip, req)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*block.Record)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, string, engine.ManualBlock) error); ok {
		r1 = rf(ctx, ip, req)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

type Engine_BlockIP_Call struct {
	*mock.Call
}

func (_e *Engine_Expecter) BlockIP(ctx interface{}, ip interface{}, req interface{}) *Engine_BlockIP_Call {
	return &Engine_BlockIP_Call{Call: _e.mock.On("BlockIP", ctx, ip, req)}
}

func (_c *Engine_BlockIP_Call) Return(_a0 *block.Record, _a1 error) *Engine_BlockIP_Call {
	_c.Call.Return(_a0, _a1)
	return _c
}

func (_c *Engine_BlockIP_Call) RunAndReturn(run func(context.Context, string, engine.ManualBlock) (*block.Record, error)) *Engine_BlockIP_Call {
	_c.Call.Return(run)
	return _c
}

func (_m *Engine) Whitelist(ctx context.Context, cidr string, note string, actor string) (blocking.WhitelistItem, error) {
	ret := _m.Called(ctx, cidr, note, actor)

	if rf, ok := ret.Get(0).(func(context.Context, string, string, string) (blocking.WhitelistItem, error)); ok {
		return rf(ctx, cidr, note, actor)
	}

	var r0 blocking.WhitelistItem
	if rf, ok := ret.Get(0).(func(context.Context, string, string, string) blocking.WhitelistItem); ok {
		r0 = rf(ctx, cidr, note, actor)
	} else {
		r0 = ret.Get(0).(blocking.WhitelistItem)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, string, string, string) error); ok {
		r1 = rf(ctx, cidr, note, actor)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

type Engine_Whitelist_Call struct {
	*mock.Call
}

func (_e *Engine_Expecter) Whitelist(ctx interface{}, cidr interface{}, note interface{}, actor interface{}) *Engine_Whitelist_Call {
	return &Engine_Whitelist_Call{Call: _e.mock.On("Whitelist", ctx, cidr, note, actor)}
}

func (_c *Engine_Whitelist_Call) Return(_a0 blocking.WhitelistItem, _a1 error) *Engine_Whitelist_Call {
	_c.Call.Return(_a0, _a1)
	return _c
}

func (_c *Engine_Whitelist_Call) RunAndReturn(run func(context.Context, string, string, string) (blocking.WhitelistItem, error)) *Engine_Whitelist_Call {
	_c.Call.Return(run)
	return _c
}

func (_m *Engine) RemoveWhitelist(ctx context.Context, cidr string, actor string) error {
	ret := _m.Called(ctx, cidr, actor)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, string, string) error); ok {
		r0 = rf(ctx, cidr, actor)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

type Engine_RemoveWhitelist_Call struct {
	*mock.Call
}

func (_e *Engine_Expecter) RemoveWhitelist(ctx interface{}, cidr interface{}, actor interface{}) *Engine_RemoveWhitelist_Call {
	return &Engine_RemoveWhitelist_Call{Call: _e.mock.On("RemoveWhitelist", ctx, cidr, actor)}
}

func (_c *Engine_RemoveWhitelist_Call) Return(_a0 error) *Engine_RemoveWhitelist_Call {
	_c.Call.Return(_a0)
	return _c
}

func (_c *Engine_RemoveWhitelist_Call) RunAndReturn(run func(context.Context, string, string) error) *Engine_RemoveWhitelist_Call {
	_c.Call.Return(run)
	return _c
}

func (_m *Engine) ListWhitelist() []blocking.WhitelistItem {
	ret := _m.Called()

	var r0 []blocking.WhitelistItem
	if rf, ok := ret.Get(0).(func() []blocking.WhitelistItem); ok {
		r0 = rf()
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).([]blocking.WhitelistItem)
	}

	return r0
}

type Engine_ListWhitelist_Call struct {
	*mock.Call
}

func (_e *Engine_Expecter) ListWhitelist() *Engine_ListWhitelist_Call {
	return &Engine_ListWhitelist_Call{Call: _e.mock.On("ListWhitelist")}
}

func (_c *Engine_ListWhitelist_Call) Return(_a0 []blocking.WhitelistItem) *Engine_ListWhitelist_Call {
	_c.Call.Return(_a0)
	return _c
}

func (_c *Engine_ListWhitelist_Call) RunAndReturn(run func() []blocking.WhitelistItem) *Engine_ListWhitelist_Call {
	_c.Call.Return(run)
	return _c
}

func (_m *Engine) ListBlocks(ctx context.Context) []*block.Record {
	ret := _m.Called(ctx)

	var r0 []*block.Record
	if rf, ok := ret.Get(0).(func(context.Context) []*block.Record); ok {
		r0 = rf(ctx)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*block.Record)
	}

	return r0
}

type Engine_ListBlocks_Call struct {
	*mock.Call
}

func (_e *Engine_Expecter) ListBlocks(ctx interface{}) *Engine_ListBlocks_Call {
	return &Engine_ListBlocks_Call{Call: _e.mock.On("ListBlocks", ctx)}
}

func (_c *Engine_ListBlocks_Call) Return(_a0 []*block.Record) *Engine_ListBlocks_Call {
	_c.Call.Return(_a0)
	return _c
}

func (_c *Engine_ListBlocks_Call) RunAndReturn(run func(context.Context) []*block.Record) *Engine_ListBlocks_Call {
	_c.Call.Return(run)
	return _c
}

func (_m *Engine) History(ctx context.Context, limit int) ([]*block.HistoryEntry, error) {
	ret := _m.Called(ctx, limit)

	if rf, ok := ret.Get(0).(func(context.Context, int) ([]*block.HistoryEntry, error)); ok {
		return rf(ctx, limit)
	}

	var r0 []*block.HistoryEntry
	if rf, ok := ret.Get(0).(func(context.Context, int) []*block.HistoryEntry); ok {
		r0 = rf(ctx, limit)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*block.HistoryEntry)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, int) error); ok {
		r1 = rf(ctx, limit)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

type Engine_History_Call struct {
	*mock.Call
}

func (_e *Engine_Expecter) History(ctx interface{}, limit interface{}) *Engine_History_Call {
	return &Engine_History_Call{Call: _e.mock.On("History", ctx, limit)}
}

func (_c *Engine_History_Call) Return(_a0 []*block.HistoryEntry, _a1 error) *Engine_History_Call {
	_c.Call.Return(_a0, _a1)
	return _c
}

func (_c *Engine_History_Call) RunAndReturn(run func(context.Context, int) ([]*block.HistoryEntry, error)) *Engine_History_Call {
	_c.Call.Return(run)
	return _c
}

func (_m *Engine) RunMaintenance(ctx context.Context, job string) error {
	ret := _m.Called(ctx, job)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, string) error); ok {
		r0 = rf(ctx, job)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

type Engine_RunMaintenance_Call struct {
	*mock.Call
}

func (_e *Engine_Expecter) RunMaintenance(ctx interface{}, job interface{}) *Engine_RunMaintenance_Call {
	return &Engine_RunMaintenance_Call{Call: _e.mock.On("RunMaintenance", ctx, job)}
}

func (_c *Engine_RunMaintenance_Call) Return(_a0 error) *Engine_RunMaintenance_Call {
	_c.Call.Return(_a0)
	return _c
}

func (_c *Engine_RunMaintenance_Call) RunAndReturn(run func(context.Context, string) error) *Engine_RunMaintenance_Call {
	_c.Call.Return(run)
	return _c
}

func (_m *Engine) Settings() risk.Settings {
	ret := _m.Called()

	var r0 risk.Settings
	if rf, ok := ret.Get(0).(func() risk.Settings); ok {
		r0 = rf()
	} else {
		r0 = ret.Get(0).(risk.Settings)
	}

	return r0
}

type Engine_Settings_Call struct {
	*mock.Call
}

func (_e *Engine_Expecter) Settings() *Engine_Settings_Call {
	return &Engine_Settings_Call{Call: _e.mock.On("Settings")}
}

func (_c *Engine_Settings_Call) Return(_a0 risk.Settings) *Engine_Settings_Call {
	_c.Call.Return(_a0)
	return _c
}

func (_c *Engine_Settings_Call) RunAndReturn(run func() risk.Settings) *Engine_Settings_Call {
	_c.Call.Return(run)
	return _c
}

func (_m *Engine) UpdateSettings(ctx context.Context, next risk.Settings) error {
	ret := _m.Called(ctx, next)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, risk.Settings) error); ok {
		r0 = rf(ctx, next)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

type Engine_UpdateSettings_Call struct {
	*mock.Call
}

func (_e *Engine_Expecter) UpdateSettings(ctx interface{}, next interface{}) *Engine_UpdateSettings_Call {
	return &Engine_UpdateSettings_Call{Call: _e.mock.On("UpdateSettings", ctx, next)}
}

func (_c *Engine_UpdateSettings_Call) Return(_a0 error) *Engine_UpdateSettings_Call {
	_c.Call.Return(_a0)
	return _c
}

func (_c *Engine_UpdateSettings_Call) RunAndReturn(run func(context.Context, risk.Settings) error) *Engine_UpdateSettings_Call {
	_c.Call.Return(run)
	return _c
}

func (_m *Engine) Start(ctx context.Context, workers int) {
	_m.Called(ctx, workers)
}

type Engine_Start_Call struct {
	*mock.Call
}

func (_e *Engine_Expecter) Start(ctx interface{}, workers interface{}) *Engine_Start_Call {
	return &Engine_Start_Call{Call: _e.mock.On("Start", ctx, workers)}
}

func (_c *Engine_Start_Call) Return() *Engine_Start_Call {
	_c.Call.Return()
	return _c
}

func (_m *Engine) Close() {
	_m.Called()
}

type Engine_Close_Call struct {
	*mock.Call
}

func (_e *Engine_Expecter) Close() *Engine_Close_Call {
	return &Engine_Close_Call{Call: _e.mock.On("Close")}
}

func (_c *Engine_Close_Call) Return() *Engine_Close_Call {
	_c.Call.Return()
	return _c
}

func NewEngine(t interface {
	mock.TestingT
	Cleanup(func())
}) *Engine {
	m := &Engine{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
