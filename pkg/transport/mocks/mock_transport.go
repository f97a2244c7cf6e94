// Package mocks provides testify mocks with typed EXPECT() helpers for the
// transport interfaces.
package mocks

import (
	mock "github.com/stretchr/testify/mock"
)

// NewMockTransport creates a new instance of MockTransport. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockTransport(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockTransport {
	mock := &MockTransport{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}

// MockTransport is an autogenerated mock type for the Transport type
type MockTransport struct {
	mock.Mock
}

type MockTransport_Expecter struct {
	mock *mock.Mock
}

func (_m *MockTransport) EXPECT() *MockTransport_Expecter {
	return &MockTransport_Expecter{mock: &_m.Mock}
}

// Send provides a mock function for the type MockTransport
func (_mock *MockTransport) Send(data []byte) error {
	ret := _mock.Called(data)

	if len(ret) == 0 {
		panic("no return value specified for Send")
	}

	var r0 error
	if returnFunc, ok := ret.Get(0).(func([]byte) error); ok {
		r0 = returnFunc(data)
	} else {
		r0 = ret.Error(0)
	}
	return r0
}

// MockTransport_Send_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'Send'
type MockTransport_Send_Call struct {
	*mock.Call
}

// Send is a helper method to define mock.On call
//   - data []byte
func (_e *MockTransport_Expecter) Send(data interface{}) *MockTransport_Send_Call {
	return &MockTransport_Send_Call{Call: _e.mock.On("Send", data)}
}

func (_c *MockTransport_Send_Call) Run(run func(data []byte)) *MockTransport_Send_Call {
	_c.Call.Run(func(args mock.Arguments) {
		var arg0 []byte
		if args[0] != nil {
			arg0 = args[0].([]byte)
		}
		run(
			arg0,
		)
	})
	return _c
}

func (_c *MockTransport_Send_Call) Return(err error) *MockTransport_Send_Call {
	_c.Call.Return(err)
	return _c
}

func (_c *MockTransport_Send_Call) RunAndReturn(run func(data []byte) error) *MockTransport_Send_Call {
	_c.Call.Return(run)
	return _c
}
