// Package testing provides helpers for using callmock sessions in Go tests.
//
// # Basic Usage
//
// Create a mock, register expected calls, run the code under test through
// stubs that call Call, then verify:
//
//	func TestCopy(t *testing.T) {
//	    m := cmtesting.New(t)
//
//	    m.Expect("open", "a.txt").SetReturn(3)
//	    m.Expect("read", 3, call.Any()).SetReturn(10)
//	    m.Expect("close", 3)
//
//	    fs := &fakeFS{mock: m} // stubs call m.Call("open", name) etc.
//	    if err := Copy(fs, "a.txt"); err != nil {
//	        t.Fatal(err)
//	    }
//
//	    m.AssertExpectations(t)
//	}
//
// # Wildcards
//
// Calls that may happen any number of times are registered once and never
// consumed:
//
//	m.Expect("log", call.Any()).IgnoreAllCalls()
//
// # Assertions
//
// The assertion helpers work on any session:
//
//	cmtesting.AssertExpectations(t, s)
//	cmtesting.AssertExpectedCalls(t, s, `[close(3)]`)
//	cmtesting.AssertActualCalls(t, s, `[open("b.txt")]`)
//
// Logs of the session go to t.Log, and the session is closed when the test
// completes.
package testing
