package orgmachine

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/davecgh/go-spew/spew"
	"github.com/mborders/logmatic"
)

// LogCLI logs to the terminal. Level options are: 0 fatal error (stack dump),
// 1 serious error (stack dump), 2 warning, 3 debug, 4 info, 5 trace (stack dump).
func LogCLI(message interface{}, level int) {
	l := logmatic.NewLogger()
	l.SetLevel(logmatic.TRACE)
	l.ExitOnFatal = false
	msg := fmt.Sprint(message)
	switch level {
	case 5:
		debug.PrintStack()
		l.Trace("%v", msg)
	case 4:
		l.Info("%v", msg)
	case 3:
		l.Debug("%v", msg)
	case 2:
		l.Warn("%v", msg)
	case 1:
		debug.PrintStack()
		l.Error("%v", msg)
	case 0:
		debug.PrintStack()
		l.Error("%v", msg)
		if conf == nil || !conf.GetBool("keepAliveOnFatal") {
			os.Exit(1)
		}
	}
}

// DumpState pretty-prints a value when the logScopes flag is set. Useful for
// watching scope replacements and overlay ops go by during development.
func DumpState(label string, v interface{}) {
	if conf != nil && conf.GetBool("logScopes") {
		fmt.Printf("--- %s ---\n", label)
		spew.Dump(v)
	}
}
