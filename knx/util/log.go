// Licensed under the MIT license which can be found in the LICENSE file.

package util

import (
	"fmt"
	"log/slog"
)

// Logger is the destination for diagnostic output of the entire stack. It
// defaults to the process-wide slog logger; consumers may replace it before
// opening any connections.
var Logger = slog.Default()

// Log emits a debug-level message attributed to the given originator.
// Decode failures and dropped frames are reported through here; none of
// them are fatal.
func Log(origin interface{}, format string, args ...interface{}) {
	Logger.Debug(fmt.Sprintf(format, args...), "origin", fmt.Sprintf("%T", origin))
}

// Warn emits a warning-level message attributed to the given originator.
func Warn(origin interface{}, format string, args ...interface{}) {
	Logger.Warn(fmt.Sprintf(format, args...), "origin", fmt.Sprintf("%T", origin))
}
