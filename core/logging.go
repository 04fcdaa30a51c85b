package core

// Logger is any leveled logging service. Implementations may inspect args for
// well-known types (eg. errors or a logged-in principal) and report them to an
// external error tracker.
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
