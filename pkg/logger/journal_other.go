//go:build !linux

package logger

func isStderrConnectedToJournal() bool {
	return false
}
