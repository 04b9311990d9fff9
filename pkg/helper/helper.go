package helper

import (
	"runtime"
	"strings"
)

// GetFuncName returns the name of the calling function without its package
// path, e.g. "(*DataService).Create".
func GetFuncName() string {
	pc, _, _, ok := runtime.Caller(1)
	if !ok {
		return "unknown"
	}
	return TrimFuncName(runtime.FuncForPC(pc).Name())
}

// TrimFuncName strips the import path and package name from a fully qualified function name.
func TrimFuncName(name string) string {
	if idx := strings.LastIndex(name, "/"); idx != -1 {
		name = name[idx+1:]
	}
	if idx := strings.Index(name, "."); idx != -1 {
		name = name[idx+1:]
	}
	return name
}
