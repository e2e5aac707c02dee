package common

import (
	"fmt"
	"reflect"
	"strings"
)

func (s Syscall) traceArg(arg interface{}) string {
	switch v := arg.(type) {
	case string:
		return fmt.Sprintf("%q", v)
	case Ptr:
		return fmt.Sprintf("0x%x", uint32(v))
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Trace renders a call the way strace would.
func (s Syscall) Trace(args []uint64) string {
	if len(args) > len(s.In) {
		args = args[:len(s.In)]
	}
	var in []reflect.Value
	var err error
	if len(args) == len(s.In) {
		in, err = s.Kernel.Argjoy.Convert(s.In, false, args)
	}
	if err != nil || len(in) != len(s.In) {
		return fmt.Sprintf("%s(?)", s.Name)
	}
	ret := make([]string, len(in))
	for i, val := range in {
		ret[i] = s.traceArg(val.Interface())
	}
	return fmt.Sprintf("%s(%s)", s.Name, strings.Join(ret, ", "))
}
