package common

import (
	"reflect"

	"github.com/pkg/errors"
)

type Syscall struct {
	Name     string
	Kernel   *KernelBase
	Instance reflect.Value
	Method   reflect.Method
	In       []reflect.Type
	Out      []reflect.Type
}

var uint64Type = reflect.TypeOf(uint64(0))

// Call converts the raw register arguments and invokes the handler. The
// first result, if it is an integer, becomes the return register value.
func (sys Syscall) Call(args []uint64) (uint32, error) {
	if len(args) < len(sys.In) {
		return 0, errors.Errorf("%s: wanted %d arguments, got %d", sys.Name, len(sys.In), len(args))
	}
	converted, err := sys.Kernel.Argjoy.Convert(sys.In, false, args[:len(sys.In)])
	if err != nil {
		return 0, errors.Wrapf(err, "converting arguments to %s", sys.Name)
	}
	in := make([]reflect.Value, 0, len(converted)+1)
	in = append(in, sys.Instance)
	in = append(in, converted...)
	out := sys.Method.Func.Call(in)
	if len(out) > 0 && out[0].Type().ConvertibleTo(uint64Type) {
		return uint32(out[0].Convert(uint64Type).Uint()), nil
	}
	return 0, nil
}
