package common

import (
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/lunixbochs/argjoy"
)

// MaxString bounds string arguments read from user memory.
const MaxString = 256

// KernelBase is embedded by the type whose exported methods are system
// calls. Its own methods are never registered.
type KernelBase struct {
	Syscalls map[string]Syscall
	Argjoy   argjoy.Argjoy
	// ReadString resolves a string argument in the calling task's address space.
	ReadString func(addr uint32, max int) (string, error)
}

func (k *KernelBase) SyscallBase() *KernelBase {
	return k
}

type Kernel interface {
	SyscallBase() *KernelBase
}

var baseType = reflect.TypeOf(&KernelBase{})

func camelToSnakeCase(name string) string {
	var words []string
	last := 0
	for i, c := range name {
		if unicode.IsUpper(c) {
			if i > 0 {
				words = append(words, name[last:i])
			}
			last = i
		}
	}
	words = append(words, name[last:])
	return strings.ToLower(strings.Join(words, "_"))
}

func initKernel(kf Kernel) {
	k := kf.SyscallBase()
	k.Syscalls = make(map[string]Syscall)
	instance := reflect.ValueOf(kf)
	typ := instance.Type()
	for i := 0; i < typ.NumMethod(); i++ {
		method := typ.Method(i)
		name := method.Name
		if r, size := utf8.DecodeRuneInString(name); size <= 0 || !unicode.IsUpper(r) {
			continue
		}
		if _, ok := baseType.MethodByName(name); ok {
			continue
		}
		in := make([]reflect.Type, method.Type.NumIn()-1)
		for j := 1; j < method.Type.NumIn(); j++ {
			in[j-1] = method.Type.In(j)
		}
		out := make([]reflect.Type, method.Type.NumOut())
		for j := 0; j < method.Type.NumOut(); j++ {
			out[j] = method.Type.Out(j)
		}
		name = camelToSnakeCase(name)
		k.Syscalls[name] = Syscall{
			Name:     name,
			Kernel:   k,
			Instance: instance,
			Method:   method,
			In:       in,
			Out:      out,
		}
	}
	k.Argjoy.Register(k.commonArgCodec)
	k.Argjoy.Register(argjoy.IntToInt)
}

// Init builds the dispatch table. Lookup calls it on first use.
func Init(kf Kernel) {
	initKernel(kf)
}

func Lookup(kf Kernel, name string) *Syscall {
	k := kf.SyscallBase()
	if k.Syscalls == nil {
		initKernel(kf)
	}
	if sys, ok := k.Syscalls[name]; ok {
		return &sys
	}
	return nil
}
