package common

import (
	"github.com/lunixbochs/argjoy"
)

type (
	// Delta is a signed byte count.
	Delta int32
	// Pid names a task. Zero and negative values mean any child.
	Pid int32
	Ptr uint32
)

func (k *KernelBase) commonArgCodec(arg interface{}, vals []interface{}) error {
	reg, ok := vals[0].(uint64)
	if !ok {
		return argjoy.NoMatch
	}
	switch v := arg.(type) {
	case *Delta:
		*v = Delta(int32(uint32(reg)))
	case *Pid:
		*v = Pid(int32(uint32(reg)))
	case *Ptr:
		*v = Ptr(reg)
	case *int:
		*v = int(int32(uint32(reg)))
	case *string:
		if k.ReadString == nil {
			return argjoy.NoMatch
		}
		s, err := k.ReadString(uint32(reg), MaxString)
		if err != nil {
			return err
		}
		*v = s
	default:
		return argjoy.NoMatch
	}
	return nil
}
