package main

import (
	"github.com/lunixbochs/kernelcorn/go/cmd"

	_ "github.com/lunixbochs/kernelcorn/go/cmd/boot"
	_ "github.com/lunixbochs/kernelcorn/go/cmd/ktrace"
	_ "github.com/lunixbochs/kernelcorn/go/cmd/monitor"
	_ "github.com/lunixbochs/kernelcorn/go/cmd/pack"
)

func main() { cmd.Main() }
