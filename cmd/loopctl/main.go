package main

//go-build: CGO_ENABLED=0

import (
	"github.com/hemobench/mockloop.go/pkg/cli/sh"

	_ "github.com/hemobench/mockloop.go/pkg/cli/cmds/loop"
)

func main() {
	sh.Main()
}
