package main

import (
	"github.com/robotalks/teraranger/pkg/cli/sh"
	env "github.com/robotalks/teraranger/pkg/env/connector"

	_ "github.com/robotalks/teraranger/pkg/cli/cmds/sonar"
)

//go-build: CGO_ENABLED=0

func init() {
	env.SetupFlags()
}

func main() {
	sh.Main()
}
