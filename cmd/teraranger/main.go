package main

//go-build: CGO_ENABLED=0

import (
	"log"

	"github.com/robotalks/teraranger/pkg/env"
	fx "github.com/robotalks/teraranger/pkg/framework"
)

func init() {
	env.SetupFlags()
}

func main() {
	if err := env.Parse(); err != nil {
		log.Fatalln(err)
	}
	e := env.NewConfig().MustNewEnv()
	fx.NewLoop().Add(e).RunOrFail()
}
