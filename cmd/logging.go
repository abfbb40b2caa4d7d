package cmd

import (
	"github.com/mphoward/neighbor/log"
	"github.com/urfave/cli"
)

var logger = log.New("neighbor")

func setupLogging(ctx *cli.Context) {
	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}
}
