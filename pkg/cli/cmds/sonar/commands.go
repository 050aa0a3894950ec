package sonar

import (
	"fmt"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/teraranger/pkg/cli/sh"
	"github.com/robotalks/teraranger/pkg/msgs"
)

var (
	// SonarQueryCmd exposes SonarQuery command.
	SonarQueryCmd = ishell.Cmd{
		Name:    "sonar",
		Aliases: []string{"s"},
		Help:    "[COUNT [INTERVAL]]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			count, interval := 1, time.Second
			if len(c.Args) > 0 {
				n, err := strconv.Atoi(c.Args[0])
				if err != nil || n <= 0 {
					c.Err(fmt.Errorf("Invalid COUNT: %q", c.Args[0]))
					return
				}
				count = n
			}
			if len(c.Args) > 1 {
				d, err := time.ParseDuration(c.Args[1])
				if err != nil {
					c.Err(fmt.Errorf("Invalid INTERVAL: %v", err))
					return
				}
				interval = d
			}
			for i := 0; i < count; i++ {
				if i > 0 {
					time.Sleep(interval)
				}
				if _, err := sh.DoCommand(c, &msgs.SonarQuery{}); err != nil {
					return
				}
			}
		}),
	}
)

func init() {
	sh.AddCmds(&SonarQueryCmd)
}
