package main

import (
	"os"

	"github.com/creditarchitect/dispatch-app/dispatch/dispatchcli"
	"github.com/creditarchitect/dispatch-app/log"
)

func main() {
	if err := dispatchcli.GetApp().Run(os.Args); err != nil {
		log.CLI.Fatal(err)
	}
}
