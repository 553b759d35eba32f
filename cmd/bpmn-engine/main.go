/*
bpmn-engine is a CLI for running process definitions described as JSON files.

Usage:

	bpmn-engine [flags]
	bpmn-engine [command]

Available Commands:

	completion Generate the autocompletion script for the specified shell
	help       Help about any command
	resume     Resume a previously saved run
	run        Run a definition until completion or quiescence
	validate   Validate a definition file
	version    Show version

Use "bpmn-engine [command] --help" for more information about a command.
*/
package main

import (
	"os"

	"github.com/4gsim/bpmn-engine/cli"
)

var (
	version = "unknown-version"
)

func main() {
	cli := cli.New(version)
	os.Exit(cli.Execute())
}
