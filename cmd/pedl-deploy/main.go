// Package main is the entry point for the pedl-deploy CLI.
//
// pedl-deploy provisions a PEDL cluster on AWS with CloudFormation: a master
// node, the resources its auto-scaled agents need, and optionally a bastion
// host and a dedicated VPC.
//
// For detailed usage information, run:
//
//	pedl-deploy --help
package main

import (
	"fmt"
	"os"

	"github.com/determined-ai/pedl-deploy/cmd/pedl-deploy/commands"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
