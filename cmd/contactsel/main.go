// Package main is the entry point for the contactsel CLI.
package main

import "github.com/JonMunkholm/contactsel/cmd/contactsel/cmd"

// Version information - set by build flags
var version = "dev"

func main() {
	cmd.Version = version
	cmd.Execute()
}
