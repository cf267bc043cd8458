// Package main provides the ghsecrets CLI tool for provisioning GitHub Actions secrets.
package main

import "github.com/mscno/ghsecrets/cmd/ghsecrets/commands"

func main() {
	commands.Execute(Version)
}
