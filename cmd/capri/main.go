// Package main provides the capri CLI.
package main

import "github.com/granme/caprisystem/internal/cli"

func main() {
	cli.Execute()
}
