// Package main is the entry point for the dirctl operator binary.
package main

import (
	"os"

	_ "github.com/mattn/go-sqlite3"

	cli "dirportal/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
