package main

import "github.com/mcoot/friendlytable/internal/cli"

func main() {
	cli.Execute()
}
