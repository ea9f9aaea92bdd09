package main

import "github.com/mcoot/gridrace/internal/cli"

func main() {
	cli.Execute()
}
