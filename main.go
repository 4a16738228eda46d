package main

import "github.com/voxtape/voxtape/internal/cli"

func main() {
	cli.Execute()
}
