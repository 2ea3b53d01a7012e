package main

import "github.com/mcoot/hangman/internal/cli"

func main() {
	cli.Execute()
}
