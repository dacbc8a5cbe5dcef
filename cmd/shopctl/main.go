package main

import "shopfront/cmd/shopctl/commands"

func main() {
	commands.Execute()
}
