package main

import "weld/cmd/weld/commands"

func main() {
	commands.Execute()
}
