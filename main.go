package main

import "github.com/wendellvieira/rpg-ai-sub001/cmd"

func main() {
	cmd.Execute()
}
