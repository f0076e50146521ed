package main

import "github.com/CosmoTheDev/prnotify/cmd"

func main() {
	cmd.Execute()
}
