package main

import "github.com/vk/goad/internal/cli"

func main() {
	cli.Execute()
}
