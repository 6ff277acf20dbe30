package main

import "github.com/goserg/arena/internal/cli"

func main() {
	cli.Execute()
}
