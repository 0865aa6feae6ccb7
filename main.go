package main

import "lazycloud/internal/cli"

func main() {
	cli.Execute()
}
