package main

import "tamriel-catalog/internal/cli"

func main() {
	cli.Execute()
}
