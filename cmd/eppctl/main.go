package main

import "epp-gateway/internal/cli"

func main() {
	cli.Execute()
}
