package main

import "github.com/skycast-app/skycast/internal/cli"

func main() {
	cli.Execute()
}
