package main

import "github.com/ayusman/drishti/internal/cli"

func main() {
	cli.Execute()
}
