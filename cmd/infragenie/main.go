package main

import "github.com/santiagomed/infragenie/cli"

func main() {
	cli.Execute()
}
