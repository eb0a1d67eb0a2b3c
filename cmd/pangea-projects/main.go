package main

import "pangea-projects/internal/cli"

func main() {
	cli.Execute()
}
