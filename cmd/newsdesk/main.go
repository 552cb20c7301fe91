package main

import "go-report-pipeline/internal/cli"

func main() {
	cli.Execute()
}
