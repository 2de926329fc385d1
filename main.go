package main

import "github.com/Mohsinsiddi/invoicex/cmd"

func main() {
	cmd.Execute()
}
