package main

import "github.com/jmehdipour/crm-tools/cmd"

func main() {
	cmd.Execute()
}
