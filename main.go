package main

import (
	"runtime/debug"

	"github.com/PrimitiveContext/AzureEnumRBAC/cmd"
)

func main() {
	debug.SetMaxThreads(20000)
	cmd.Execute()
}
