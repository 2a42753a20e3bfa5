package main

import (
	"smartx-backend/cmd/smartx-cli/commands"
	"smartx-backend/lib/util/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
