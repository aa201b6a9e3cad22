package main

import (
	"github.com/IndigoProtocol/indy-rewards/cmd"
)

func main() {
	cmd.Execute()
}
