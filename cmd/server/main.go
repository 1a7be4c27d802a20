package main

import (
	"github.com/OFFIS-RIT/lexgraph/internal/server"
	"github.com/OFFIS-RIT/lexgraph/internal/util"
)

func main() {
	util.LoadEnv()
	server.Init()
}
