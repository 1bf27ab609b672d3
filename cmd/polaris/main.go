package main

import (
	"github.com/craftwork/polaris/internal/server"
	"go.uber.org/fx"
)

func main() {
	fx.New(server.Module).Run()
}
