package main

import (
	_ "time/tzdata"

	"go.uber.org/fx"

	"github.com/drxagencia/dashboards/internal/app"
)

func main() {
	fx.New(app.Module).Run()
}
