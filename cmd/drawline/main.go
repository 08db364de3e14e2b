package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/taylorbuilt/drawline/internal/clock"
	"github.com/taylorbuilt/drawline/internal/config"
	"github.com/taylorbuilt/drawline/internal/invoicedoc"
	"github.com/taylorbuilt/drawline/internal/project"
	"github.com/taylorbuilt/drawline/internal/providers/pdf"
	"github.com/taylorbuilt/drawline/internal/server"
	"github.com/taylorbuilt/drawline/pkg/db"
	"github.com/taylorbuilt/drawline/pkg/log"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		log.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		// Billing engine
		project.Module,
		invoicedoc.Module,
		pdf.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
