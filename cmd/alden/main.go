package main

import (
	"context"
	"errors"
	"os"

	"github.com/aldenshop/alden/internal/app"
	"github.com/aldenshop/alden/internal/config"
	"github.com/aldenshop/alden/internal/logger"
)

func main() {
	conf := config.MustLoadConfig()
	l := logger.New(os.Stdout)

	if err := app.New(conf, l).Run(); err != nil {
		if errors.Is(err, context.Canceled) {
			l.Info("graceful shutdown")
			os.Exit(0)
		}
		panic(err)
	}
}
