package main

import (
	"github.com/movieparty/core/internal/app"
	"github.com/movieparty/core/internal/config"
)

func main() {
	app.Go(config.Load())
}
