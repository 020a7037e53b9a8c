package assets

import (
	"embed"

	"github.com/labstack/echo/v4"
)

//go:embed public/*
var public embed.FS

// DefaultFS is the placeholder frontend served when no asset directory is
// configured.
var DefaultFS = echo.MustSubFS(public, "public")
