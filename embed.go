package storyboard

import (
	"embed"
	"io/fs"
)

// embeddedAssets holds scripts shipped with the app (editor.js).
//
//go:embed assets/*
var embeddedAssets embed.FS

func assetsFS() fs.FS {
	sub, err := fs.Sub(embeddedAssets, "assets")
	if err != nil {
		panic(err)
	}
	return sub
}
