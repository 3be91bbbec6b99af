package main

import (
	"flashtans/internal/cli"

	_ "flashtans/docs"
)

// @title Flash Tans API
// @version 1.0
// @description Catalog and order placement for the Flash Tans storefront.
// @BasePath /api
func main() {
	cli.Execute()
}
