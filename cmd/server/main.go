package main

import (
	_ "github.com/falcrise/omnivision/docs"
	"github.com/falcrise/omnivision/internal/bootstrap"
)

// @title Omnivision API
// @version 1.0.0
// @description Webcam condition monitoring backed by a vision language model

// @BasePath /api/v1

func main() {
	bootstrap.Run()
}
