// Package main is the entry point for the RAG assistant service.
package main

import (
	"github.com/joho/godotenv"
	_ "go.uber.org/automaxprocs/maxprocs"

	"github.com/kart-io/rag-assistant/internal/assistant"
)

func main() {
	// .env 中的凭据只在未设置同名环境变量时生效
	_ = godotenv.Load()

	assistant.NewApp().Run()
}
