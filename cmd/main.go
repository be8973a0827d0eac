package main

import (
	"context"
	"fmt"
	"os"

	"github.com/yungbote/promptgen-backend/internal/app"
	"github.com/yungbote/promptgen-backend/internal/platform/shutdown"
)

func main() {
	ctx, stop := shutdown.NotifyContext(context.Background())
	defer stop()

	a, err := app.New(ctx)
	if err != nil {
		fmt.Printf("failed to initialize app: %v\n", err)
		os.Exit(1)
	}

	err = a.Run(ctx)
	if err != nil {
		a.Log.Error("server exited", "error", err)
	} else {
		a.Log.Info("server stopped")
	}
	a.Close()
	if err != nil {
		os.Exit(1)
	}
}
